package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/avsync/internal/config"
	"github.com/farcloser/avsync/internal/orchestrator"
	"github.com/farcloser/avsync/internal/runlog"
	"github.com/farcloser/avsync/internal/types"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the extraction, scoring and visualisation stages on one video",
		Flags: slices.Concat(commonFlags(), []cli.Flag{
			&cli.StringFlag{
				Name:     flagVideoFile,
				Usage:    "Input video",
				Required: true,
			},
			&cli.StringFlag{
				Name:     flagReference,
				Usage:    "Name of the output subtree under the data directory",
				Required: true,
			},
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			return guard(cfg.Paths.LogDir, singlePrefix, func() error {
				return runSingle(ctx, cfg, cmd.String(flagVideoFile), cmd.String(flagReference), cmd.String(flagMetricsFile))
			})
		},
	}
}

func runSingle(ctx context.Context, cfg *config.Config, videoFile, reference, metricsFile string) error {
	path, err := filepath.Abs(videoFile)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", videoFile, err)
	}

	item := types.WorkItem{Path: path, Reference: types.SanitizeReference(reference)}

	log, err := runlog.Open(runlog.Options{Dir: cfg.Paths.LogDir, Prefix: singlePrefix})
	if err != nil {
		return err
	}
	defer closeLog(log)

	if _, err = os.Stat(path); err != nil {
		log.Printf("⚠️ %v", err)
	}

	if item.Reference != reference {
		log.Printf("⚠️ reference %q sanitized to %q", reference, item.Reference)
	}

	current := newSession(cfg, log, metricsFile)
	outcome := current.orchestrator.RunSingle(ctx, item)
	current.flush()

	log.Printf("📌 log written to %s", log.Path())

	if code := orchestrator.ExitCode(outcome, cfg.Policy.SkipFailedStages); code != 0 {
		return cli.Exit("", code)
	}

	return nil
}

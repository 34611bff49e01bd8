package main

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/avsync/internal/config"
	"github.com/farcloser/avsync/internal/discovery"
	"github.com/farcloser/avsync/internal/orchestrator"
	"github.com/farcloser/avsync/internal/runlog"
	"github.com/farcloser/avsync/internal/types"
)

func batchCommand() *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "Run the stages on every video found under a directory",
		Flags: slices.Concat(commonFlags(), []cli.Flag{
			&cli.StringFlag{
				Name:     flagInputDir,
				Usage:    "Directory searched for videos",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  flagNoRecursive,
				Usage: "Only consider videos directly under the input directory",
			},
			&cli.BoolFlag{
				Name:     flagSkipVideo,
				Usage:    "Stop the batch after the first video that fails",
				Category: categoryExecution,
			},
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			return guard(cfg.Paths.LogDir, batchPrefix, func() error {
				return runBatch(ctx, cfg, cmd.String(flagInputDir), cmd.String(flagMetricsFile))
			})
		},
	}
}

func runBatch(ctx context.Context, cfg *config.Config, inputDir, metricsFile string) error {
	log, err := runlog.Open(runlog.Options{Dir: cfg.Paths.LogDir, Prefix: batchPrefix})
	if err != nil {
		return err
	}
	defer closeLog(log)

	paths, err := discovery.Discover(inputDir, cfg.Policy.Recursive)
	if err != nil {
		log.Printf("❌ %v", err)

		return cli.Exit("", 1)
	}

	lock, err := orchestrator.Lock(cfg.Paths.DataDir)
	if err != nil {
		log.Printf("❌ %v", err)

		return cli.Exit("", 1)
	}

	defer func() {
		if err := lock.Unlock(); err != nil {
			slog.Warn("releasing lock", "error", err)
		}
	}()

	items := make([]types.WorkItem, 0, len(paths))
	for _, path := range paths {
		items = append(items, types.NewWorkItem(path))
	}

	current := newSession(cfg, log, metricsFile)
	batch := current.orchestrator.RunBatch(ctx, inputDir, items)
	current.flush()

	manifest := orchestrator.ManifestPath(log.Path())
	if err = orchestrator.WriteManifest(manifest, batch); err != nil {
		return fmt.Errorf("batch %s: %w", batch.ID, err)
	}

	log.Printf("📌 log written to %s, manifest to %s", log.Path(), manifest)

	return nil
}

//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/farcloser/primordium/format"
	"github.com/urfave/cli/v3"

	"github.com/farcloser/avsync"
	"github.com/farcloser/avsync/internal/config"
	"github.com/farcloser/avsync/internal/output"
	"github.com/farcloser/avsync/internal/results"
)

var errNoResults = errors.New("no run produced valid offsets")

func summaryCommand() *cli.Command {
	return &cli.Command{
		Name:  "summary",
		Usage: "Average offsets by confidence rank across runs with the same number of tracks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output_dir",
				Aliases: []string{"data_dir"},
				Usage:   "Data directory holding the pywork tree",
				Value:   config.Default().Paths.DataDir,
				Sources: cli.EnvVars("AVSYNC_DATA_DIR"),
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: console, json, markdown",
				Value:   "console",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			return runSummary(cmd.String("output_dir"), cmd.String("format"))
		},
	}
}

func runSummary(dataDir, formatName string) error {
	formatter, err := format.GetFormatter(formatName)
	if err != nil {
		return err
	}

	collected, err := results.Collect(dataDir)
	if err != nil {
		return err
	}

	runs := make([]avsync.Run, 0, len(collected))

	for _, run := range collected {
		for _, skipped := range run.Result.Skipped {
			slog.Warn("skipped line", "run", run.Name, "line", skipped.Line, "reason", skipped.Reason)
		}

		if run.Result.Absent {
			slog.Warn("run excluded", "run", run.Name, "reason", run.Result.AbsentReason)
		}

		runs = append(runs, avsync.Run{Name: run.Name, Records: run.Result.Records})
	}

	summary := avsync.Summarize(runs)
	if len(summary.Groups) == 0 {
		return fmt.Errorf("%w in %s", errNoResults, dataDir)
	}

	path, err := output.WriteSummaryFile(dataDir, summary, time.Now())
	if err != nil {
		return err
	}

	data := &format.Data{
		Object: path,
		Meta:   output.SummaryToMap(summary),
	}

	return formatter.PrintAll([]*format.Data{data}, os.Stdout)
}

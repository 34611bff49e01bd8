package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/avsync"
	"github.com/farcloser/avsync/internal/results"
)

var (
	errInspectArgs = errors.New("expected exactly one argument: path to offsets.txt")
	errAbsent      = errors.New("no usable records")
)

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Show the records of one offsets file, ranked by confidence, and the lines that were skipped",
		ArgsUsage: "<offsets.txt>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: got %d", errInspectArgs, cmd.NArg())
			}

			return runInspect(cmd.Args().First())
		},
	}
}

func runInspect(path string) error {
	result := results.ParseFile(path)

	if len(result.Skipped) > 0 {
		rows := make([][]string, 0, len(result.Skipped))
		for _, skipped := range result.Skipped {
			rows = append(rows, []string{strconv.Itoa(skipped.Line), skipped.Text, skipped.Reason})
		}

		fmt.Fprintln(os.Stdout, "Skipped lines")
		fmt.Fprintln(os.Stdout, renderTable([]string{"line", "text", "reason"}, rows, []columnAlignment{alignRight}))
	}

	if result.Absent {
		return fmt.Errorf("%w in %s: %s", errAbsent, path, result.AbsentReason)
	}

	records := avsync.SortByConfidence(result.Records)
	rows := make([][]string, 0, len(records))

	for rank, record := range records {
		distance := "-"
		if record.AvgMinDist != nil {
			distance = strconv.FormatFloat(*record.AvgMinDist, 'f', 4, 64)
		}

		rows = append(rows, []string{
			strconv.Itoa(rank + 1),
			strconv.Itoa(record.TrackID),
			strconv.Itoa(record.OffsetFrames),
			strconv.FormatFloat(record.OffsetSeconds, 'f', 4, 64),
			strconv.FormatFloat(record.Confidence, 'f', 4, 64),
			distance,
		})
	}

	fmt.Fprintln(os.Stdout, renderTable(
		[]string{"rank", "track_id", "offset_frames", "offset_seconds", "confidence", "avg_min_dist"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
	))

	return nil
}

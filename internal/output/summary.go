package output

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/farcloser/avsync"
)

// SummaryFile is the artifact name, written at the root of the data directory.
const SummaryFile = "syncnet_summary_mean_by_linecount.txt"

const (
	blockWidth = 60
	missing    = "-"
)

// WriteSummary renders the text artifact: a title block, then one delimited block per line-count group with a
// tab-separated table of rank means.
func WriteSummary(writer io.Writer, summary *avsync.Summary, root string, generated time.Time) error {
	var buf bytes.Buffer

	rule := strings.Repeat("=", blockWidth)

	fmt.Fprintln(&buf, "SyncNet offsets: mean by line count")
	fmt.Fprintf(&buf, "generated: %s\n", generated.Format(time.RFC3339))
	fmt.Fprintf(&buf, "output root: %s\n", root)
	fmt.Fprintf(&buf, "runs: %d\n", summary.RunCount())
	fmt.Fprintf(&buf, "note: %s\n", PairingNote)

	if len(summary.Excluded) > 0 {
		fmt.Fprintf(&buf, "excluded (no valid records): %s\n", strings.Join(summary.Excluded, ", "))
	}

	for _, group := range summary.Groups {
		fmt.Fprintf(&buf, "\n%s\n", rule)
		fmt.Fprintf(&buf, "line count: %d\n", group.Cardinality)
		fmt.Fprintf(&buf, "runs (%d): %s\n", len(group.Runs), strings.Join(group.Runs, ", "))
		fmt.Fprintln(&buf, rule)
		fmt.Fprintln(&buf, "rank\toffset_frames\toffset_seconds\tconfidence\tavg_min_dist\truns")

		for _, rank := range group.Ranks {
			distance := missing
			if rank.AvgMinDist != nil {
				distance = fmt.Sprintf("%.4f", *rank.AvgMinDist)
			}

			fmt.Fprintf(&buf, "%d\t%.4f\t%.4f\t%.4f\t%s\t%d\n",
				rank.Rank+1, rank.OffsetFrames, rank.OffsetSeconds, rank.Confidence, distance, rank.Participants)
		}
	}

	if _, err := buf.WriteTo(writer); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}

	return nil
}

// WriteSummaryFile writes the artifact under dataDir and returns its path.
func WriteSummaryFile(dataDir string, summary *avsync.Summary, generated time.Time) (string, error) {
	path := filepath.Join(dataDir, SummaryFile)

	file, err := os.Create(path) //nolint:gosec // data directory is user-configured
	if err != nil {
		return "", fmt.Errorf("creating summary: %w", err)
	}

	if err = WriteSummary(file, summary, dataDir, generated); err != nil {
		_ = file.Close()

		return "", err
	}

	if err = file.Close(); err != nil {
		return "", fmt.Errorf("closing summary: %w", err)
	}

	return path, nil
}

package results

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/farcloser/avsync/internal/config"
)

// ErrWorkDirNotFound is returned when the data directory has no per-item work tree.
var ErrWorkDirNotFound = errors.New("work directory not found")

// Collected is one run directory and its parsed offsets.
type Collected struct {
	// Name is the run directory name, which is the item reference.
	Name   string
	Result ParseResult
}

// Collect parses <dataDir>/pywork/*/offsets.txt in run name order.
// Run directories without an offsets file are returned as absent so that callers can report them.
func Collect(dataDir string) ([]Collected, error) {
	workDir := filepath.Join(dataDir, config.WorkDirName)

	entries, err := os.ReadDir(workDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrWorkDirNotFound, workDir)
		}

		return nil, fmt.Errorf("reading %s: %w", workDir, err)
	}

	collected := []Collected{}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		path := filepath.Join(workDir, entry.Name(), config.OffsetsFile)
		result := ParseFile(path)

		slog.Debug("results.Collect", "run", entry.Name(), "records", len(result.Records),
			"skipped", len(result.Skipped), "absent", result.Absent)

		collected = append(collected, Collected{Name: entry.Name(), Result: result})
	}

	return collected, nil
}

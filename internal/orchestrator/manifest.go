package orchestrator

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/farcloser/avsync/internal/types"
)

// ManifestPath places the batch manifest next to its log.
func ManifestPath(logPath string) string {
	return strings.TrimSuffix(logPath, ".log") + ".json"
}

// WriteManifest persists the batch record as indented JSON.
func WriteManifest(path string, batch *types.BatchRun) error {
	content, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	if err = os.WriteFile(path, append(content, '\n'), 0o644); err != nil { //nolint:gosec // not sensitive
		return fmt.Errorf("writing manifest: %w", err)
	}

	return nil
}

// ExitCode maps a single-run outcome to the process exit code. Failures only propagate when stages were skipped
// on failure; a failing code that is not a positive integer maps to 1.
func ExitCode(outcome types.ItemOutcome, skipFailed bool) int {
	failed, ok := outcome.FailedStage()
	if !ok || !skipFailed {
		return 0
	}

	if failed.ExitCode <= 0 {
		return 1
	}

	return failed.ExitCode
}

package runlog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// WriteErrorLog appends a top-level fault to <dir>/<prefix>_error_<YYYYMMDD_HHMMSS>.log and returns its path.
func WriteErrorLog(dir, prefix string, fault error, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating log directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_error_%s.log", prefix, now.Format(StampLayout)))

	//nolint:gosec // log directory is user-configured
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("opening error log: %w", err)
	}
	defer file.Close()

	if _, err := fmt.Fprintf(file, "time: %s\nerror: %v\n", now.Format(TimeLayout), fault); err != nil {
		return "", fmt.Errorf("writing error log: %w", err)
	}

	return path, nil
}

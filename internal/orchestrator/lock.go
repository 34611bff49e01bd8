package orchestrator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFile is created at the root of the data directory while a batch runs.
const LockFile = ".avsync.lock"

// ErrLocked is returned when another batch holds the data directory.
var ErrLocked = errors.New("data directory is in use by another batch")

// Lock takes the advisory lock on dataDir, creating the directory when needed. Release it with Unlock.
func Lock(dataDir string) (*flock.Flock, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	lock := flock.New(filepath.Join(dataDir, LockFile))

	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, dataDir)
	}

	return lock, nil
}

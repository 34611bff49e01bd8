package binary_test

import (
	"path/filepath"
	"testing"

	"github.com/farcloser/avsync/internal/integration/binary"
)

func TestAvailable(t *testing.T) {
	path, found := binary.Available("sh")
	if !found || !filepath.IsAbs(path) {
		t.Errorf("Available(sh) = %q, %v", path, found)
	}

	if _, found := binary.Available("avsync-no-such-program"); found {
		t.Error("Available() found a program that does not exist")
	}
}

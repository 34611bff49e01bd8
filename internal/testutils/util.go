// Package testutils provides test infrastructure for the CLI tests, which drive the binaries built under bin/.
package testutils

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/containerd/nerdctl/mod/tigron/test"

	"github.com/farcloser/agar/pkg/agar"
)

// BinaryPath returns the location of a built binary.
func BinaryPath(name string) string {
	_, thisFile, _, _ := runtime.Caller(0) //nolint:dogsled // runtime.Caller returns 4 values, only file is needed
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))

	return filepath.Join(projectRoot, "bin", name)
}

// Setup creates a test case configured to run the named binary. The test is skipped when it has not been built.
func Setup(t *testing.T, name string) *test.Case {
	t.Helper()

	binaryPath := BinaryPath(name)
	if _, err := os.Stat(binaryPath); err != nil {
		t.Skipf("%s not built (run make build): %v", name, err)
	}

	return agar.Setup(binaryPath)
}

// WriteFile creates path with content, along with its parent directories.
func WriteFile(t *testing.T, path, content string, mode os.FileMode) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		t.Fatal(err)
	}
}

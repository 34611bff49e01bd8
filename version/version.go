// Package version exposes build identification injected at link time.
package version

import (
	"os"
	"path/filepath"
)

// Overridden with -ldflags "-X github.com/farcloser/avsync/version.version=...".
//
//nolint:gochecknoglobals
var (
	name    = ""
	version = "dev"
	commit  = "unknown"
)

// Name returns the binary name, falling back to the invoked executable.
func Name() string {
	if name != "" {
		return name
	}

	return filepath.Base(os.Args[0])
}

// Version returns the release version.
func Version() string {
	return version
}

// Commit returns the source revision the binary was built from.
func Commit() string {
	return commit
}

// Package binary locates external programs.
package binary

import (
	"os/exec"
)

// Available checks if a binary is available in the system PATH. The resolved path is returned when found.
func Available(binName string) (string, bool) {
	path, err := exec.LookPath(binName)

	return path, err == nil
}

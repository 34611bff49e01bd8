// Package discovery enumerates the videos a batch will process.
package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var (
	// ErrDirectoryNotFound is returned when the input root does not exist or is not a directory.
	ErrDirectoryNotFound = errors.New("input directory not found")
	// ErrNoVideoFiles is returned when the input root holds no file with a supported extension.
	ErrNoVideoFiles = errors.New("no supported video files found")
)

// videoExtensions is the allow-list of container formats, lowercase with leading dot.
//
//nolint:gochecknoglobals // configuration data, effectively const
var videoExtensions = map[string]bool{
	".mp4": true,
	".avi": true,
	".mov": true,
	".mkv": true,
	".flv": true,
	".wmv": true,
}

// Extensions returns the supported extensions, sorted.
func Extensions() []string {
	exts := make([]string, 0, len(videoExtensions))
	for ext := range videoExtensions {
		exts = append(exts, ext)
	}

	slices.Sort(exts)

	return exts
}

// IsVideo reports whether path carries a supported extension (case-insensitive).
func IsVideo(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

// Discover returns the resolved paths of supported videos under root, deduplicated and sorted lexicographically.
// Without recursive, only direct children of root are considered.
// A missing root yields ErrDirectoryNotFound; an empty result yields ErrNoVideoFiles.
func Discover(root string, recursive bool) ([]string, error) {
	resolvedRoot, err := resolve(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, root)
	}

	info, err := os.Stat(resolvedRoot)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, root)
	}

	slog.Debug("discovery.Discover", "root", resolvedRoot, "recursive", recursive)

	seen := map[string]struct{}{}

	var files []string

	err = filepath.WalkDir(resolvedRoot, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == resolvedRoot {
				return err
			}

			slog.Warn("skipping unreadable path", "path", path, "error", err)

			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if entry.IsDir() {
			if !recursive && path != resolvedRoot {
				return filepath.SkipDir
			}

			return nil
		}

		if !IsVideo(path) {
			return nil
		}

		resolved, err := resolve(path)
		if err != nil {
			// Dangling symlink: nothing to process.
			slog.Debug("discovery.Discover", "path", path, "skipped", err)

			return nil //nolint:nilerr
		}

		if _, dup := seen[resolved]; dup {
			return nil
		}

		seen[resolved] = struct{}{}
		files = append(files, resolved)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s (supported: %s)", ErrNoVideoFiles, root, strings.Join(Extensions(), ", "))
	}

	slices.Sort(files)

	return files, nil
}

// resolve returns the absolute, symlink-resolved form of path.
func resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	return filepath.EvalSymlinks(abs)
}

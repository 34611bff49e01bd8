// Package logging configures the diagnostic slog channel shared by both binaries.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Setup installs a tint handler on stderr as the default logger.
func Setup(debug bool) {
	slog.SetDefault(New(os.Stderr, debug, ShouldColorize(os.Stderr)))
}

// New returns a tint logger writing to writer.
func New(writer io.Writer, debug, color bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	return slog.New(tint.NewHandler(writer, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    !color,
	}))
}

// ShouldColorize reports whether file is an interactive terminal. NO_COLOR disables colour unconditionally.
func ShouldColorize(file *os.File) bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}

	fd := file.Fd()

	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Package runlog implements the append-only run log shared by the orchestrator and the stage runner.
//
// Every write goes straight to the file descriptor (no buffering), so a killed process still leaves a readable
// log up to its last line, and every write is mirrored to the console.
package runlog

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	// StampLayout is used in log file names.
	StampLayout = "20060102_150405"
	// TimeLayout is used for human-readable timestamps inside the log.
	TimeLayout = time.ANSIC

	maxNameAttempts = 100
	ruleWidth       = 50
)

var errNoFreeName = errors.New("no free log file name")

// Options configures a run log.
type Options struct {
	// Dir is created when missing.
	Dir    string
	Prefix string
	// Console receives a copy of every write. Defaults to os.Stdout.
	Console io.Writer
	// Now defaults to time.Now.
	Now func() time.Time
}

// Field is one key/value line of a header or footer block.
type Field struct {
	Key   string
	Value any
}

// Log is a single-writer, append-only text log bound to one invocation.
type Log struct {
	mu      sync.Mutex
	file    *os.File
	path    string
	console io.Writer
	now     func() time.Time
	err     error
}

// Open creates <dir>/<prefix>_<YYYYMMDD_HHMMSS>.log. If that name is taken (two invocations in the same second),
// a numeric suffix is added rather than sharing the file.
func Open(opts Options) (*Log, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	if opts.Console == nil {
		opts.Console = os.Stdout
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	stamp := opts.Now().Format(StampLayout)

	for attempt := range maxNameAttempts {
		name := fmt.Sprintf("%s_%s.log", opts.Prefix, stamp)
		if attempt > 0 {
			name = fmt.Sprintf("%s_%s_%d.log", opts.Prefix, stamp, attempt)
		}

		path := filepath.Join(opts.Dir, name)

		//nolint:gosec // log directory is user-configured
		file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY|os.O_APPEND, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}

		return &Log{
			file:    file,
			path:    path,
			console: opts.Console,
			now:     opts.Now,
		}, nil
	}

	return nil, fmt.Errorf("%w: %s_%s in %s", errNoFreeName, opts.Prefix, stamp, opts.Dir)
}

// Path returns the log file location.
func (l *Log) Path() string {
	return l.path
}

// Now returns the log clock's current time.
func (l *Log) Now() time.Time {
	return l.now()
}

// Stamp formats the current time for log content.
func (l *Log) Stamp() string {
	return l.now().Format(TimeLayout)
}

// Printf writes a formatted message, adding a trailing newline when missing.
func (l *Log) Printf(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}

	l.write(text)
}

// Line writes one line of child process output exactly as received. A final line lacking a newline gets one,
// so that the next block starts on its own line.
func (l *Log) Line(line string) {
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}

	l.write(line)
}

// Block writes a delimited block: a titled rule, one "key: value" line per field, and a closing rule.
func (l *Log) Block(title string, fields ...Field) {
	var builder strings.Builder

	fmt.Fprintf(&builder, "===== %s =====\n", title)

	for _, field := range fields {
		fmt.Fprintf(&builder, "%s: %v\n", field.Key, field.Value)
	}

	builder.WriteString(Rule())
	builder.WriteString("\n")

	l.write(builder.String())
}

// Section writes a stage or item separator.
func (l *Log) Section(title string) {
	l.write(fmt.Sprintf("\n\n========== %s ==========\n", title))
}

// Err returns the first write error encountered, if any.
func (l *Log) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.err
}

// Close closes the file and reports the first write error, if any.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return l.err
	}

	closeErr := l.file.Close()
	l.file = nil

	if l.err != nil {
		return l.err
	}

	return closeErr
}

func (l *Log) write(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		if _, err := io.WriteString(l.file, text); err != nil && l.err == nil {
			l.err = fmt.Errorf("writing %s: %w", l.path, err)
		}
	}

	_, _ = io.WriteString(l.console, text)
}

// Rule returns the separator line used around command blocks.
func Rule() string {
	return strings.Repeat("=", ruleWidth)
}

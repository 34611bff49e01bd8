package stage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/avsync/internal/integration/binary"
	"github.com/farcloser/avsync/internal/runlog"
	"github.com/farcloser/avsync/internal/types"
)

// StartFailureCode is recorded when a stage program could not be launched.
const StartFailureCode = -1

// Sink receives the runner's blocks and the child's output lines. *runlog.Log implements it.
type Sink interface {
	Printf(format string, args ...any)
	Line(line string)
}

// Runner executes stage programs synchronously. The zero value is usable.
//
// No timeout is applied: a hung stage blocks its caller until it exits.
type Runner struct {
	// Now defaults to time.Now.
	Now func() time.Time
	// Dir is the working directory of the children. Empty means the current directory.
	Dir string
}

// Run starts the command with stdout and stderr sharing a single pipe, streams every line to the sink as it
// arrives, and returns once the child has exited. A non-zero exit is reported through the outcome, not as an
// error. An error is returned only when the program could not be started or waited for, in which case the
// outcome carries StartFailureCode.
func (r *Runner) Run(ctx context.Context, command Command, sink Sink) (types.StageOutcome, error) {
	now := r.Now
	if now == nil {
		now = time.Now
	}

	outcome := types.StageOutcome{
		Stage:    command.Stage,
		ExitCode: StartFailureCode,
		Started:  now(),
	}

	sink.Printf("\n%s\nstage: %s\ncommand: %s\nstarted: %s\n%s",
		runlog.Rule(), command.Stage, command, outcome.Started.Format(runlog.TimeLayout), runlog.Rule())

	slog.Debug("stage", "name", command.Stage, "start", command.String())

	exitCode, err := r.execute(ctx, command, sink)
	outcome.ExitCode = exitCode
	outcome.Finished = now()

	if err != nil {
		sink.Printf("❌ %s stage could not run: %v", command.Stage, err)
	}

	verdict := "✅ succeeded"
	if outcome.ExitCode != 0 {
		verdict = "❌ failed"
	}

	sink.Printf("%s\n%s stage %s\nexit code: %d\nfinished: %s\n%s",
		runlog.Rule(), command.Stage, verdict, outcome.ExitCode,
		outcome.Finished.Format(runlog.TimeLayout), runlog.Rule())

	slog.Debug("stage", "name", command.Stage, "exit", outcome.ExitCode, "duration", outcome.Duration())

	return outcome, err
}

func (r *Runner) execute(ctx context.Context, command Command, sink Sink) (int, error) {
	program := command.Program
	if !strings.ContainsRune(program, os.PathSeparator) {
		resolved, found := binary.Available(program)
		if !found {
			return StartFailureCode, fmt.Errorf("%w: %w: %s", fault.ErrCommandFailure, fault.ErrMissingRequirements, program)
		}

		program = resolved
	}

	reader, writer, err := os.Pipe()
	if err != nil {
		return StartFailureCode, fmt.Errorf("%w: creating output pipe: %w", fault.ErrCommandFailure, err)
	}
	defer reader.Close()

	//nolint:gosec // stage programs and arguments come from the user's configuration
	cmd := exec.CommandContext(ctx, program, command.Args...)
	cmd.Dir = r.Dir
	cmd.Stdout = writer
	cmd.Stderr = writer

	if err = cmd.Start(); err != nil {
		_ = writer.Close()

		return StartFailureCode, fmt.Errorf("%w: %s: %w", fault.ErrCommandFailure, program, err)
	}

	// The child holds its own copy; closing ours lets the reader see EOF once the child exits.
	_ = writer.Close()

	stream(reader, sink)

	err = cmd.Wait()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}

	return StartFailureCode, fmt.Errorf("%w: waiting for %s: %w", fault.ErrCommandFailure, program, err)
}

// stream forwards lines until EOF. Lines are not length limited, and invalid UTF-8 is replaced.
func stream(reader io.Reader, sink Sink) {
	buffered := bufio.NewReader(reader)

	for {
		line, err := buffered.ReadString('\n')
		if line != "" {
			sink.Line(strings.ToValidUTF8(line, "\uFFFD"))
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.Warn("reading stage output", "error", err)
			}

			return
		}
	}
}

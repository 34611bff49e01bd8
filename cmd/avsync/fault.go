package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/avsync/internal/runlog"
)

var errPanic = errors.New("unexpected panic")

// guard runs action and turns anything escaping it, panics included, into a fault recorded in the dedicated
// error log. Exit codes returned on purpose pass through untouched.
func guard(logDir, prefix string, action func() error) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("%w: %v\n%s", errPanic, recovered, debug.Stack())
		}

		var exitCoder cli.ExitCoder
		if err == nil || errors.As(err, &exitCoder) {
			return
		}

		path, logErr := runlog.WriteErrorLog(logDir, prefix, err, time.Now())
		if logErr != nil {
			slog.Error("could not write the error log", "error", logErr)

			return
		}

		fmt.Fprintf(os.Stderr, "❌ fatal error, details in %s\n", path)
	}()

	return action()
}

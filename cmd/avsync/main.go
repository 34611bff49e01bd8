package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/farcloser/avsync/internal/logging"
	"github.com/farcloser/avsync/version"
)

func main() {
	// A missing .env is the common case.
	_ = godotenv.Load()

	ctx := context.Background()

	appl := &cli.Command{
		Name:    version.Name(),
		Usage:   "Drive the SyncNet extraction, scoring and visualisation stages over videos",
		Version: version.Version() + " " + version.Commit(),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"D"},
				Usage:   "Enable debug diagnostics on stderr",
				Sources: cli.EnvVars("AVSYNC_DEBUG"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.Setup(cmd.Bool("debug"))

			return ctx, nil
		},
		Commands: []*cli.Command{
			runCommand(),
			batchCommand(),
		},
	}

	if err := appl.Run(ctx, os.Args); err != nil {
		var exitCoder cli.ExitCoder
		if errors.As(err, &exitCoder) {
			os.Exit(exitCoder.ExitCode())
		}

		slog.Error("failed to run", "error", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/farcloser/avsync/internal/logging"
	"github.com/farcloser/avsync/version"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()

	appl := &cli.Command{
		Name:    version.Name(),
		Usage:   "Aggregate and inspect SyncNet offsets across runs",
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
			summaryCommand(),
			inspectCommand(),
		},
	}

	if err := appl.Run(ctx, os.Args); err != nil {
		slog.Error("failed to run", "error", err)
		os.Exit(1)
	}
}

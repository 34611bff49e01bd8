package main

import (
	"log/slog"

	"github.com/farcloser/avsync/internal/config"
	"github.com/farcloser/avsync/internal/integration/binary"
	"github.com/farcloser/avsync/internal/integration/stage"
	"github.com/farcloser/avsync/internal/metrics"
	"github.com/farcloser/avsync/internal/orchestrator"
	"github.com/farcloser/avsync/internal/runlog"
)

const (
	singlePrefix = "syncnet_automation"
	batchPrefix  = "syncnet_batch_automation"
)

// session wires the orchestrator for one invocation.
type session struct {
	orchestrator *orchestrator.Orchestrator
	metrics      *metrics.Metrics
	metricsFile  string
}

func newSession(cfg *config.Config, log *runlog.Log, metricsFile string) *session {
	current := &session{metricsFile: metricsFile}

	var opts []orchestrator.Option

	if metricsFile != "" {
		current.metrics = metrics.New()
		opts = append(opts, orchestrator.WithRecorder(current.metrics))
	}

	if cfg.Policy.Probe {
		if _, found := binary.Available("ffprobe"); found {
			opts = append(opts, orchestrator.WithProber(orchestrator.FFProbe{}))
		} else {
			log.Printf("⚠️ ffprobe not found, inputs will not be probed")
		}
	}

	current.orchestrator = orchestrator.New(cfg, &stage.Runner{}, log, opts...)

	return current
}

// flush writes metrics, if requested. A failure is reported but does not change the outcome.
func (s *session) flush() {
	if s.metrics == nil {
		return
	}

	if err := s.metrics.WriteTextfile(s.metricsFile); err != nil {
		slog.Warn("metrics not written", "error", err)
	}
}

// closeLog reports write errors that occurred on the run log.
func closeLog(log *runlog.Log) {
	if err := log.Close(); err != nil {
		slog.Warn("run log incomplete", "path", log.Path(), "error", err)
	}
}

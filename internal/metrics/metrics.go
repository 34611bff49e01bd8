// Package metrics exposes batch counters in the Prometheus text format, for the node exporter textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/farcloser/avsync/internal/types"
)

const namespace = "avsync"

// Stage results used as label values.
const (
	ResultSucceeded = "succeeded"
	ResultFailed    = "failed"
	ResultSkipped   = "skipped"
)

// Metrics records stage and item completions on a private registry.
type Metrics struct {
	registry      *prometheus.Registry
	StageRuns     *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	Items         *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	metrics := &Metrics{
		registry: prometheus.NewRegistry(),
		StageRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_runs_total",
			Help:      "Stage invocations by stage and result.",
		}, []string{"stage", "result"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of stage invocations.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14), //nolint:mnd // 1s to ~2h
		}, []string{"stage"}),
		Items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Processed items by verdict.",
		}, []string{"verdict"}),
	}

	metrics.registry.MustRegister(metrics.StageRuns, metrics.StageDuration, metrics.Items)

	return metrics
}

// StageFinished counts a stage outcome. Skipped stages have no duration.
func (m *Metrics) StageFinished(outcome types.StageOutcome) {
	result := ResultFailed

	switch {
	case outcome.Skipped:
		m.StageRuns.WithLabelValues(string(outcome.Stage), ResultSkipped).Inc()

		return
	case outcome.Succeeded():
		result = ResultSucceeded
	}

	m.StageRuns.WithLabelValues(string(outcome.Stage), result).Inc()
	m.StageDuration.WithLabelValues(string(outcome.Stage)).Observe(outcome.Duration().Seconds())
}

// ItemFinished counts an item verdict.
func (m *Metrics) ItemFinished(outcome types.ItemOutcome) {
	m.Items.WithLabelValues(string(outcome.Verdict)).Inc()
}

// WriteTextfile atomically writes the current values to path.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}

	return nil
}

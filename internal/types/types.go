package types

import (
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// referenceReplacer maps characters that cannot appear in a directory segment to underscores.
//
//nolint:gochecknoglobals
var referenceReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// SanitizeReference turns a file stem into a directory-segment-safe reference.
// The result is NFC normalized so that decomposed names (as produced by some filesystems) map to the same
// reference as their composed form. Applying it twice yields the same value.
func SanitizeReference(name string) string {
	return referenceReplacer.Replace(norm.NFC.String(name))
}

// WorkItem is one discovered video and the reference naming its output subtree.
type WorkItem struct {
	Path      string
	Reference string
}

// NewWorkItem derives the reference from the file name, minus its extension.
func NewWorkItem(path string) WorkItem {
	base := filepath.Base(path)

	return WorkItem{
		Path:      path,
		Reference: SanitizeReference(strings.TrimSuffix(base, filepath.Ext(base))),
	}
}

// Stage names one step of the fixed pipeline.
type Stage string

const (
	StageExtraction    Stage = "extraction"
	StageScoring       Stage = "scoring"
	StageVisualisation Stage = "visualisation"
)

// Stages lists the pipeline in execution order. The order is not configurable.
func Stages() []Stage {
	return []Stage{StageExtraction, StageScoring, StageVisualisation}
}

// StageOutcome records one stage attempt. Output lines are not retained: they were streamed to the run log.
type StageOutcome struct {
	Stage    Stage     `json:"stage"`
	ExitCode int       `json:"exit_code"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	// Skipped is set for stages never invoked because an earlier stage failed under the skip policy.
	Skipped bool `json:"skipped,omitempty"`
}

// Succeeded reports whether the stage ran and exited zero.
func (o StageOutcome) Succeeded() bool {
	return !o.Skipped && o.ExitCode == 0
}

// Duration is the wall time of the attempt.
func (o StageOutcome) Duration() time.Duration {
	return o.Finished.Sub(o.Started)
}

// Verdict is the terminal state of an item.
type Verdict string

const (
	VerdictSucceeded Verdict = "succeeded"
	VerdictFailed    Verdict = "failed"
)

// ItemOutcome is the result of driving one item through the pipeline.
type ItemOutcome struct {
	Item    WorkItem       `json:"item"`
	Stages  []StageOutcome `json:"stages"`
	Verdict Verdict        `json:"verdict"`
}

// FailedStage returns the first stage that did not succeed, if any.
func (o ItemOutcome) FailedStage() (StageOutcome, bool) {
	for _, stage := range o.Stages {
		if !stage.Skipped && stage.ExitCode != 0 {
			return stage, true
		}
	}

	return StageOutcome{}, false
}

// BatchState is the terminal state of a batch.
type BatchState string

const (
	BatchRunning   BatchState = "running"
	BatchCompleted BatchState = "completed"
	BatchAborted   BatchState = "aborted"
)

// BatchRun accumulates the outcome of a batch invocation.
type BatchRun struct {
	ID          string         `json:"id"`
	Started     time.Time      `json:"started"`
	Finished    time.Time      `json:"finished"`
	Root        string         `json:"root"`
	Recursive   bool           `json:"recursive"`
	Settings    map[string]any `json:"settings"`
	Discovered  int            `json:"discovered"`
	Items       []ItemOutcome  `json:"items"`
	Succeeded   int            `json:"succeeded"`
	Failed      int            `json:"failed"`
	FailedPaths []string       `json:"failed_paths"`
	State       BatchState     `json:"state"`
}

// Attempted is the number of items that were started.
func (b *BatchRun) Attempted() int {
	return len(b.Items)
}

// Record appends an item outcome and updates the counters.
func (b *BatchRun) Record(outcome ItemOutcome) {
	b.Items = append(b.Items, outcome)

	if outcome.Verdict == VerdictSucceeded {
		b.Succeeded++

		return
	}

	b.Failed++
	b.FailedPaths = append(b.FailedPaths, outcome.Item.Path)
}

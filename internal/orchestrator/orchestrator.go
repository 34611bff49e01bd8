// Package orchestrator drives work items through the stage pipeline and applies the failure policies.
//
// Items and stages run strictly one after the other. A stage exiting non-zero is a recorded outcome, never an
// error: it marks the item failed and, depending on policy, skips the item's remaining stages or aborts the
// batch.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/farcloser/avsync/internal/config"
	"github.com/farcloser/avsync/internal/integration/ffprobe"
	"github.com/farcloser/avsync/internal/integration/stage"
	"github.com/farcloser/avsync/internal/runlog"
	"github.com/farcloser/avsync/internal/types"
)

const frameRateTolerance = 0.01

// Executor runs one stage command. *stage.Runner implements it.
type Executor interface {
	Run(ctx context.Context, command stage.Command, sink stage.Sink) (types.StageOutcome, error)
}

// Log is the run log the orchestrator writes to. *runlog.Log implements it.
type Log interface {
	stage.Sink
	Block(title string, fields ...runlog.Field)
	Section(title string)
	Now() time.Time
}

// Recorder observes completions. *metrics.Metrics implements it.
type Recorder interface {
	StageFinished(outcome types.StageOutcome)
	ItemFinished(outcome types.ItemOutcome)
}

// Prober inspects an input before its stages run.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.Summary, error)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRecorder registers a completion observer.
func WithRecorder(recorder Recorder) Option {
	return func(o *Orchestrator) {
		o.recorder = recorder
	}
}

// WithProber enables the pre-stage probe.
func WithProber(prober Prober) Option {
	return func(o *Orchestrator) {
		o.prober = prober
	}
}

// Orchestrator owns no mutable configuration: the config is shared read-only.
type Orchestrator struct {
	cfg      *config.Config
	executor Executor
	log      Log
	recorder Recorder
	prober   Prober
}

// New returns an orchestrator writing to log.
func New(cfg *config.Config, executor Executor, log Log, opts ...Option) *Orchestrator {
	orchestrator := &Orchestrator{
		cfg:      cfg,
		executor: executor,
		log:      log,
	}

	for _, opt := range opts {
		opt(orchestrator)
	}

	return orchestrator
}

// RunItem drives a single item through all stages and returns its outcome.
func (o *Orchestrator) RunItem(ctx context.Context, item types.WorkItem) types.ItemOutcome {
	outcome := types.ItemOutcome{Item: item, Verdict: types.VerdictSucceeded}

	o.probe(ctx, item)

	skipRest := false

	for _, command := range stage.Commands(o.cfg, item) {
		if skipRest {
			o.log.Printf("⚠️ skipping %s stage: a previous stage failed", command.Stage)

			skipped := types.StageOutcome{Stage: command.Stage, Skipped: true}
			outcome.Stages = append(outcome.Stages, skipped)
			o.stageFinished(skipped)

			continue
		}

		o.log.Section(fmt.Sprintf("%s stage", command.Stage))

		result, err := o.executor.Run(ctx, command, o.log)
		if err != nil {
			slog.Warn("stage could not start", "stage", command.Stage, "item", item.Path, "error", err)
		}

		outcome.Stages = append(outcome.Stages, result)
		o.stageFinished(result)

		if result.Succeeded() {
			if command.Stage == types.StageScoring {
				o.reportArtifacts(item)
			}

			continue
		}

		outcome.Verdict = types.VerdictFailed

		if o.cfg.Policy.SkipFailedStages {
			skipRest = true
		}
	}

	if o.recorder != nil {
		o.recorder.ItemFinished(outcome)
	}

	return outcome
}

// RunSingle drives one item with its own header and completion blocks.
func (o *Orchestrator) RunSingle(ctx context.Context, item types.WorkItem) types.ItemOutcome {
	fields := []runlog.Field{
		{Key: "videofile", Value: item.Path},
		{Key: "reference", Value: item.Reference},
		{Key: "items", Value: 1},
		{Key: "started", Value: o.log.Now().Format(runlog.TimeLayout)},
	}

	o.log.Block("SyncNet run", append(fields, o.settingFields()...)...)

	outcome := o.RunItem(ctx, item)
	o.completion(outcome, "")

	if outcome.Verdict == types.VerdictSucceeded {
		o.log.Printf("✅ all stages completed for %s", item.Reference)
	} else {
		o.log.Printf("❌ %s finished with failed stages", item.Reference)
	}

	return outcome
}

// RunBatch processes items in order and always ends with a written summary, aborted or not.
func (o *Orchestrator) RunBatch(ctx context.Context, root string, items []types.WorkItem) *types.BatchRun {
	batch := &types.BatchRun{
		ID:          uuid.NewString(),
		Started:     o.log.Now(),
		Root:        root,
		Recursive:   o.cfg.Policy.Recursive,
		Settings:    o.cfg.Snapshot(),
		Discovered:  len(items),
		State:       types.BatchRunning,
		FailedPaths: []string{},
	}

	fields := []runlog.Field{
		{Key: "batch", Value: batch.ID},
		{Key: "input_dir", Value: root},
		{Key: "recursive", Value: batch.Recursive},
		{Key: "items", Value: len(items)},
		{Key: "started", Value: batch.Started.Format(runlog.TimeLayout)},
	}

	o.log.Block("SyncNet batch", append(fields, o.settingFields()...)...)
	o.warnCollisions(items)

	total := len(items)

	for index, item := range items {
		if err := ctx.Err(); err != nil {
			o.log.Printf("⚠️ batch interrupted before item %d/%d: %v", index+1, total, err)
			batch.State = types.BatchAborted

			break
		}

		position := fmt.Sprintf("%d/%d", index+1, total)

		o.log.Block("item "+position,
			runlog.Field{Key: "videofile", Value: item.Path},
			runlog.Field{Key: "reference", Value: item.Reference},
			runlog.Field{Key: "started", Value: o.log.Now().Format(runlog.TimeLayout)},
		)

		outcome := o.RunItem(ctx, item)
		batch.Record(outcome)
		o.completion(outcome, position)

		if outcome.Verdict == types.VerdictFailed && o.cfg.Policy.AbortOnItemFailure {
			o.log.Printf("⚠️ aborting batch: item %s failed and skip-video-failed is set", position)
			batch.State = types.BatchAborted

			break
		}
	}

	if batch.State == types.BatchRunning {
		batch.State = types.BatchCompleted
	}

	batch.Finished = o.log.Now()
	o.summary(batch)

	return batch
}

func (o *Orchestrator) completion(outcome types.ItemOutcome, position string) {
	marker := "✅"
	if outcome.Verdict == types.VerdictFailed {
		marker = "❌"
	}

	title := fmt.Sprintf("%s item %s", marker, outcome.Verdict)
	if position != "" {
		title = fmt.Sprintf("%s item %s %s", marker, position, outcome.Verdict)
	}

	fields := []runlog.Field{
		{Key: "videofile", Value: outcome.Item.Path},
		{Key: "reference", Value: outcome.Item.Reference},
	}

	if failed, ok := outcome.FailedStage(); ok {
		fields = append(fields,
			runlog.Field{Key: "failed_stage", Value: failed.Stage},
			runlog.Field{Key: "exit_code", Value: failed.ExitCode},
		)
	}

	fields = append(fields, runlog.Field{Key: "finished", Value: o.log.Now().Format(runlog.TimeLayout)})

	o.log.Block(title, fields...)
}

func (o *Orchestrator) summary(batch *types.BatchRun) {
	o.log.Block("batch summary",
		runlog.Field{Key: "batch", Value: batch.ID},
		runlog.Field{Key: "state", Value: batch.State},
		runlog.Field{Key: "discovered", Value: batch.Discovered},
		runlog.Field{Key: "attempted", Value: batch.Attempted()},
		runlog.Field{Key: "succeeded", Value: batch.Succeeded},
		runlog.Field{Key: "failed", Value: batch.Failed},
		runlog.Field{Key: "completed", Value: batch.Finished.Format(runlog.TimeLayout)},
	)

	for _, path := range batch.FailedPaths {
		o.log.Printf("❌ %s", path)
	}

	if batch.Failed == 0 && batch.State == types.BatchCompleted {
		o.log.Printf("✅ batch completed: %d/%d items succeeded", batch.Succeeded, batch.Discovered)

		return
	}

	o.log.Printf("❌ batch %s: %d succeeded, %d failed, %d not attempted",
		batch.State, batch.Succeeded, batch.Failed, batch.Discovered-batch.Attempted())
}

func (o *Orchestrator) settingFields() []runlog.Field {
	snapshot := o.cfg.Snapshot()
	fields := make([]runlog.Field, 0, len(snapshot))

	for _, key := range slices.Sorted(maps.Keys(snapshot)) {
		fields = append(fields, runlog.Field{Key: key, Value: snapshot[key]})
	}

	return fields
}

// warnCollisions reports items whose references map to the same output subtree. They are not renamed.
func (o *Orchestrator) warnCollisions(items []types.WorkItem) {
	byReference := map[string][]string{}

	for _, item := range items {
		byReference[item.Reference] = append(byReference[item.Reference], item.Path)
	}

	for _, reference := range slices.Sorted(maps.Keys(byReference)) {
		paths := byReference[reference]
		if len(paths) < 2 {
			continue
		}

		o.log.Printf("⚠️ reference %q is shared by %d items, their outputs will overwrite each other: %s",
			reference, len(paths), strings.Join(paths, ", "))
		slog.Warn("reference collision", "reference", reference, "items", paths)
	}
}

func (o *Orchestrator) stageFinished(outcome types.StageOutcome) {
	if o.recorder != nil {
		o.recorder.StageFinished(outcome)
	}
}

package orchestrator_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/avsync/internal/config"
	"github.com/farcloser/avsync/internal/integration/ffprobe"
	"github.com/farcloser/avsync/internal/integration/stage"
	"github.com/farcloser/avsync/internal/orchestrator"
	"github.com/farcloser/avsync/internal/runlog"
	"github.com/farcloser/avsync/internal/types"
)

type call struct {
	reference string
	stage     types.Stage
}

// fakeExecutor returns scripted exit codes keyed by "<reference>/<stage>"; anything unlisted succeeds.
type fakeExecutor struct {
	codes  map[string]int
	calls  []call
	broken map[string]bool
}

func (f *fakeExecutor) Run(_ context.Context, command stage.Command, sink stage.Sink) (types.StageOutcome, error) {
	reference := command.Args[slices.Index(command.Args, "--reference")+1]
	key := reference + "/" + string(command.Stage)
	f.calls = append(f.calls, call{reference: reference, stage: command.Stage})

	now := time.Now()

	if f.broken[key] {
		return types.StageOutcome{Stage: command.Stage, ExitCode: stage.StartFailureCode, Started: now, Finished: now},
			fmt.Errorf("%w: cannot start", fault.ErrCommandFailure)
	}

	sink.Line(fmt.Sprintf("running %s\n", key))

	return types.StageOutcome{Stage: command.Stage, ExitCode: f.codes[key], Started: now, Finished: now}, nil
}

type countingRecorder struct {
	stages []types.StageOutcome
	items  []types.ItemOutcome
}

func (c *countingRecorder) StageFinished(outcome types.StageOutcome) { c.stages = append(c.stages, outcome) }
func (c *countingRecorder) ItemFinished(outcome types.ItemOutcome)   { c.items = append(c.items, outcome) }

type fakeProber struct {
	summary ffprobe.Summary
	err     error
}

func (f fakeProber) Probe(context.Context, string) (ffprobe.Summary, error) {
	return f.summary, f.err
}

func setup(t *testing.T, mutate func(*config.Settings)) (*config.Config, *runlog.Log) {
	t.Helper()

	settings := config.Default()
	settings.Paths.DataDir = t.TempDir()
	settings.Paths.LogDir = t.TempDir()

	if mutate != nil {
		mutate(&settings)
	}

	cfg, err := config.Build(settings)
	if err != nil {
		t.Fatal(err)
	}

	log, err := runlog.Open(runlog.Options{Dir: cfg.Paths.LogDir, Prefix: "syncnet_batch_automation", Console: &bytes.Buffer{}})
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() { _ = log.Close() })

	return cfg, log
}

func items(names ...string) []types.WorkItem {
	result := make([]types.WorkItem, 0, len(names))
	for _, name := range names {
		result = append(result, types.NewWorkItem("/videos/"+name+".mp4"))
	}

	return result
}

func readLog(t *testing.T, log *runlog.Log) string {
	t.Helper()

	content, err := os.ReadFile(log.Path())
	if err != nil {
		t.Fatal(err)
	}

	return string(content)
}

func TestRunBatch_AllSucceed(t *testing.T) {
	cfg, log := setup(t, nil)
	executor := &fakeExecutor{}

	batch := orchestrator.New(cfg, executor, log).RunBatch(context.Background(), "/videos", items("a", "b", "c"))

	if batch.State != types.BatchCompleted || batch.Succeeded != 3 || batch.Failed != 0 || batch.Attempted() != 3 {
		t.Errorf("batch = %+v", batch)
	}

	if len(executor.calls) != 9 {
		t.Fatalf("executor called %d times, want 9", len(executor.calls))
	}

	for index, got := range executor.calls {
		want := types.Stages()[index%3]
		if got.stage != want {
			t.Errorf("call %d stage = %q, want %q", index, got.stage, want)
		}
	}

	content := readLog(t, log)

	completions := regexp.MustCompile(`(?m)^===== ✅ item \d/3 succeeded =====$`).FindAllString(content, -1)
	if len(completions) != 3 {
		t.Errorf("found %d item completion blocks, want 3:\n%s", len(completions), content)
	}

	summary := content[strings.Index(content, "===== batch summary ====="):]
	for _, want := range []string{"succeeded: 3\n", "failed: 0\n", "discovered: 3\n", "state: completed\n"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}

	if batch.ID == "" {
		t.Error("batch has no ID")
	}
}

func TestRunItem_StageFailurePolicy(t *testing.T) {
	tests := []struct {
		name       string
		skipFailed bool
		wantStages []types.Stage
		wantLast   types.StageOutcome
	}{
		{
			name:       "remaining stages still run",
			skipFailed: false,
			wantStages: []types.Stage{types.StageExtraction, types.StageScoring, types.StageVisualisation},
			wantLast:   types.StageOutcome{Stage: types.StageVisualisation},
		},
		{
			name:       "remaining stages skipped",
			skipFailed: true,
			wantStages: []types.Stage{types.StageExtraction, types.StageScoring},
			wantLast:   types.StageOutcome{Stage: types.StageVisualisation, Skipped: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, log := setup(t, func(s *config.Settings) { s.Policy.SkipFailedStages = tt.skipFailed })
			executor := &fakeExecutor{codes: map[string]int{"A/scoring": 2}}

			outcome := orchestrator.New(cfg, executor, log).RunItem(context.Background(), items("A")[0])

			var invoked []types.Stage
			for _, c := range executor.calls {
				invoked = append(invoked, c.stage)
			}

			if !slices.Equal(invoked, tt.wantStages) {
				t.Errorf("invoked %v, want %v", invoked, tt.wantStages)
			}

			if outcome.Verdict != types.VerdictFailed {
				t.Errorf("Verdict = %q", outcome.Verdict)
			}

			if len(outcome.Stages) != 3 {
				t.Fatalf("recorded %d stages", len(outcome.Stages))
			}

			last := outcome.Stages[2]
			if last.Stage != tt.wantLast.Stage || last.Skipped != tt.wantLast.Skipped {
				t.Errorf("last stage = %+v", last)
			}

			failed, ok := outcome.FailedStage()
			if !ok || failed.Stage != types.StageScoring || failed.ExitCode != 2 {
				t.Errorf("FailedStage() = %+v, %v", failed, ok)
			}
		})
	}
}

func TestRunBatch_AbortOnItemFailure(t *testing.T) {
	cfg, log := setup(t, func(s *config.Settings) { s.Policy.AbortOnItemFailure = true })
	executor := &fakeExecutor{codes: map[string]int{"first/extraction": 1}}

	batch := orchestrator.New(cfg, executor, log).RunBatch(context.Background(), "/videos", items("first", "second"))

	if batch.State != types.BatchAborted {
		t.Errorf("State = %q", batch.State)
	}

	if batch.Attempted() != 1 || batch.Failed != 1 || batch.Discovered != 2 {
		t.Errorf("batch = %+v", batch)
	}

	for _, c := range executor.calls {
		if c.reference == "second" {
			t.Fatal("second item was started")
		}
	}

	content := readLog(t, log)
	if !strings.Contains(content, "attempted: 1\n") || !strings.Contains(content, "❌ /videos/first.mp4") {
		t.Errorf("summary does not report the abort:\n%s", content)
	}
}

func TestRunBatch_ContinuesPastFailedItems(t *testing.T) {
	cfg, log := setup(t, nil)
	executor := &fakeExecutor{codes: map[string]int{"b/visualisation": 4}}

	batch := orchestrator.New(cfg, executor, log).RunBatch(context.Background(), "/videos", items("a", "b", "c"))

	if batch.State != types.BatchCompleted || batch.Succeeded != 2 || batch.Failed != 1 {
		t.Errorf("batch = %+v", batch)
	}

	if !slices.Equal(batch.FailedPaths, []string{"/videos/b.mp4"}) {
		t.Errorf("FailedPaths = %v", batch.FailedPaths)
	}
}

func TestRunItem_StartFailureIsAbsorbed(t *testing.T) {
	cfg, log := setup(t, nil)
	executor := &fakeExecutor{broken: map[string]bool{"x/extraction": true}}
	recorder := &countingRecorder{}

	outcome := orchestrator.New(cfg, executor, log, orchestrator.WithRecorder(recorder)).
		RunItem(context.Background(), items("x")[0])

	if outcome.Verdict != types.VerdictFailed {
		t.Errorf("Verdict = %q", outcome.Verdict)
	}

	if outcome.Stages[0].ExitCode != stage.StartFailureCode {
		t.Errorf("extraction exit = %d", outcome.Stages[0].ExitCode)
	}

	if len(recorder.stages) != 3 || len(recorder.items) != 1 {
		t.Errorf("recorder saw %d stages, %d items", len(recorder.stages), len(recorder.items))
	}
}

func TestRunBatch_InterruptedContext(t *testing.T) {
	cfg, log := setup(t, nil)
	executor := &fakeExecutor{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch := orchestrator.New(cfg, executor, log).RunBatch(ctx, "/videos", items("a"))

	if batch.State != types.BatchAborted || batch.Attempted() != 0 || len(executor.calls) != 0 {
		t.Errorf("batch = %+v, calls = %d", batch, len(executor.calls))
	}
}

func TestRunBatch_WarnsOnReferenceCollision(t *testing.T) {
	cfg, log := setup(t, nil)

	collide := []types.WorkItem{
		types.NewWorkItem("/videos/a/clip.mp4"),
		types.NewWorkItem("/videos/b/clip.mkv"),
	}

	orchestrator.New(cfg, &fakeExecutor{}, log).RunBatch(context.Background(), "/videos", collide)

	if !strings.Contains(readLog(t, log), `⚠️ reference "clip" is shared by 2 items`) {
		t.Error("collision warning missing")
	}
}

func TestRunItem_Probe(t *testing.T) {
	tests := []struct {
		name   string
		prober fakeProber
		want   string
	}{
		{"frame rate mismatch", fakeProber{summary: ffprobe.Summary{FrameRate: 29.97, HasAudio: true}}, "offsets are computed at 25 fps"},
		{"no audio", fakeProber{summary: ffprobe.Summary{FrameRate: 25}}, "has no audio stream"},
		{"probe error", fakeProber{err: errors.New("unreadable")}, "⚠️ probe failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, log := setup(t, nil)
			executor := &fakeExecutor{}

			outcome := orchestrator.New(cfg, executor, log, orchestrator.WithProber(tt.prober)).
				RunItem(context.Background(), items("p")[0])

			if outcome.Verdict != types.VerdictSucceeded || len(executor.calls) != 3 {
				t.Errorf("probe result affected the item: %+v", outcome)
			}

			if !strings.Contains(readLog(t, log), tt.want) {
				t.Errorf("log missing %q", tt.want)
			}
		})
	}
}

func TestRunSingle(t *testing.T) {
	cfg, log := setup(t, nil)

	outcome := orchestrator.New(cfg, &fakeExecutor{}, log).RunSingle(context.Background(), items("solo")[0])
	if outcome.Verdict != types.VerdictSucceeded {
		t.Errorf("Verdict = %q", outcome.Verdict)
	}

	content := readLog(t, log)
	for _, want := range []string{"===== SyncNet run =====", "reference: solo\n", "items: 1\n", "frame_rate: 25\n", "===== ✅ item succeeded ====="} {
		if !strings.Contains(content, want) {
			t.Errorf("log missing %q", want)
		}
	}
}

func TestExitCode(t *testing.T) {
	failedWith := func(code int) types.ItemOutcome {
		return types.ItemOutcome{
			Verdict: types.VerdictFailed,
			Stages: []types.StageOutcome{
				{Stage: types.StageExtraction},
				{Stage: types.StageScoring, ExitCode: code},
				{Stage: types.StageVisualisation, Skipped: true},
			},
		}
	}

	tests := []struct {
		name       string
		outcome    types.ItemOutcome
		skipFailed bool
		want       int
	}{
		{"success", types.ItemOutcome{Verdict: types.VerdictSucceeded, Stages: []types.StageOutcome{{}}}, true, 0},
		{"failure without skip", failedWith(3), false, 0},
		{"failure with skip", failedWith(3), true, 3},
		{"start failure with skip", failedWith(stage.StartFailureCode), true, 1},
	}
	for _, tt := range tests {
		if got := orchestrator.ExitCode(tt.outcome, tt.skipFailed); got != tt.want {
			t.Errorf("%s: ExitCode() = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestWriteManifest(t *testing.T) {
	cfg, log := setup(t, nil)

	batch := orchestrator.New(cfg, &fakeExecutor{}, log).RunBatch(context.Background(), "/videos", items("m"))

	path := orchestrator.ManifestPath(log.Path())
	if !strings.HasSuffix(path, ".json") || strings.HasSuffix(path, ".log.json") {
		t.Fatalf("ManifestPath() = %q", path)
	}

	if err := orchestrator.WriteManifest(path, batch); err != nil {
		t.Fatalf("WriteManifest() error = %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var decoded types.BatchRun
	if err := json.Unmarshal(content, &decoded); err != nil {
		t.Fatal(err)
	}

	if decoded.ID != batch.ID || decoded.Succeeded != 1 || len(decoded.Items) != 1 || decoded.State != types.BatchCompleted {
		t.Errorf("decoded manifest = %+v", decoded)
	}
}

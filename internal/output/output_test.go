package output_test

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/farcloser/avsync"
	"github.com/farcloser/avsync/internal/output"
	"github.com/farcloser/avsync/internal/results"
)

func sampleSummary() *avsync.Summary {
	distance := 6.5

	return &avsync.Summary{
		Groups: []avsync.Group{
			{
				Cardinality: 2,
				Runs:        []string{"a", "b"},
				Ranks: []avsync.RankMean{
					{Rank: 0, OffsetFrames: 4.5, OffsetSeconds: 0.18, Confidence: 0.855, AvgMinDist: &distance, Participants: 2},
					{Rank: 1, OffsetFrames: -2.5, OffsetSeconds: -0.1, Confidence: 0.35, Participants: 2},
				},
			},
		},
		Excluded: []string{"broken"},
	}
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer

	generated := time.Date(2024, time.March, 9, 14, 5, 7, 0, time.UTC)
	if err := output.WriteSummary(&buf, sampleSummary(), "/data/work", generated); err != nil {
		t.Fatalf("WriteSummary() error = %v", err)
	}

	content := buf.String()

	for _, want := range []string{
		"generated: 2024-03-09T14:05:07Z\n",
		"output root: /data/work\n",
		"note: " + output.PairingNote + "\n",
		"excluded (no valid records): broken\n",
		strings.Repeat("=", 60) + "\nline count: 2\nruns (2): a, b\n",
		"rank\toffset_frames\toffset_seconds\tconfidence\tavg_min_dist\truns\n",
		"1\t4.5000\t0.1800\t0.8550\t6.5000\t2\n",
		"2\t-2.5000\t-0.1000\t0.3500\t-\t2\n",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("summary missing %q:\n%s", want, content)
		}
	}
}

func TestWriteSummaryFile(t *testing.T) {
	dir := t.TempDir()

	path, err := output.WriteSummaryFile(dir, sampleSummary(), time.Now())
	if err != nil {
		t.Fatalf("WriteSummaryFile() error = %v", err)
	}

	if !strings.HasSuffix(path, output.SummaryFile) {
		t.Errorf("path = %q", path)
	}

	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("artifact not written: %v", err)
	}
}

func TestSummaryToMap(t *testing.T) {
	meta := output.SummaryToMap(sampleSummary())

	if meta["runs"] != 2 {
		t.Errorf("runs = %v", meta["runs"])
	}

	groups, ok := meta["groups"].([]any)
	if !ok || len(groups) != 1 {
		t.Fatalf("groups = %#v", meta["groups"])
	}

	ranks := groups[0].(map[string]any)["ranks"].([]any)
	first := ranks[0].(map[string]any)
	second := ranks[1].(map[string]any)

	if first["rank"] != 1 || first["avg_min_dist"] != 6.5 {
		t.Errorf("first rank = %v", first)
	}

	if _, present := second["avg_min_dist"]; present {
		t.Errorf("second rank should omit avg_min_dist: %v", second)
	}
}

func TestParseResultToMap(t *testing.T) {
	meta := output.ParseResultToMap(results.ParseResult{Absent: true, AbsentReason: "no valid data rows"})
	if meta["absent"] != "no valid data rows" || meta["records"] != 0 {
		t.Errorf("meta = %v", meta)
	}
}

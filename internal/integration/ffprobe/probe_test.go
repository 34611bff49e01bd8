package ffprobe_test

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/avsync/internal/integration/binary"
	"github.com/farcloser/avsync/internal/integration/ffprobe"
)

const sample = `{
  "streams": [
    {"index": 0, "codec_name": "aac", "codec_type": "audio", "sample_rate": "48000", "r_frame_rate": "0/0"},
    {"index": 1, "codec_name": "h264", "codec_type": "video", "width": 1280, "height": 720,
     "r_frame_rate": "30000/1001", "avg_frame_rate": "30000/1001", "duration": "12.012000"}
  ],
  "format": {"filename": "clip.mp4", "nb_streams": 2, "format_name": "mov,mp4,m4a,3gp,3g2,mj2",
             "duration": "12.032000", "probe_score": 100}
}`

func TestSummarize(t *testing.T) {
	result, err := ffprobe.Decode([]byte(sample))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	summary, err := result.Summarize()
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	if summary.Codec != "h264" || summary.Width != 1280 || summary.Height != 720 {
		t.Errorf("summary = %+v", summary)
	}

	if math.Abs(summary.FrameRate-29.97) > 0.001 {
		t.Errorf("FrameRate = %v", summary.FrameRate)
	}

	if summary.Duration != 12.032 {
		t.Errorf("Duration = %v, want container duration", summary.Duration)
	}

	if !summary.HasAudio {
		t.Error("HasAudio = false")
	}
}

func TestSummarize_NoVideo(t *testing.T) {
	result, err := ffprobe.Decode([]byte(`{"streams":[{"codec_type":"audio"}],"format":{}}`))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := result.Summarize(); !errors.Is(err, ffprobe.ErrNoVideoStream) {
		t.Errorf("Summarize() error = %v", err)
	}
}

func TestDecode_InvalidJSON(t *testing.T) {
	if _, err := ffprobe.Decode([]byte("{")); !errors.Is(err, fault.ErrInvalidJSON) {
		t.Errorf("Decode() error = %v", err)
	}
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		rate    string
		want    float64
		wantErr bool
	}{
		{"25/1", 25, false},
		{"24", 24, false},
		{"50/2", 25, false},
		{"0/0", 0, true},
		{"25/0", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ffprobe.ParseRate(tt.rate)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRate(%q) error = %v", tt.rate, err)

			continue
		}

		if got != tt.want {
			t.Errorf("ParseRate(%q) = %v, want %v", tt.rate, got, tt.want)
		}
	}
}

func TestProbe_NotAMediaFile(t *testing.T) {
	if _, found := binary.Available("ffprobe"); !found {
		t.Skip("ffprobe not installed")
	}

	path := filepath.Join(t.TempDir(), "fake.mp4")
	if err := os.WriteFile(path, []byte("not a video"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := ffprobe.Probe(context.Background(), path); !errors.Is(err, fault.ErrCommandFailure) {
		t.Errorf("Probe() error = %v", err)
	}
}

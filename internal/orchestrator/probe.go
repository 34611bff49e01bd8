package orchestrator

import (
	"context"
	"math"
	"os"

	"github.com/farcloser/avsync/internal/integration/ffprobe"
	"github.com/farcloser/avsync/internal/types"
)

// FFProbe probes inputs with the ffprobe binary.
type FFProbe struct{}

// Probe implements Prober.
func (FFProbe) Probe(ctx context.Context, path string) (ffprobe.Summary, error) {
	result, err := ffprobe.Probe(ctx, path)
	if err != nil {
		return ffprobe.Summary{}, err
	}

	return result.Summarize()
}

// probe logs the input's properties. Failures are warnings: the stages decide whether the file is usable.
func (o *Orchestrator) probe(ctx context.Context, item types.WorkItem) {
	if o.prober == nil {
		return
	}

	summary, err := o.prober.Probe(ctx, item.Path)
	if err != nil {
		o.log.Printf("⚠️ probe failed for %s: %v", item.Path, err)

		return
	}

	o.log.Printf("📌 %s: %s %dx%d, %.3f fps, %.2fs, audio: %t",
		item.Reference, summary.Codec, summary.Width, summary.Height,
		summary.FrameRate, summary.Duration, summary.HasAudio)

	if math.Abs(summary.FrameRate-float64(o.cfg.FrameRate)) > frameRateTolerance {
		o.log.Printf("⚠️ %s is %.3f fps but offsets are computed at %d fps", item.Reference, summary.FrameRate, o.cfg.FrameRate)
	}

	if !summary.HasAudio {
		o.log.Printf("⚠️ %s has no audio stream", item.Reference)
	}
}

// reportArtifacts notes the scoring stage's outputs. The distance matrices are opaque, only their presence is
// checked.
func (o *Orchestrator) reportArtifacts(item types.WorkItem) {
	for _, path := range []string{o.cfg.OffsetsPath(item.Reference), o.cfg.DistancesPath(item.Reference)} {
		if _, err := os.Stat(path); err != nil {
			o.log.Printf("⚠️ expected scoring output missing: %s", path)

			continue
		}

		o.log.Printf("📌 scoring output: %s", path)
	}
}

//nolint:tagliatelle
package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/avsync/internal/integration/binary"
)

// Result contains the marshalled output of ffprobe.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream holds the fields of interest for both video and audio streams.
type Stream struct {
	Index        int    `json:"index"`
	CodecName    string `json:"codec_name"`               // h264
	CodecType    string `json:"codec_type"`               // video, audio
	Width        int    `json:"width,omitempty"`          // video only
	Height       int    `json:"height,omitempty"`         // video only
	RFrameRate   string `json:"r_frame_rate,omitempty"`   // "25/1", "30000/1001"; "0/0" for audio
	AvgFrameRate string `json:"avg_frame_rate,omitempty"` // averaged over the stream, differs from r_frame_rate on VFR sources
	SampleRate   string `json:"sample_rate,omitempty"`    // audio only
	Duration     string `json:"duration,omitempty"`       // seconds as float string
	NbFrames     string `json:"nb_frames,omitempty"`
}

// Format represents container-level information.
type Format struct {
	Filename   string `json:"filename"`
	NbStreams  int    `json:"nb_streams"`
	FormatName string `json:"format_name"`        // "mov,mp4,m4a,3gp,3g2,mj2"
	Duration   string `json:"duration,omitempty"` // "310.666667"
	ProbeScore int    `json:"probe_score"`
}

// Summary is the condensed view logged before an item's stages run.
type Summary struct {
	Container string
	Codec     string
	Width     int
	Height    int
	FrameRate float64
	Duration  float64
	HasAudio  bool
}

// Probe runs ffprobe on the given file path and returns parsed metadata.
// It requires ffprobe to be available in the system PATH.
func Probe(ctx context.Context, filePath string) (*Result, error) {
	slog.Debug("ffprobe.Probe", "file path", filePath)

	ffprobePath, found := binary.Available(name)
	if !found {
		return nil, fmt.Errorf("%w: %s", fault.ErrMissingRequirements, name)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // filePath is intentionally user-provided input for probing media files
	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	)

	var stderr bytes.Buffer

	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: after %v", fault.ErrTimeout, timeout)
		}

		return nil, fmt.Errorf("%w: %s: %w", fault.ErrCommandFailure, stderr.String(), err)
	}

	return Decode(output)
}

// Decode parses ffprobe JSON output.
func Decode(output []byte) (*Result, error) {
	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrInvalidJSON, err)
	}

	return &result, nil
}

// Summarize extracts the first video stream's geometry and rate.
func (r *Result) Summarize() (Summary, error) {
	summary := Summary{Container: r.Format.FormatName}

	var video *Stream

	for index := range r.Streams {
		switch r.Streams[index].CodecType {
		case "video":
			if video == nil {
				video = &r.Streams[index]
			}
		case "audio":
			summary.HasAudio = true
		}
	}

	if video == nil {
		return summary, ErrNoVideoStream
	}

	summary.Codec = video.CodecName
	summary.Width = video.Width
	summary.Height = video.Height

	rate, err := ParseRate(video.RFrameRate)
	if err != nil {
		return summary, err
	}

	summary.FrameRate = rate

	duration := r.Format.Duration
	if duration == "" {
		duration = video.Duration
	}

	if duration != "" {
		// An unparsable duration is left at zero; it is informational only.
		summary.Duration, _ = strconv.ParseFloat(duration, 64)
	}

	return summary, nil
}

// ParseRate converts an ffprobe rational ("30000/1001") or decimal rate to frames per second.
func ParseRate(rate string) (float64, error) {
	numerator, denominator, isRational := strings.Cut(rate, "/")
	if !isRational {
		value, err := strconv.ParseFloat(rate, 64)
		if err != nil || value <= 0 || math.IsInf(value, 0) {
			return 0, fmt.Errorf("%w: %q", errFrameRate, rate)
		}

		return value, nil
	}

	num, err := strconv.ParseFloat(numerator, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errFrameRate, rate)
	}

	den, err := strconv.ParseFloat(denominator, 64)
	if err != nil || den == 0 || num <= 0 {
		return 0, fmt.Errorf("%w: %q", errFrameRate, rate)
	}

	return num / den, nil
}

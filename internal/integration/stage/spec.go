// Package stage builds and runs the external pipeline stage programs.
package stage

import (
	"strconv"
	"strings"

	"github.com/farcloser/avsync/internal/config"
	"github.com/farcloser/avsync/internal/types"
)

// Command is a fully-formed stage invocation.
type Command struct {
	Stage   types.Stage
	Program string
	Args    []string
}

// String echoes the command line as written to the run log.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quote(c.Program))

	for _, arg := range c.Args {
		parts = append(parts, quote(arg))
	}

	return strings.Join(parts, " ")
}

// Commands returns the invocations for an item, in pipeline order.
func Commands(cfg *config.Config, item types.WorkItem) []Command {
	stages := types.Stages()
	commands := make([]Command, 0, len(stages))

	for _, stage := range stages {
		commands = append(commands, Build(cfg, stage, item))
	}

	return commands
}

// Build returns the invocation of one stage for an item.
// Every stage receives the item, its reference and the data directory, followed by its own parameters.
func Build(cfg *config.Config, stage types.Stage, item types.WorkItem) Command {
	args := []string{
		"--videofile", item.Path,
		"--reference", item.Reference,
		"--data_dir", cfg.Paths.DataDir,
	}

	switch stage {
	case types.StageExtraction:
		args = append(args,
			"--facedet_scale", formatFloat(cfg.Extraction.FaceDetScale),
			"--crop_scale", formatFloat(cfg.Extraction.CropScale),
			"--min_track", strconv.Itoa(cfg.Extraction.MinTrack),
			"--frame_rate", strconv.Itoa(cfg.FrameRate),
			"--num_failed_det", strconv.Itoa(cfg.Extraction.NumFailedDet),
			"--min_face_size", strconv.Itoa(cfg.Extraction.MinFaceSize),
		)
	case types.StageScoring:
		args = append(args,
			"--initial_model", cfg.Scoring.InitialModel,
			"--batch_size", strconv.Itoa(cfg.Scoring.BatchSize),
			"--vshift", strconv.Itoa(cfg.Scoring.VShift),
		)
	case types.StageVisualisation:
		args = append(args, "--frame_rate", strconv.Itoa(cfg.FrameRate))
	}

	script := cfg.Script(stage)

	if cfg.Programs.Interpreter == "" {
		return Command{Stage: stage, Program: script, Args: args}
	}

	return Command{
		Stage:   stage,
		Program: cfg.Programs.Interpreter,
		Args:    append([]string{script}, args...),
	}
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func quote(arg string) string {
	if arg == "" || strings.ContainsAny(arg, " \t\n'\"\\$`") {
		return strconv.Quote(arg)
	}

	return arg
}

package main

import (
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/avsync/internal/config"
)

const (
	flagConfig        = "config"
	flagDataDir       = "data_dir"
	flagLogDir        = "log-dir"
	flagInterpreter   = "interpreter"
	flagScriptDir     = "script-dir"
	flagNoProbe       = "no-probe"
	flagMetricsFile   = "metrics-file"
	flagFaceDetScale  = "facedet_scale"
	flagCropScale     = "crop_scale"
	flagMinTrack      = "min_track"
	flagFrameRate     = "frame_rate"
	flagNumFailedDet  = "num_failed_det"
	flagMinFaceSize   = "min_face_size"
	flagInitialModel  = "initial_model"
	flagBatchSize     = "batch_size"
	flagVShift        = "vshift"
	flagSkipFailed    = "skip-failed"
	flagSkipVideo     = "skip-video-failed"
	flagNoRecursive   = "no-recursive"
	flagVideoFile     = "videofile"
	flagReference     = "reference"
	flagInputDir      = "input_dir"
	envPrefix         = "AVSYNC_"
	categoryStage     = "Stage parameters"
	categoryExecution = "Execution"
)

// commonFlags are accepted by both run and batch. Defaults shown in help are the built-in ones; a config file
// only yields to flags that are explicitly set.
func commonFlags() []cli.Flag {
	defaults := config.Default()

	return []cli.Flag{
		&cli.StringFlag{
			Name:     flagConfig,
			Aliases:  []string{"c"},
			Usage:    "TOML configuration file",
			Sources:  cli.EnvVars(envPrefix + "CONFIG"),
			Category: categoryExecution,
		},
		&cli.StringFlag{
			Name:     flagDataDir,
			Usage:    "Output root shared by all stages",
			Value:    defaults.Paths.DataDir,
			Sources:  cli.EnvVars(envPrefix + "DATA_DIR"),
			Category: categoryExecution,
		},
		&cli.StringFlag{
			Name:     flagLogDir,
			Usage:    "Directory receiving run logs",
			Value:    defaults.Paths.LogDir,
			Sources:  cli.EnvVars(envPrefix + "LOG_DIR"),
			Category: categoryExecution,
		},
		&cli.StringFlag{
			Name:     flagInterpreter,
			Usage:    "Interpreter used to launch the stage scripts; empty executes them directly",
			Value:    defaults.Programs.Interpreter,
			Sources:  cli.EnvVars(envPrefix + "INTERPRETER"),
			Category: categoryExecution,
		},
		&cli.StringFlag{
			Name:     flagScriptDir,
			Usage:    "Directory holding the stage scripts",
			Value:    defaults.Programs.ScriptDir,
			Sources:  cli.EnvVars(envPrefix + "SCRIPT_DIR"),
			Category: categoryExecution,
		},
		&cli.BoolFlag{
			Name:     flagNoProbe,
			Usage:    "Do not inspect inputs with ffprobe before running the stages",
			Category: categoryExecution,
		},
		&cli.StringFlag{
			Name:     flagMetricsFile,
			Usage:    "Write Prometheus metrics to this file when done",
			Sources:  cli.EnvVars(envPrefix + "METRICS_FILE"),
			Category: categoryExecution,
		},
		&cli.BoolFlag{
			Name:     flagSkipFailed,
			Usage:    "Skip the remaining stages of a video after a stage fails",
			Category: categoryExecution,
		},
		&cli.FloatFlag{
			Name:     flagFaceDetScale,
			Usage:    "Face detection scale",
			Value:    defaults.Extraction.FaceDetScale,
			Category: categoryStage,
		},
		&cli.FloatFlag{
			Name:     flagCropScale,
			Usage:    "Scale of the bounding box crop",
			Value:    defaults.Extraction.CropScale,
			Category: categoryStage,
		},
		&cli.IntFlag{
			Name:     flagMinTrack,
			Usage:    "Minimum face track length in frames",
			Value:    defaults.Extraction.MinTrack,
			Category: categoryStage,
		},
		&cli.IntFlag{
			Name:     flagFrameRate,
			Usage:    "Frame rate the videos are converted to",
			Value:    defaults.FrameRate,
			Sources:  cli.EnvVars(envPrefix + "FRAME_RATE"),
			Category: categoryStage,
		},
		&cli.IntFlag{
			Name:     flagNumFailedDet,
			Usage:    "Missed detections allowed before a track is stopped",
			Value:    defaults.Extraction.NumFailedDet,
			Category: categoryStage,
		},
		&cli.IntFlag{
			Name:     flagMinFaceSize,
			Usage:    "Minimum face size in pixels",
			Value:    defaults.Extraction.MinFaceSize,
			Category: categoryStage,
		},
		&cli.StringFlag{
			Name:     flagInitialModel,
			Usage:    "SyncNet model weights",
			Value:    defaults.Scoring.InitialModel,
			Sources:  cli.EnvVars(envPrefix + "INITIAL_MODEL"),
			Category: categoryStage,
		},
		&cli.IntFlag{
			Name:     flagBatchSize,
			Usage:    "Scoring batch size",
			Value:    defaults.Scoring.BatchSize,
			Category: categoryStage,
		},
		&cli.IntFlag{
			Name:     flagVShift,
			Usage:    "Maximum audio-video shift searched, in frames",
			Value:    defaults.Scoring.VShift,
			Category: categoryStage,
		},
	}
}

// loadConfig resolves defaults, the optional config file, then environment and explicit flags.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	settings := config.Default()

	if path := cmd.String(flagConfig); path != "" {
		if err := config.LoadFile(path, &settings); err != nil {
			return nil, err
		}
	}

	overlay(cmd, &settings)

	cfg, err := config.Build(settings)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

//nolint:cyclop // one branch per flag
func overlay(cmd *cli.Command, settings *config.Settings) {
	if cmd.IsSet(flagDataDir) {
		settings.Paths.DataDir = cmd.String(flagDataDir)
	}

	if cmd.IsSet(flagLogDir) {
		settings.Paths.LogDir = cmd.String(flagLogDir)
	}

	if cmd.IsSet(flagInterpreter) {
		settings.Programs.Interpreter = cmd.String(flagInterpreter)
	}

	if cmd.IsSet(flagScriptDir) {
		settings.Programs.ScriptDir = cmd.String(flagScriptDir)
	}

	if cmd.IsSet(flagFaceDetScale) {
		settings.Extraction.FaceDetScale = cmd.Float(flagFaceDetScale)
	}

	if cmd.IsSet(flagCropScale) {
		settings.Extraction.CropScale = cmd.Float(flagCropScale)
	}

	if cmd.IsSet(flagMinTrack) {
		settings.Extraction.MinTrack = cmd.Int(flagMinTrack)
	}

	if cmd.IsSet(flagFrameRate) {
		settings.FrameRate = cmd.Int(flagFrameRate)
	}

	if cmd.IsSet(flagNumFailedDet) {
		settings.Extraction.NumFailedDet = cmd.Int(flagNumFailedDet)
	}

	if cmd.IsSet(flagMinFaceSize) {
		settings.Extraction.MinFaceSize = cmd.Int(flagMinFaceSize)
	}

	if cmd.IsSet(flagInitialModel) {
		settings.Scoring.InitialModel = cmd.String(flagInitialModel)
	}

	if cmd.IsSet(flagBatchSize) {
		settings.Scoring.BatchSize = cmd.Int(flagBatchSize)
	}

	if cmd.IsSet(flagVShift) {
		settings.Scoring.VShift = cmd.Int(flagVShift)
	}

	if cmd.Bool(flagSkipFailed) {
		settings.Policy.SkipFailedStages = true
	}

	if cmd.Bool(flagNoProbe) {
		settings.Policy.Probe = false
	}

	// Batch only.
	if cmd.Bool(flagSkipVideo) {
		settings.Policy.AbortOnItemFailure = true
	}

	if cmd.Bool(flagNoRecursive) {
		settings.Policy.Recursive = false
	}
}

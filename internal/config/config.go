package config

import (
	"path/filepath"

	"github.com/farcloser/avsync/internal/types"
)

// Paths locates the output tree and the run logs.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Programs describes how the stage programs are launched. When Interpreter is empty the scripts are executed
// directly.
type Programs struct {
	Interpreter   string `toml:"interpreter"`
	ScriptDir     string `toml:"script_dir"`
	Extraction    string `toml:"extraction"`
	Scoring       string `toml:"scoring"`
	Visualisation string `toml:"visualisation"`
}

// Extraction holds the face-track extraction stage parameters.
type Extraction struct {
	FaceDetScale float64 `toml:"facedet_scale"`
	CropScale    float64 `toml:"crop_scale"`
	MinTrack     int     `toml:"min_track"`
	NumFailedDet int     `toml:"num_failed_det"`
	MinFaceSize  int     `toml:"min_face_size"`
}

// Scoring holds the sync scoring stage parameters.
type Scoring struct {
	InitialModel string `toml:"initial_model"`
	BatchSize    int    `toml:"batch_size"`
	VShift       int    `toml:"vshift"`
}

// Policy controls discovery and failure propagation.
type Policy struct {
	// Recursive discovery descends into subdirectories of the input root.
	Recursive bool `toml:"recursive"`
	// SkipFailedStages stops the remaining stages of an item after its first failing stage.
	SkipFailedStages bool `toml:"skip_failed"`
	// AbortOnItemFailure stops the batch after the first failed item.
	AbortOnItemFailure bool `toml:"skip_video_failed"`
	// Probe runs ffprobe on each item before its stages, when available.
	Probe bool `toml:"probe"`
}

// Settings are the user-supplied values, as decoded from a config file and overlaid with flags.
type Settings struct {
	Paths      Paths      `toml:"paths"`
	Programs   Programs   `toml:"programs"`
	Extraction Extraction `toml:"extraction"`
	Scoring    Scoring    `toml:"scoring"`
	FrameRate  int        `toml:"frame_rate"`
	Policy     Policy     `toml:"policy"`
}

// Config is the validated, immutable configuration shared by discovery, the orchestrator and the stage runner.
// Obtain it through Build and pass it by pointer; nothing mutates it afterwards.
type Config struct {
	Settings

	// Derived at build time from Paths.DataDir.
	AviDir  string
	TmpDir  string
	WorkDir string
	CropDir string
}

// Build validates settings and computes the derived directories.
func Build(settings Settings) (*Config, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	dataDir := filepath.Clean(settings.Paths.DataDir)
	settings.Paths.DataDir = dataDir

	return &Config{
		Settings: settings,
		AviDir:   filepath.Join(dataDir, aviDirName),
		TmpDir:   filepath.Join(dataDir, tmpDirName),
		WorkDir:  filepath.Join(dataDir, WorkDirName),
		CropDir:  filepath.Join(dataDir, cropDirName),
	}, nil
}

// Script returns the path of the program implementing a stage.
func (c *Config) Script(stage types.Stage) string {
	var script string

	switch stage {
	case types.StageExtraction:
		script = c.Programs.Extraction
	case types.StageScoring:
		script = c.Programs.Scoring
	case types.StageVisualisation:
		script = c.Programs.Visualisation
	}

	if filepath.IsAbs(script) || c.Programs.ScriptDir == "" {
		return script
	}

	return filepath.Join(c.Programs.ScriptDir, script)
}

// OffsetsPath is where the scoring stage writes the offsets file of an item.
func (c *Config) OffsetsPath(reference string) string {
	return filepath.Join(c.WorkDir, reference, OffsetsFile)
}

// DistancesPath is where the scoring stage writes the serialized distance matrices of an item.
func (c *Config) DistancesPath(reference string) string {
	return filepath.Join(c.WorkDir, reference, DistancesFile)
}

// Snapshot returns the effective settings as a flat map, for log headers and batch manifests.
func (c *Config) Snapshot() map[string]any {
	return map[string]any{
		"data_dir":          c.Paths.DataDir,
		"log_dir":           c.Paths.LogDir,
		"interpreter":       c.Programs.Interpreter,
		"script_dir":        c.Programs.ScriptDir,
		"facedet_scale":     c.Extraction.FaceDetScale,
		"crop_scale":        c.Extraction.CropScale,
		"min_track":         c.Extraction.MinTrack,
		"num_failed_det":    c.Extraction.NumFailedDet,
		"min_face_size":     c.Extraction.MinFaceSize,
		"initial_model":     c.Scoring.InitialModel,
		"batch_size":        c.Scoring.BatchSize,
		"vshift":            c.Scoring.VShift,
		"frame_rate":        c.FrameRate,
		"recursive":         c.Policy.Recursive,
		"skip_failed":       c.Policy.SkipFailedStages,
		"skip_video_failed": c.Policy.AbortOnItemFailure,
	}
}

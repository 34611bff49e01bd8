package config

// Defaults match the stage programs' own argument defaults.
const (
	defaultDataDir      = "data/work"
	defaultLogDir       = "logs"
	defaultInterpreter  = "python3"
	defaultFaceDetScale = 0.25
	defaultCropScale    = 0.40
	defaultMinTrack     = 100
	defaultNumFailedDet = 25
	defaultMinFaceSize  = 100
	defaultInitialModel = "data/syncnet_v2.model"
	defaultBatchSize    = 20
	defaultVShift       = 15
	defaultFrameRate    = 25

	extractionScript    = "run_pipeline.py"
	scoringScript       = "run_syncnet.py"
	visualisationScript = "run_visualise.py"
)

// Derived directory names under the data directory, shared with the stage programs.
const (
	aviDirName  = "pyavi"
	tmpDirName  = "pytmp"
	WorkDirName = "pywork"
	cropDirName = "pycrop"
)

// Per-item artifact names written by the scoring stage.
const (
	OffsetsFile   = "offsets.txt"
	DistancesFile = "activesd.pckl"
)

// Default returns the settings used when neither a config file nor flags override them.
func Default() Settings {
	return Settings{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Programs: Programs{
			Interpreter:   defaultInterpreter,
			ScriptDir:     ".",
			Extraction:    extractionScript,
			Scoring:       scoringScript,
			Visualisation: visualisationScript,
		},
		Extraction: Extraction{
			FaceDetScale: defaultFaceDetScale,
			CropScale:    defaultCropScale,
			MinTrack:     defaultMinTrack,
			NumFailedDet: defaultNumFailedDet,
			MinFaceSize:  defaultMinFaceSize,
		},
		Scoring: Scoring{
			InitialModel: defaultInitialModel,
			BatchSize:    defaultBatchSize,
			VShift:       defaultVShift,
		},
		FrameRate: defaultFrameRate,
		Policy: Policy{
			Recursive: true,
			Probe:     true,
		},
	}
}

package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	errDataDir     = errors.New("paths.data_dir must be set")
	errLogDir      = errors.New("paths.log_dir must be set")
	errScript      = errors.New("stage program must be set")
	errPositive    = errors.New("must be positive")
	errNonNegative = errors.New("must not be negative")
)

// Validate ensures the settings are usable by the stage programs.
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.Paths.DataDir) == "" {
		return errDataDir
	}

	if strings.TrimSpace(s.Paths.LogDir) == "" {
		return errLogDir
	}

	scripts := []struct{ key, value string }{
		{"programs.extraction", s.Programs.Extraction},
		{"programs.scoring", s.Programs.Scoring},
		{"programs.visualisation", s.Programs.Visualisation},
	}
	for _, script := range scripts {
		if strings.TrimSpace(script.value) == "" {
			return fmt.Errorf("%s: %w", script.key, errScript)
		}
	}

	if s.FrameRate <= 0 {
		return fmt.Errorf("frame_rate %d: %w", s.FrameRate, errPositive)
	}

	if err := s.Extraction.validate(); err != nil {
		return err
	}

	return s.Scoring.validate()
}

func (e *Extraction) validate() error {
	if e.FaceDetScale <= 0 {
		return fmt.Errorf("extraction.facedet_scale %v: %w", e.FaceDetScale, errPositive)
	}

	if e.CropScale <= 0 {
		return fmt.Errorf("extraction.crop_scale %v: %w", e.CropScale, errPositive)
	}

	if e.MinTrack <= 0 {
		return fmt.Errorf("extraction.min_track %d: %w", e.MinTrack, errPositive)
	}

	if e.NumFailedDet < 0 {
		return fmt.Errorf("extraction.num_failed_det %d: %w", e.NumFailedDet, errNonNegative)
	}

	if e.MinFaceSize <= 0 {
		return fmt.Errorf("extraction.min_face_size %d: %w", e.MinFaceSize, errPositive)
	}

	return nil
}

func (s *Scoring) validate() error {
	if s.BatchSize <= 0 {
		return fmt.Errorf("scoring.batch_size %d: %w", s.BatchSize, errPositive)
	}

	if s.VShift < 0 {
		return fmt.Errorf("scoring.vshift %d: %w", s.VShift, errNonNegative)
	}

	return nil
}

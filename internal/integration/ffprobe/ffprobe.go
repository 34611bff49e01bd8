package ffprobe

import (
	"errors"
	"time"
)

const (
	name = "ffprobe"
	// Slow hard-drives spinning up or network retrieved resources may cause timeouts if too aggressive.
	timeout = 60 * time.Second
)

var (
	// ErrNoVideoStream is returned when the file carries no video stream.
	ErrNoVideoStream = errors.New("no video stream")
	errFrameRate     = errors.New("invalid frame rate")
)

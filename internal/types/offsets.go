package types

// OffsetRecord is one data row of a scoring stage offsets file: the sync estimate for one face track.
type OffsetRecord struct {
	TrackID       int     `json:"track_id"`
	OffsetFrames  int     `json:"offset_frames"`
	OffsetSeconds float64 `json:"offset_seconds"`
	Confidence    float64 `json:"confidence"`
	// AvgMinDist is the mean over frames of the minimum distance across shifts. Older scorers do not emit it.
	AvgMinDist *float64 `json:"avg_min_dist,omitempty"`
}

// SkippedLine is a data line the parser rejected, with the reason why.
type SkippedLine struct {
	Line   int    `json:"line"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

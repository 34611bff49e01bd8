// Package output renders aggregation results: the summary artifact written under the data directory, and the map
// structure handed to the console, JSON and markdown formatters.
package output

import (
	"github.com/farcloser/avsync"
	"github.com/farcloser/avsync/internal/results"
)

// PairingNote warns readers that ranks are matched positionally.
const PairingNote = "tracks are paired across runs by confidence rank within groups of equal track count; " +
	"this is an approximation, not a verified identity match"

// SummaryToMap converts a summary into the canonical map structure used for formatter output.
func SummaryToMap(summary *avsync.Summary) map[string]any {
	groups := make([]any, 0, len(summary.Groups))

	for _, group := range summary.Groups {
		ranks := make([]any, 0, len(group.Ranks))
		for _, rank := range group.Ranks {
			ranks = append(ranks, RankToMap(rank))
		}

		groups = append(groups, map[string]any{
			"line_count": group.Cardinality,
			"run_count":  len(group.Runs),
			"runs":       group.Runs,
			"ranks":      ranks,
		})
	}

	return map[string]any{
		"note":     PairingNote,
		"runs":     summary.RunCount(),
		"excluded": summary.Excluded,
		"groups":   groups,
	}
}

// RankToMap renders one rank row. Rank labels are one-based.
func RankToMap(rank avsync.RankMean) map[string]any {
	row := map[string]any{
		"rank":           rank.Rank + 1,
		"offset_frames":  rank.OffsetFrames,
		"offset_seconds": rank.OffsetSeconds,
		"confidence":     rank.Confidence,
		"runs":           rank.Participants,
	}

	if rank.AvgMinDist != nil {
		row["avg_min_dist"] = *rank.AvgMinDist
	}

	return row
}

// ParseResultToMap describes a parsed offsets file.
func ParseResultToMap(result results.ParseResult) map[string]any {
	meta := map[string]any{
		"records": len(result.Records),
		"skipped": len(result.Skipped),
	}

	if result.Absent {
		meta["absent"] = result.AbsentReason
	}

	return meta
}

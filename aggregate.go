// Package avsync aggregates the offsets produced by many pipeline runs into per-cardinality summaries.
package avsync

import (
	"cmp"
	"slices"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/farcloser/avsync/internal/types"
)

/*
Usage:

runs := []avsync.Run{
    {Name: "clip_a", Records: recordsA},
    {Name: "clip_b", Records: recordsB},
}

summary := avsync.Summarize(runs)
for _, group := range summary.Groups {
    fmt.Printf("%d faces: %v\n", group.Cardinality, group.Runs)
    for _, rank := range group.Ranks {
        fmt.Printf("#%d %.4f frames\n", rank.Rank+1, rank.OffsetFrames)
    }
}

Pairing tracks across runs by cardinality and confidence rank is an approximation: nothing guarantees that the
second most confident face of one run is the same person as in another run.
*/

// Run is the set of offset records produced for one item.
type Run struct {
	Name    string
	Records []types.OffsetRecord
}

// RankMean holds the means across a group's runs of the records sharing a confidence rank.
type RankMean struct {
	// Rank is zero-based; 0 is the most confident track.
	Rank          int      `json:"rank"`
	OffsetFrames  float64  `json:"offset_frames"`
	OffsetSeconds float64  `json:"offset_seconds"`
	Confidence    float64  `json:"confidence"`
	AvgMinDist    *float64 `json:"avg_min_dist,omitempty"`
	Participants  int      `json:"runs"`
}

// Group gathers runs with the same number of records.
type Group struct {
	Cardinality int        `json:"cardinality"`
	Runs        []string   `json:"runs"`
	Ranks       []RankMean `json:"ranks"`
}

// Summary is the aggregation result. Groups are ordered by ascending cardinality.
type Summary struct {
	Groups []Group `json:"groups"`
	// Excluded lists runs without records.
	Excluded []string `json:"excluded"`
}

// RunCount is the number of runs that took part in the aggregation.
func (s *Summary) RunCount() int {
	count := 0
	for _, group := range s.Groups {
		count += len(group.Runs)
	}

	return count
}

// Summarize groups runs by record count and, within each group, averages the records rank by rank once each
// run's records are sorted by descending confidence. Input runs are not modified.
func Summarize(runs []Run) *Summary {
	summary := &Summary{Groups: []Group{}, Excluded: []string{}}
	byCardinality := map[int][]Run{}

	for _, run := range runs {
		if len(run.Records) == 0 {
			summary.Excluded = append(summary.Excluded, run.Name)

			continue
		}

		byCardinality[len(run.Records)] = append(byCardinality[len(run.Records)], Run{
			Name:    run.Name,
			Records: SortByConfidence(run.Records),
		})
	}

	cardinalities := make([]int, 0, len(byCardinality))
	for cardinality := range byCardinality {
		cardinalities = append(cardinalities, cardinality)
	}

	sort.Ints(cardinalities)

	for _, cardinality := range cardinalities {
		members := byCardinality[cardinality]
		slices.SortStableFunc(members, func(a, b Run) int {
			return cmp.Compare(a.Name, b.Name)
		})

		summary.Groups = append(summary.Groups, summarizeGroup(cardinality, members))
	}

	slices.Sort(summary.Excluded)

	return summary
}

// SortByConfidence returns a copy of records ordered by descending confidence. Equal confidences are ordered by
// ascending track id.
func SortByConfidence(records []types.OffsetRecord) []types.OffsetRecord {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b types.OffsetRecord) int {
		if c := cmp.Compare(b.Confidence, a.Confidence); c != 0 {
			return c
		}

		return cmp.Compare(a.TrackID, b.TrackID)
	})

	return sorted
}

func summarizeGroup(cardinality int, members []Run) Group {
	group := Group{
		Cardinality: cardinality,
		Runs:        make([]string, 0, len(members)),
		Ranks:       make([]RankMean, 0, cardinality),
	}

	for _, member := range members {
		group.Runs = append(group.Runs, member.Name)
	}

	frames := make([]float64, len(members))
	seconds := make([]float64, len(members))
	confidences := make([]float64, len(members))
	distances := make([]float64, 0, len(members))

	for rank := range cardinality {
		distances = distances[:0]

		for index, member := range members {
			record := member.Records[rank]
			frames[index] = float64(record.OffsetFrames)
			seconds[index] = record.OffsetSeconds
			confidences[index] = record.Confidence

			if record.AvgMinDist != nil {
				distances = append(distances, *record.AvgMinDist)
			}
		}

		mean := RankMean{
			Rank:          rank,
			OffsetFrames:  stat.Mean(frames, nil),
			OffsetSeconds: stat.Mean(seconds, nil),
			Confidence:    stat.Mean(confidences, nil),
			Participants:  len(members),
		}

		// A partial distance mean would not be comparable with the other columns.
		if len(distances) == len(members) {
			distance := stat.Mean(distances, nil)
			mean.AvgMinDist = &distance
		}

		group.Ranks = append(group.Ranks, mean)
	}

	return group
}

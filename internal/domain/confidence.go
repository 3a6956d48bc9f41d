package domain

import "math"

// Confidence weights. The memory term is a fixed placeholder until
// memory-quality tracking lands (it still shifts the score away from
// the extremes, so it stays in the weighted sum).
const (
	weightFL      = 0.4
	weightSegment = 0.5
	weightMemory  = 0.1

	adjustedPenalty  = 0.15
	memoryUsageScore = 0.1
)

// scoreBand penalizes bands whose upper bound was clamped to the
// qualifier ceiling.
func scoreBand(band AltitudeBand) float64 {
	score := 1.0
	if band.Adjusted {
		score -= adjustedPenalty
	}
	return math.Max(score, 0)
}

// scoreSegments is the fraction of segments where both endpoints are
// plausible fix names (length ≥ 3). Zero when there are no segments.
func scoreSegments(segments []Segment) float64 {
	if len(segments) == 0 {
		return 0
	}
	good := 0
	for _, s := range segments {
		if len(s.From) >= 3 && len(s.To) >= 3 {
			good++
		}
	}
	return float64(good) / float64(len(segments))
}

// Score computes the interpretation confidence in [0,1] from the
// altitude-adjustment penalty, the segment-quality ratio, and the
// memory term, rounded to three decimals. Pure function.
func Score(segments []Segment, band AltitudeBand) float64 {
	raw := weightFL*scoreBand(band) + weightSegment*scoreSegments(segments) + weightMemory*memoryUsageScore
	return math.Round(raw*1000) / 1000
}

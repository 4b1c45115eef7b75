package aggregator

import (
	"fmt"

	"voicecheck-go/internal/types"
)

// NeutralProbability is used whenever there is nothing to score: an empty
// segment list, text too short to classify, or a detector fallback.
const NeutralProbability = 0.5

// Leaning thresholds. A segment at or above aiThreshold counts as
// ai-leaning, at or below humanThreshold as human-leaning.
const (
	aiThreshold    = 0.7
	humanThreshold = 0.3
)

// Summarize derives the overall verdict from scored segments. Pure: no I/O,
// no mutation of the input.
func Summarize(segments []types.Segment) types.Summary {
	if len(segments) == 0 {
		return types.Summary{
			OverallProbability: NeutralProbability,
			Prediction:         predict(NeutralProbability),
			Confidence:         "medium",
			Rationale:          "no segments to analyze",
			SentenceStats: types.SentenceStats{
				MeanProbability: NeutralProbability,
			},
		}
	}

	var sum float64
	ai, human := 0, 0
	for _, s := range segments {
		sum += s.AIProbability
		switch {
		case s.AIProbability >= aiThreshold:
			ai++
		case s.AIProbability <= humanThreshold:
			human++
		}
	}
	total := len(segments)
	mean := sum / float64(total)

	confidence := "medium"
	if float64(ai) > 0.8*float64(total) || float64(human) > 0.8*float64(total) {
		confidence = "high"
	}

	return types.Summary{
		OverallProbability: mean,
		Prediction:         predict(mean),
		Confidence:         confidence,
		Rationale:          fmt.Sprintf("%d of %d segments lean AI-generated, %d lean human", ai, total, human),
		SentenceStats: types.SentenceStats{
			AILeaning:       ai,
			HumanLeaning:    human,
			Neutral:         total - ai - human,
			MeanProbability: mean,
		},
	}
}

func predict(p float64) string {
	switch {
	case p >= aiThreshold:
		return "AI-generated"
	case p >= NeutralProbability:
		return "mixed"
	default:
		return "human-generated"
	}
}

package services

import (
	"context"
	"strings"

	"github.com/taskhub/backend/internal/core/ports"
)

// HeuristicEstimator is the built-in duration estimator. It weighs priority,
// description length, word count and tag count. Anything smarter plugs in
// behind the ports.DurationEstimator contract.
type HeuristicEstimator struct{}

func NewHeuristicEstimator() *HeuristicEstimator {
	return &HeuristicEstimator{}
}

var priorityBaseHours = map[string]float64{
	"low":    1.0,
	"medium": 2.0,
	"high":   4.0,
	"urgent": 6.0,
}

func (e *HeuristicEstimator) Estimate(ctx context.Context, features ports.TaskFeatures) (float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, ErrEstimatorUnavailable
	}

	base, ok := priorityBaseHours[string(features.Priority)]
	if !ok {
		base = priorityBaseHours["medium"]
	}

	words := len(strings.Fields(features.Description))
	hours := base +
		0.002*float64(len(features.Description)) +
		0.05*float64(words) +
		0.25*float64(features.TagCount)

	// Confidence degrades for sparse inputs: an empty description gives the
	// model almost nothing to go on.
	confidence := 0.9
	if words == 0 {
		confidence = 0.3
	} else if words < 5 {
		confidence = 0.6
	}

	return hours, confidence, nil
}

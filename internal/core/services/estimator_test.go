package services

import (
	"context"
	"errors"
	"testing"

	"github.com/taskhub/backend/internal/core/ports"
	"github.com/taskhub/backend/internal/domain"
)

func TestEstimateScalesWithPriority(t *testing.T) {
	e := NewHeuristicEstimator()
	ctx := context.Background()
	desc := "prepare the monthly consolidated activity report for review"

	low, _, err := e.Estimate(ctx, ports.TaskFeatures{Priority: domain.TaskPriorityLow, Description: desc})
	if err != nil {
		t.Fatalf("Estimate low: %v", err)
	}
	urgent, _, err := e.Estimate(ctx, ports.TaskFeatures{Priority: domain.TaskPriorityUrgent, Description: desc})
	if err != nil {
		t.Fatalf("Estimate urgent: %v", err)
	}
	if urgent <= low {
		t.Fatalf("urgent=%v not above low=%v", urgent, low)
	}
}

func TestEstimateConfidenceDegradesWithSparseInput(t *testing.T) {
	e := NewHeuristicEstimator()
	ctx := context.Background()

	_, rich, _ := e.Estimate(ctx, ports.TaskFeatures{
		Priority:    domain.TaskPriorityMedium,
		Description: "collect feedback forms from all branches and summarize the results",
	})
	_, sparse, _ := e.Estimate(ctx, ports.TaskFeatures{
		Priority:    domain.TaskPriorityMedium,
		Description: "call supplier",
	})
	_, empty, _ := e.Estimate(ctx, ports.TaskFeatures{Priority: domain.TaskPriorityMedium})

	if !(rich > sparse && sparse > empty) {
		t.Fatalf("confidence ordering broken: rich=%v sparse=%v empty=%v", rich, sparse, empty)
	}
	if rich < 0.7 {
		t.Fatalf("rich description confidence = %v, want at least 0.7", rich)
	}
	if empty >= 0.7 {
		t.Fatalf("empty description confidence = %v, want below 0.7", empty)
	}
}

func TestEstimateTagsAddTime(t *testing.T) {
	e := NewHeuristicEstimator()
	ctx := context.Background()
	features := ports.TaskFeatures{Priority: domain.TaskPriorityMedium, Description: "short"}

	bare, _, _ := e.Estimate(ctx, features)
	features.TagCount = 4
	tagged, _, _ := e.Estimate(ctx, features)

	if tagged <= bare {
		t.Fatalf("tagged=%v not above bare=%v", tagged, bare)
	}
}

func TestEstimateCancelledContext(t *testing.T) {
	e := NewHeuristicEstimator()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := e.Estimate(ctx, ports.TaskFeatures{Priority: domain.TaskPriorityLow})
	if !errors.Is(err, ErrEstimatorUnavailable) {
		t.Fatalf("err = %v, want ErrEstimatorUnavailable", err)
	}
}

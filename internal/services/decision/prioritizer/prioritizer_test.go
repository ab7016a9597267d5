package prioritizer

import (
	"math"
	"testing"

	"AquaWatch/internal/domain/models"
)

func d(pond string, urgency float64) *models.Decision {
	return &models.Decision{PondID: pond, UrgencyScore: urgency}
}

func TestPrioritiesAreABijection(t *testing.T) {
	mp := Prioritize([]*models.Decision{
		d("POND_03", 0.4), d("POND_01", 0.8), d("POND_02", 0.4), d("POND_04", 0.1),
	})

	if len(mp.PondPriorities) != 4 {
		t.Fatalf("expected 4 ranks, got %d", len(mp.PondPriorities))
	}
	seen := make(map[int]bool)
	for _, r := range mp.PondPriorities {
		if r < 1 || r > 4 || seen[r] {
			t.Fatalf("ranks are not a permutation of 1..4: %v", mp.PondPriorities)
		}
		seen[r] = true
	}
	if mp.PondPriorities["POND_01"] != 1 {
		t.Fatalf("most urgent pond must rank 1: %v", mp.PondPriorities)
	}
	// Tie between POND_02 and POND_03 breaks by ascending pond id.
	if mp.PondPriorities["POND_02"] != 2 || mp.PondPriorities["POND_03"] != 3 {
		t.Fatalf("tie-break by pond id failed: %v", mp.PondPriorities)
	}
}

func TestResourceAllocationSumsToOne(t *testing.T) {
	mp := Prioritize([]*models.Decision{
		d("POND_01", 0.9), d("POND_02", 0.3), d("POND_03", 0.15),
	})

	var sum float64
	for _, share := range mp.ResourceAllocation {
		sum += share
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Fatalf("shares sum %v, want 1.0", sum)
	}
	if mp.OverallUrgency != 0.9 {
		t.Fatalf("overall urgency %v, want max", mp.OverallUrgency)
	}
}

func TestAllocationEmptyWhenAllCalm(t *testing.T) {
	mp := Prioritize([]*models.Decision{d("POND_01", 0), d("POND_02", 0)})
	if len(mp.ResourceAllocation) != 0 {
		t.Fatalf("expected empty allocation, got %v", mp.ResourceAllocation)
	}
	if mp.OverallUrgency != 0 {
		t.Fatalf("expected zero overall urgency, got %v", mp.OverallUrgency)
	}
}

func TestUrgentSetThreshold(t *testing.T) {
	mp := Prioritize([]*models.Decision{
		d("POND_01", 0.7), d("POND_02", 0.69), d("POND_03", 0.95),
	})
	if len(mp.UrgentPonds) != 2 {
		t.Fatalf("expected 2 urgent ponds, got %v", mp.UrgentPonds)
	}
	for _, p := range mp.UrgentPonds {
		if p == "POND_02" {
			t.Fatalf("POND_02 is below the urgent threshold")
		}
	}
}

func TestEmptyInput(t *testing.T) {
	mp := Prioritize(nil)
	if len(mp.PondPriorities) != 0 || len(mp.UrgentPonds) != 0 || len(mp.ResourceAllocation) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", mp)
	}
}

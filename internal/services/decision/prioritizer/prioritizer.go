package prioritizer

import (
	"sort"
	"time"

	"AquaWatch/internal/domain/models"
)

// Prioritize ranks ponds against each other and splits the shared resource
// pool proportionally to urgency. Pure and deterministic: rank is a
// bijection onto 1..N, ties broken by ascending pond id.
func Prioritize(decisions []*models.Decision) *models.MultiPondDecision {
	out := &models.MultiPondDecision{
		Timestamp:          time.Now().UTC(),
		PondPriorities:     make(map[string]int, len(decisions)),
		UrgentPonds:        []string{},
		Decisions:          make(map[string]models.Decision, len(decisions)),
		ResourceAllocation: map[string]float64{},
	}
	if len(decisions) == 0 {
		return out
	}

	sorted := make([]*models.Decision, len(decisions))
	copy(sorted, decisions)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].UrgencyScore != sorted[j].UrgencyScore {
			return sorted[i].UrgencyScore > sorted[j].UrgencyScore
		}
		return sorted[i].PondID < sorted[j].PondID
	})

	var total float64
	for rank, d := range sorted {
		out.PondPriorities[d.PondID] = rank + 1
		out.Decisions[d.PondID] = *d
		if d.UrgencyScore >= models.UrgentThreshold {
			out.UrgentPonds = append(out.UrgentPonds, d.PondID)
		}
		if d.UrgencyScore > out.OverallUrgency {
			out.OverallUrgency = d.UrgencyScore
		}
		total += d.UrgencyScore
	}

	if total > 0 {
		for _, d := range sorted {
			out.ResourceAllocation[d.PondID] = d.UrgencyScore / total
		}
	}
	return out
}

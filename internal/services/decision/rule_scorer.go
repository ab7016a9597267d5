package decision

import (
	"context"
	"time"

	"AquaWatch/internal/domain/models"
	"AquaWatch/internal/domain/service"
)

// Scorer tier names, most to least sophisticated.
const (
	TierML      = "ml"
	TierLight   = "light"
	TierRules   = "rules"
	TierMinimal = "minimal"
)

// RuleScorer is the deterministic rule tier: the full contribution table and
// the complete action ladder. It needs no model artifacts and never fails.
type RuleScorer struct {
	reasoner service.Reasoner
}

func NewRuleScorer(reasoner service.Reasoner) *RuleScorer {
	return &RuleScorer{reasoner: reasoner}
}

func (s *RuleScorer) Tier() string { return TierRules }

func (s *RuleScorer) Decide(ctx context.Context, sample *models.SensorSample, preds *models.PredictionSet) (*models.Decision, error) {
	o := observe(sample, preds)
	urgency, reasons, affected := scoreUrgency(o)
	action, secondary := selectAction(o, urgency)
	aerator, pump, heater := equipmentLevels(o)

	d := &models.Decision{
		PondID:                  pondID(sample),
		Timestamp:               time.Now().UTC(),
		UrgencyScore:            urgency,
		PrimaryAction:           action,
		SecondaryActions:        secondary,
		Confidence:              ruleConfidence(action, urgency),
		AffectedFactors:         affectedOrDefault(affected),
		Tier:                    s.Tier(),
		RecommendedAeratorLevel: aerator,
		RecommendedPumpLevel:    pump,
		RecommendedHeaterLevel:  heater,
		RecommendedFeedRate:     feedRate(o),
	}
	d.Reasoning = s.reasoner.Explain(d, reasons)
	return d, nil
}

func pondID(sample *models.SensorSample) string {
	if sample == nil {
		return ""
	}
	return sample.PondID
}

func affectedOrDefault(affected []string) []string {
	if len(affected) == 0 {
		return []string{"Normal Operations"}
	}
	return affected
}

var _ service.Scorer = (*RuleScorer)(nil)

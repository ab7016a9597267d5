package decision

import (
	"context"
	"time"

	"AquaWatch/internal/domain/models"
	"AquaWatch/internal/domain/service"
)

// MinimalScorer is the last-resort tier: dissolved oxygen and ammonia only.
// It keeps ponds safe when everything above it is unavailable.
type MinimalScorer struct {
	reasoner service.Reasoner
}

func NewMinimalScorer(reasoner service.Reasoner) *MinimalScorer {
	return &MinimalScorer{reasoner: reasoner}
}

func (s *MinimalScorer) Tier() string { return TierMinimal }

func (s *MinimalScorer) Decide(ctx context.Context, sample *models.SensorSample, preds *models.PredictionSet) (*models.Decision, error) {
	o := observe(sample, preds)
	urgency, reasons, affected := scoreSensorUrgency(o)
	if urgency > 1 {
		urgency = 1
	}

	var action models.ActionType
	switch {
	case (o.doKnown && o.do < models.DOCriticalMin) || (o.ammoniaKnown && o.ammonia > models.AmmoniaEmergency):
		action = models.ActionEmergency
	case o.doKnown && o.do < models.OptimalDOMin:
		action = models.ActionIncreaseAeration
	case o.ammoniaKnown && o.ammonia > models.AmmoniaWarn:
		action = models.ActionWaterExchange
	case urgency > models.MonitorThreshold:
		action = models.ActionMonitorClosely
	default:
		action = models.ActionNone
	}

	aerator, pump, heater := equipmentLevels(o)
	d := &models.Decision{
		PondID:                  pondID(sample),
		Timestamp:               time.Now().UTC(),
		UrgencyScore:            urgency,
		PrimaryAction:           action,
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

var _ service.Scorer = (*MinimalScorer)(nil)

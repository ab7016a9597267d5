package decision

import (
	"context"
	"time"

	"AquaWatch/internal/domain/models"
	"AquaWatch/internal/domain/service"
	"AquaWatch/internal/model"
	"AquaWatch/pkg/util"
)

// LightScorer is the lightweight-ML tier. Instead of the hard status weight
// it blends the classifier's full probability distribution into the status
// contribution, then adds the sensor contributions from the rule table.
type LightScorer struct {
	cache    *model.Cache
	reasoner service.Reasoner
}

func NewLightScorer(cache *model.Cache, reasoner service.Reasoner) *LightScorer {
	return &LightScorer{cache: cache, reasoner: reasoner}
}

func (s *LightScorer) Tier() string { return TierLight }

func (s *LightScorer) Decide(ctx context.Context, sample *models.SensorSample, preds *models.PredictionSet) (*models.Decision, error) {
	art, err := s.cache.Get(model.ArtifactClassifier)
	if err != nil {
		return nil, err
	}
	if preds == nil || len(preds.Classification.Probabilities) != len(art.Labels) {
		return nil, model.ErrModelUnavailable
	}

	var statusContrib float64
	for i, p := range preds.Classification.Probabilities {
		statusContrib += p * models.NormalizeStatus(art.Labels[i]).UrgencyWeight()
	}

	o := observe(sample, preds)
	sensorContrib, reasons, affected := scoreSensorUrgency(o)
	urgency := util.Clamp(statusContrib+sensorContrib, 0, 1)
	if statusContrib > 0 {
		affected = append([]string{"Water Quality"}, affected...)
	}

	action, secondary := selectAction(o, urgency)
	aerator, pump, heater := equipmentLevels(o)

	d := &models.Decision{
		PondID:                  pondID(sample),
		Timestamp:               time.Now().UTC(),
		UrgencyScore:            urgency,
		PrimaryAction:           action,
		SecondaryActions:        secondary,
		Confidence:              mlConfidence(action, preds.Classification.TopProbability(), urgency),
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

var _ service.Scorer = (*LightScorer)(nil)

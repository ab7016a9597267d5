package decision

import (
	"context"
	"time"

	"AquaWatch/internal/domain/models"
	"AquaWatch/internal/domain/service"
	"AquaWatch/internal/model"
	"AquaWatch/pkg/util"
)

// MLScorer is the trained-ML tier: the urgency regressor paired with the
// ensemble classifier. Unavailable artifacts surface ErrModelUnavailable so
// the engine can downgrade.
type MLScorer struct {
	cache    *model.Cache
	reasoner service.Reasoner
}

func NewMLScorer(cache *model.Cache, reasoner service.Reasoner) *MLScorer {
	return &MLScorer{cache: cache, reasoner: reasoner}
}

func (s *MLScorer) Tier() string { return TierML }

func (s *MLScorer) Decide(ctx context.Context, sample *models.SensorSample, preds *models.PredictionSet) (*models.Decision, error) {
	art, err := s.cache.Get(model.ArtifactUrgency)
	if err != nil {
		return nil, err
	}

	x := make([]float64, len(art.FeatureNames))
	for i, name := range art.FeatureNames {
		if sample != nil {
			x[i] = sample.GetOr(name, 0.0)
		}
	}
	out, err := art.PredictRegression(x)
	if err != nil || len(out) == 0 {
		return nil, model.ErrModelUnavailable
	}
	urgency := util.Clamp(out[0], 0, 1)

	o := observe(sample, preds)
	// The contribution table still supplies the narrative even when the
	// regressor owns the score.
	_, reasons, affected := scoreUrgency(o)
	action, secondary := selectAction(o, urgency)
	aerator, pump, heater := equipmentLevels(o)

	var topProb float64
	if preds != nil {
		topProb = preds.Classification.TopProbability()
	}

	d := &models.Decision{
		PondID:                  pondID(sample),
		Timestamp:               time.Now().UTC(),
		UrgencyScore:            urgency,
		PrimaryAction:           action,
		SecondaryActions:        secondary,
		Confidence:              mlConfidence(action, topProb, urgency),
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

var _ service.Scorer = (*MLScorer)(nil)

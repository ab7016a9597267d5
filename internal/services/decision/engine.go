package decision

import (
	"context"
	"errors"

	"AquaWatch/internal/domain/models"
	drepo "AquaWatch/internal/domain/repository"
	"AquaWatch/internal/domain/service"
	"AquaWatch/internal/model"
	"AquaWatch/pkg/logger"
)

// Engine runs the configured scorer tier and degrades down the hierarchy
// when a tier's model artifact is unavailable. A downgrade is logged, never
// surfaced: Decide has no error path.
type Engine struct {
	scorers []service.Scorer
	log     *logger.Logger
	metrics drepo.Metrics
}

// NewEngine builds the tier chain starting at the configured tier. The rule
// and minimal tiers are always present, so the chain cannot be empty past
// either of them.
func NewEngine(tier string, cache *model.Cache, reasoner service.Reasoner, log *logger.Logger, metrics drepo.Metrics) *Engine {
	all := []service.Scorer{
		NewMLScorer(cache, reasoner),
		NewLightScorer(cache, reasoner),
		NewRuleScorer(reasoner),
		NewMinimalScorer(reasoner),
	}

	start := 0
	for i, s := range all {
		if s.Tier() == tier {
			start = i
			break
		}
	}
	return &Engine{scorers: all[start:], log: log, metrics: metrics}
}

// Decide evaluates one pond. The returned decision records the tier that
// actually produced it; a tier below the configured one is the degraded
// marker.
func (e *Engine) Decide(ctx context.Context, sample *models.SensorSample, preds *models.PredictionSet) *models.Decision {
	for i, s := range e.scorers {
		d, err := s.Decide(ctx, sample, preds)
		if err == nil {
			if i > 0 {
				e.log.Warn("scorer tier degraded",
					logger.String("pond", pondID(sample)),
					logger.String("configured", e.scorers[0].Tier()),
					logger.String("used", s.Tier()))
			}
			if e.metrics != nil {
				e.metrics.RecordDecision(string(d.PrimaryAction))
				e.metrics.RecordUrgency(d.PondID, d.UrgencyScore)
			}
			return d
		}
		if errors.Is(err, model.ErrModelUnavailable) {
			e.log.Warn("scorer tier unavailable, trying next",
				logger.String("tier", s.Tier()),
				logger.Error(err))
			continue
		}
		e.log.Error("scorer failed, trying next",
			logger.String("tier", s.Tier()),
			logger.Error(err))
	}

	// Unreachable: the minimal tier never fails. Kept as a hard stop for
	// future scorer additions.
	d, _ := NewMinimalScorer(NewTemplateReasoner()).Decide(ctx, sample, preds)
	return d
}

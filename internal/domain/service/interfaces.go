package service

import (
	"context"

	"AquaWatch/internal/domain/models"
)

// Ensemble turns one sample into the full prediction set. Pure over
// read-only model state; no side effects.
type Ensemble interface {
	Infer(ctx context.Context, sample *models.SensorSample) (*models.PredictionSet, error)
}

// Scorer is one urgency/action strategy. A scorer whose model artifact is
// unavailable returns model.ErrModelUnavailable from Decide; the engine
// downgrades to the next tier instead of surfacing the error.
type Scorer interface {
	Tier() string
	Decide(ctx context.Context, sample *models.SensorSample, preds *models.PredictionSet) (*models.Decision, error)
}

// Reasoner renders the human-readable explanation on a decision. Any
// implementation returning a non-empty string satisfies the contract.
type Reasoner interface {
	Explain(d *models.Decision, observations []string) string
}

package inference

import (
	"context"
	"errors"
	"fmt"

	"AquaWatch/internal/domain/models"
	"AquaWatch/internal/model"
	"AquaWatch/pkg/logger"
)

// ErrInvalidInput marks a sample whose feature vector cannot be constructed.
// Rejects that single request only.
var ErrInvalidInput = errors.New("invalid input")

// FallbackNote is attached whenever the KNN DO estimate replaces the
// regressor output.
const FallbackNote = "DO estimated via fallback (sensor missing or invalid)"

// Alert thresholds for the DO trend heuristic.
const (
	doAlertThreshold = 4.0
	horizonMinutes   = 30.0
)

// Ensemble runs the three model families over a sample and applies the
// deterministic DO fallback policy. Pure over the read-only model cache.
type Ensemble struct {
	cache *model.Cache
	log   *logger.Logger
}

func New(cache *model.Cache, log *logger.Logger) *Ensemble {
	return &Ensemble{cache: cache, log: log}
}

// buildVector assembles the input vector in the artifact's declared feature
// order. A named feature missing from the sample is filled with 0.0; this is
// the documented default-fill rule, not an error.
func buildVector(sample *models.SensorSample, featureNames []string) []float64 {
	x := make([]float64, len(featureNames))
	for i, name := range featureNames {
		x[i] = sample.GetOr(name, 0.0)
	}
	return x
}

// Infer produces the full prediction set for one sample.
func (e *Ensemble) Infer(ctx context.Context, sample *models.SensorSample) (*models.PredictionSet, error) {
	if sample == nil {
		return nil, fmt.Errorf("%w: nil sample", ErrInvalidInput)
	}

	reg, err := e.cache.Get(model.ArtifactRegressor)
	if err != nil {
		return nil, err
	}
	cls, err := e.cache.Get(model.ArtifactClassifier)
	if err != nil {
		return nil, err
	}
	knn, err := e.cache.Get(model.ArtifactKNN)
	if err != nil {
		return nil, err
	}

	regOut, err := reg.PredictRegression(buildVector(sample, reg.FeatureNames))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	class, probs, err := cls.PredictClass(buildVector(sample, cls.FeatureNames))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	knnDO, err := knn.PredictKNN(buildVector(sample, knn.FeatureNames))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	ps := &models.PredictionSet{
		Continuous: continuousFromOutputs(reg.Outputs, regOut),
		Classification: models.Classification{
			Class:         class,
			Probabilities: probs,
		},
		FallbackDO: knnDO,
	}
	if class >= 0 && class < len(cls.Labels) {
		ps.Classification.Label = cls.Labels[class]
	}

	doVal, doPresent := sample.Get(models.FieldDO)
	if !doPresent || doVal <= 0 {
		ps.Continuous.DO = knnDO
		ps.FallbackUsed = true
		ps.Note = FallbackNote
		ps.Continuous.Note = FallbackNote
	} else {
		e.attachDOTrendAlert(&ps.Continuous, doVal)
	}

	return ps, nil
}

// attachDOTrendAlert estimates minutes to the danger threshold when the
// regressor forecasts DO below it, assuming the prediction horizon.
func (e *Ensemble) attachDOTrendAlert(cont *models.Continuous, currentDO float64) {
	predicted := cont.DO
	if predicted >= doAlertThreshold {
		cont.Alert = fmt.Sprintf("Predicted DO %.2f mg/L - within safe range", predicted)
		return
	}
	dropPerMin := (currentDO - predicted) / horizonMinutes
	if dropPerMin > 0 && currentDO > doAlertThreshold {
		minutes := int((currentDO - doAlertThreshold) / dropPerMin)
		if minutes < 1 {
			minutes = 1
		}
		cont.Alert = fmt.Sprintf("Predicted DO %.2f mg/L - expected below %.0f mg/L in approx %d minutes", predicted, doAlertThreshold, minutes)
	} else {
		cont.Alert = fmt.Sprintf("Predicted DO %.2f mg/L - below threshold. Immediate action recommended", predicted)
	}
	cont.Action = "Turn ON aerator now"
}

// continuousFromOutputs maps regressor outputs onto the continuous struct by
// declared output name, falling back to the training-time positional order.
func continuousFromOutputs(names []string, out []float64) models.Continuous {
	var c models.Continuous
	if len(names) == len(out) {
		for i, name := range names {
			switch name {
			case models.FieldDO:
				c.DO = out[i]
			case models.FieldPH:
				c.PH = out[i]
			case models.FieldAmmonia:
				c.Ammonia = out[i]
			}
		}
		return c
	}
	if len(out) >= 3 {
		c.DO, c.PH, c.Ammonia = out[0], out[1], out[2]
	}
	return c
}

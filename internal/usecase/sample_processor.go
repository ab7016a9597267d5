package usecase

import (
	"context"
	"fmt"
	"time"

	"AquaWatch/internal/domain/models"
	domrepo "AquaWatch/internal/domain/repository"
	"AquaWatch/internal/services/decision"
	"AquaWatch/internal/services/inference"
	applogger "AquaWatch/pkg/logger"
	"AquaWatch/pkg/util"
)

// SampleProcessor runs one sample through the full pipeline: inference,
// decision, history append, decision cache, live fan-out and event export.
type SampleProcessor struct {
	ensemble  *inference.Ensemble
	engine    *decision.Engine
	history   domrepo.HistoryStore
	decisions domrepo.DecisionCache
	broadcast domrepo.Broadcaster
	events    domrepo.EventPublisher
	metrics   domrepo.Metrics
	log       *applogger.Logger
}

func NewSampleProcessor(
	ensemble *inference.Ensemble,
	engine *decision.Engine,
	history domrepo.HistoryStore,
	decisions domrepo.DecisionCache,
	broadcast domrepo.Broadcaster,
	events domrepo.EventPublisher,
	metrics domrepo.Metrics,
	log *applogger.Logger,
) *SampleProcessor {
	return &SampleProcessor{
		ensemble:  ensemble,
		engine:    engine,
		history:   history,
		decisions: decisions,
		broadcast: broadcast,
		events:    events,
		metrics:   metrics,
		log:       log,
	}
}

// ParseSample converts a loose ingestion payload into a typed sample.
// Numeric strings are accepted. A non-numeric DO reading is treated as
// absent so the KNN fallback engages; any other non-numeric value rejects
// the sample.
func ParseSample(pondID string, ts int64, input map[string]interface{}) (*models.SensorSample, error) {
	if len(input) == 0 {
		return nil, fmt.Errorf("%w: empty input", inference.ErrInvalidInput)
	}
	if ts <= 0 {
		ts = time.Now().Unix()
	}

	fields := make(map[string]float64, len(input))
	for name, raw := range input {
		v, ok := util.ToFloat(raw)
		if !ok {
			if name == models.FieldDO {
				// unparseable DO falls through to the estimator
				continue
			}
			return nil, fmt.Errorf("%w: field %q is not numeric", inference.ErrInvalidInput, name)
		}
		fields[name] = v
	}

	return &models.SensorSample{PondID: pondID, Timestamp: ts, Fields: fields}, nil
}

// Infer runs the ensemble only. Used by batch scoring where nothing is
// persisted or broadcast.
func (p *SampleProcessor) Infer(ctx context.Context, sample *models.SensorSample) (*models.PredictionSet, error) {
	return p.ensemble.Infer(ctx, sample)
}

// ProcessSample runs the full pipeline and returns both the prediction set
// and the decision. History append failures are logged, never propagated:
// a dead log must not stall live alerting.
func (p *SampleProcessor) ProcessSample(ctx context.Context, sample *models.SensorSample) (*models.PredictionSet, *models.Decision, error) {
	start := time.Now()

	preds, err := p.ensemble.Infer(ctx, sample)
	if err != nil {
		p.metrics.RecordError("inference")
		return nil, nil, err
	}

	p.metrics.RecordSample(sample.PondID)
	if preds.FallbackUsed {
		p.metrics.RecordFallback(sample.PondID)
	}

	d := p.engine.Decide(ctx, sample, preds)

	rec := &models.HistoryRecord{
		TS:      sample.Timestamp,
		Sensors: sample.Fields,
		RF:      preds.Continuous,
		SVM:     preds.Classification,
		KNN:     models.KNNEstimate{DO: preds.FallbackDO},
	}
	if _, err := p.history.Append(ctx, rec); err != nil {
		p.log.Error("history append failed, continuing",
			applogger.String("pond", sample.PondID),
			applogger.Error(err))
		p.metrics.RecordError("history_append")
	}

	if err := p.decisions.Put(ctx, d); err != nil {
		p.log.Error("decision cache put failed",
			applogger.String("pond", sample.PondID),
			applogger.Error(err))
		p.metrics.RecordError("decision_cache")
	}

	// fan-out off the ingestion path
	go p.export(sample, preds, d)

	p.metrics.RecordLatency("process_sample", time.Since(start).Seconds())
	return preds, d, nil
}

// Process implements the ingest pipeline Proc interface.
func (p *SampleProcessor) Process(ctx context.Context, sample *models.SensorSample) error {
	_, _, err := p.ProcessSample(ctx, sample)
	return err
}

func (p *SampleProcessor) export(sample *models.SensorSample, preds *models.PredictionSet, d *models.Decision) {
	p.broadcast.Publish(&models.FeedEvent{
		TS:      sample.Timestamp,
		Sensors: sample.Fields,
		RF:      preds.Continuous,
		SVM:     preds.Classification,
		KNN:     models.KNNEstimate{DO: preds.FallbackDO},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.events.Publish(ctx, sample.PondID, &models.DecisionEvent{
		TS:       sample.Timestamp,
		Decision: *d,
	}); err != nil {
		p.log.Warn("decision event publish failed",
			applogger.String("pond", sample.PondID),
			applogger.Error(err))
		p.metrics.RecordError("event_publish")
	}
}

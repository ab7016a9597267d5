package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"AquaWatch/internal/middleware"
	applogger "AquaWatch/pkg/logger"
)

// KafkaSamplesHandler consumes sensor samples from a Kafka topic and feeds
// them into the ingest pipeline, as an alternative to the HTTP and
// simulator sources.
type KafkaSamplesHandler struct {
	topic    string
	pipeline *middleware.IngestPipeline
	log      *applogger.Logger
}

func NewKafkaSamplesHandler(topic string, pipeline *middleware.IngestPipeline, log *applogger.Logger) *KafkaSamplesHandler {
	return &KafkaSamplesHandler{topic: topic, pipeline: pipeline, log: log}
}

func (h *KafkaSamplesHandler) Topic() string { return h.topic }

// incoming message schema: {pond_id, ts, input}
func (h *KafkaSamplesHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		PondID string                 `json:"pond_id"`
		TS     int64                  `json:"ts"`
		Input  map[string]interface{} `json:"input"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("decode sample message: %w", err)
	}
	if m.PondID == "" {
		m.PondID = "POND_01"
	}

	sample, err := ParseSample(m.PondID, m.TS, m.Input)
	if err != nil {
		// malformed payloads are logged and dropped, not retried
		h.log.Warn("dropping malformed sample message",
			applogger.String("pond", m.PondID),
			applogger.Error(err))
		return nil
	}

	return h.pipeline.Process(ctx, sample)
}

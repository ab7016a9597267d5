package models

// PredictRequest is the ingestion payload: a loose map of sensor readings.
// Values may be numbers or numeric strings; fields may be absent entirely.
type PredictRequest struct {
	Input map[string]interface{} `json:"input" validate:"required"`
}

// PredictResponse mirrors the ensemble output on the wire.
type PredictResponse struct {
	RF              Continuous     `json:"rf"`
	SVM             Classification `json:"svm"`
	KNN             KNNEstimate    `json:"knn"`
	KNNFallbackUsed bool           `json:"knn_fallback_used"`
}

// HistoryQuery bounds history reads.
type HistoryQuery struct {
	Limit int `query:"limit" default:"200" validate:"gte=1,lte=10000"`
}

// HistoryCSVQuery bounds CSV exports.
type HistoryCSVQuery struct {
	Limit int `query:"limit" default:"10000" validate:"gte=1,lte=1000000"`
}

// FeedEvent is the live-feed payload pushed to websocket subscribers:
// the ingestion response shape plus the originating timestamp and sensors.
type FeedEvent struct {
	TS      int64              `json:"ts"`
	Sensors map[string]float64 `json:"sensors"`
	RF      Continuous         `json:"rf"`
	SVM     Classification     `json:"svm"`
	KNN     KNNEstimate        `json:"knn"`
}

// DecisionEvent is the decision export published to the event topic.
type DecisionEvent struct {
	TS       int64    `json:"ts"`
	Decision Decision `json:"decision"`
}

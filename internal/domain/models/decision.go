package models

import "time"

// ActionType is the recommended intervention for a pond.
type ActionType string

const (
	ActionNone             ActionType = "no_action"
	ActionMonitorClosely   ActionType = "monitor_closely"
	ActionAdjustFeed       ActionType = "adjust_feed"
	ActionWaterExchange    ActionType = "water_exchange"
	ActionIncreaseAeration ActionType = "increase_aeration"
	ActionAllocateWorkers  ActionType = "allocate_workers"
	ActionEmergency        ActionType = "emergency_response"
)

// Decision is one pond's evaluation result. Decisions are immutable and
// superseded, never mutated, by later evaluations.
type Decision struct {
	PondID    string    `json:"pond_id"`
	Timestamp time.Time `json:"timestamp"`

	UrgencyScore     float64      `json:"urgency_score"` // [0,1]
	PrimaryAction    ActionType   `json:"primary_action"`
	SecondaryActions []ActionType `json:"secondary_actions,omitempty"`
	Confidence       float64      `json:"confidence"` // [0,1]

	AffectedFactors []string `json:"affected_factors"`
	Reasoning       string   `json:"reasoning"`

	// Tier records which scorer produced the decision. A value below the
	// configured tier is the informational degraded marker, not an error.
	Tier string `json:"tier"`

	// Operational recommendations, 0-1 levels.
	RecommendedAeratorLevel float64 `json:"recommended_aerator_level"`
	RecommendedPumpLevel    float64 `json:"recommended_pump_level"`
	RecommendedHeaterLevel  float64 `json:"recommended_heater_level"`

	// RecommendedFeedRate is a multiplier on the normal ration. Feeding
	// stops entirely below critical oxygen.
	RecommendedFeedRate float64 `json:"recommended_feed_rate"`
}

// MultiPondDecision is the cross-pond prioritization snapshot. Derived,
// recomputed per snapshot, never canonical state.
type MultiPondDecision struct {
	Timestamp          time.Time           `json:"timestamp"`
	PondPriorities     map[string]int      `json:"pond_priorities"` // pond id -> 1-based rank
	UrgentPonds        []string            `json:"urgent_ponds"`
	Decisions          map[string]Decision `json:"recommended_actions"`
	ResourceAllocation map[string]float64  `json:"resource_allocation"`
	OverallUrgency     float64             `json:"overall_urgency"`
}

// HistoryRecord is one append-only log entry: the sample plus everything the
// ensemble produced for it. ID ordering is the sole ordering guarantee.
type HistoryRecord struct {
	ID      uint64             `json:"id"`
	TS      int64              `json:"ts"`
	Sensors map[string]float64 `json:"sensors"`
	RF      Continuous         `json:"rf"`
	SVM     Classification     `json:"svm"`
	KNN     KNNEstimate        `json:"knn"`
}

package models

// QualityStatus is the coarse water-quality class produced by the classifier.
type QualityStatus string

const (
	StatusExcellent QualityStatus = "excellent"
	StatusGood      QualityStatus = "good"
	StatusFair      QualityStatus = "fair"
	StatusPoor      QualityStatus = "poor"
	StatusCritical  QualityStatus = "critical"
	StatusUnknown   QualityStatus = "unknown"
)

// NormalizeStatus maps classifier labels onto the canonical status set.
// Older artifacts ship the 3-class Good/Warning/Dangerous labelling.
func NormalizeStatus(label string) QualityStatus {
	switch label {
	case "excellent", "Excellent":
		return StatusExcellent
	case "good", "Good":
		return StatusGood
	case "fair", "Fair", "warning", "Warning":
		return StatusFair
	case "poor", "Poor":
		return StatusPoor
	case "critical", "Critical", "dangerous", "Dangerous":
		return StatusCritical
	default:
		return StatusUnknown
	}
}

// UrgencyWeight is the status contribution to the urgency score.
func (s QualityStatus) UrgencyWeight() float64 {
	switch s {
	case StatusExcellent:
		return 0.0
	case StatusGood:
		return 0.05
	case StatusFair:
		return 0.2
	case StatusPoor:
		return 0.4
	case StatusCritical:
		return 0.65
	default:
		// Unclassified readings are treated as fair until proven otherwise.
		return 0.2
	}
}

// Continuous holds the multi-output regressor estimate. JSON names follow the
// training schema so dashboards can consume the payload as-is.
type Continuous struct {
	DO      float64 `json:"DO(mg/L)"`
	PH      float64 `json:"pH"`
	Ammonia float64 `json:"Ammonia (mg L-1 )"`
	Note    string  `json:"note,omitempty"`
	Alert   string  `json:"alert,omitempty"`
	Action  string  `json:"action,omitempty"`
}

// Classification holds the discrete quality class and its distribution.
type Classification struct {
	Class         int       `json:"class"`
	Label         string    `json:"label,omitempty"`
	Probabilities []float64 `json:"probabilities,omitempty"`
}

// Status returns the normalized quality status for the predicted class.
func (c *Classification) Status() QualityStatus {
	if c == nil {
		return StatusUnknown
	}
	return NormalizeStatus(c.Label)
}

// TopProbability returns the probability of the predicted class, or 0 when
// the artifact did not ship a probability model.
func (c *Classification) TopProbability() float64 {
	if c == nil || c.Class < 0 || c.Class >= len(c.Probabilities) {
		return 0
	}
	return c.Probabilities[c.Class]
}

// KNNEstimate is the nearest-neighbour DO-only regression output.
type KNNEstimate struct {
	DO float64 `json:"DO(mg/L)"`
}

// PredictionSet is the full ensemble output for one sample. Immutable.
type PredictionSet struct {
	Continuous     Continuous
	Classification Classification
	FallbackDO     float64
	FallbackUsed   bool
	Note           string
}

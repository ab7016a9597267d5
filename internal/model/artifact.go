package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// ErrModelUnavailable indicates a model artifact is missing or failed to
// load. Fatal for the calling request only, never for the process.
var ErrModelUnavailable = errors.New("model artifact unavailable")

// Artifact kinds.
const (
	KindMultiRegressor = "regressor_multi"
	KindClassifier     = "classifier"
	KindKNN            = "knn"
	KindRegressor      = "regressor"
)

// Neighbor is one stored training point of a KNN artifact.
type Neighbor struct {
	Features []float64 `json:"features"`
	Target   float64   `json:"target"`
}

// Artifact is an exported, versioned model file. The feature name order it
// declares must be honored exactly when building input vectors.
type Artifact struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Kind         string   `json:"kind"`
	FeatureNames []string `json:"feature_names"`

	// Regressors: one weight row per output.
	Outputs    []string    `json:"outputs,omitempty"`
	Weights    [][]float64 `json:"weights,omitempty"`
	Intercepts []float64   `json:"intercepts,omitempty"`

	// Classifier: one coefficient row per class.
	Labels       []string    `json:"labels,omitempty"`
	Coefficients [][]float64 `json:"coefficients,omitempty"`
	Biases       []float64   `json:"biases,omitempty"`

	// KNN.
	K         int        `json:"k,omitempty"`
	Neighbors []Neighbor `json:"neighbors,omitempty"`
}

func loadArtifact(dir, name string) (*Artifact, error) {
	path := filepath.Join(dir, name+".json")
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModelUnavailable, name, err)
	}
	var a Artifact
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModelUnavailable, name, err)
	}
	if err := a.validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModelUnavailable, name, err)
	}
	if a.Name == "" {
		a.Name = name
	}
	return &a, nil
}

func (a *Artifact) validate() error {
	if len(a.FeatureNames) == 0 {
		return fmt.Errorf("artifact missing feature names")
	}
	n := len(a.FeatureNames)
	switch a.Kind {
	case KindMultiRegressor, KindRegressor:
		if len(a.Weights) == 0 || len(a.Weights) != len(a.Intercepts) {
			return fmt.Errorf("regressor weight/intercept shape mismatch")
		}
		for _, row := range a.Weights {
			if len(row) != n {
				return fmt.Errorf("regressor weight row length %d != %d features", len(row), n)
			}
		}
	case KindClassifier:
		if len(a.Coefficients) == 0 || len(a.Coefficients) != len(a.Labels) || len(a.Biases) != len(a.Labels) {
			return fmt.Errorf("classifier coefficient/label shape mismatch")
		}
		for _, row := range a.Coefficients {
			if len(row) != n {
				return fmt.Errorf("classifier coefficient row length %d != %d features", len(row), n)
			}
		}
	case KindKNN:
		if a.K <= 0 || len(a.Neighbors) == 0 {
			return fmt.Errorf("knn artifact missing neighbors")
		}
		for _, nb := range a.Neighbors {
			if len(nb.Features) != n {
				return fmt.Errorf("knn neighbor feature length %d != %d features", len(nb.Features), n)
			}
		}
	default:
		return fmt.Errorf("unknown artifact kind %q", a.Kind)
	}
	return nil
}

// PredictRegression evaluates the linear regressor rows against x.
func (a *Artifact) PredictRegression(x []float64) ([]float64, error) {
	if a.Kind != KindMultiRegressor && a.Kind != KindRegressor {
		return nil, fmt.Errorf("artifact %s is not a regressor", a.Name)
	}
	if len(x) != len(a.FeatureNames) {
		return nil, fmt.Errorf("feature vector length %d != %d", len(x), len(a.FeatureNames))
	}
	out := make([]float64, len(a.Weights))
	for i, row := range a.Weights {
		v := a.Intercepts[i]
		for j, w := range row {
			v += w * x[j]
		}
		out[i] = v
	}
	return out, nil
}

// PredictClass evaluates the classifier and returns the predicted class
// index together with the softmax probability distribution.
func (a *Artifact) PredictClass(x []float64) (int, []float64, error) {
	if a.Kind != KindClassifier {
		return 0, nil, fmt.Errorf("artifact %s is not a classifier", a.Name)
	}
	if len(x) != len(a.FeatureNames) {
		return 0, nil, fmt.Errorf("feature vector length %d != %d", len(x), len(a.FeatureNames))
	}
	logits := make([]float64, len(a.Coefficients))
	maxLogit := math.Inf(-1)
	for i, row := range a.Coefficients {
		v := a.Biases[i]
		for j, w := range row {
			v += w * x[j]
		}
		logits[i] = v
		if v > maxLogit {
			maxLogit = v
		}
	}
	probs := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		probs[i] = math.Exp(v - maxLogit)
		sum += probs[i]
	}
	best := 0
	for i := range probs {
		probs[i] /= sum
		if probs[i] > probs[best] {
			best = i
		}
	}
	return best, probs, nil
}

// PredictKNN returns the inverse-distance weighted mean target of the k
// nearest stored neighbors.
func (a *Artifact) PredictKNN(x []float64) (float64, error) {
	if a.Kind != KindKNN {
		return 0, fmt.Errorf("artifact %s is not a knn model", a.Name)
	}
	if len(x) != len(a.FeatureNames) {
		return 0, fmt.Errorf("feature vector length %d != %d", len(x), len(a.FeatureNames))
	}

	type scored struct {
		dist   float64
		target float64
	}
	nearest := make([]scored, 0, a.K)
	for _, nb := range a.Neighbors {
		var d float64
		for j := range x {
			diff := x[j] - nb.Features[j]
			d += diff * diff
		}
		s := scored{dist: math.Sqrt(d), target: nb.Target}
		// Insertion into a small sorted slice; K is single-digit in practice.
		pos := len(nearest)
		for i, cur := range nearest {
			if s.dist < cur.dist {
				pos = i
				break
			}
		}
		if pos < a.K {
			if len(nearest) < a.K {
				nearest = append(nearest, scored{})
			}
			copy(nearest[pos+1:], nearest[pos:])
			nearest[pos] = s
		}
	}

	const eps = 1e-9
	var num, den float64
	for _, s := range nearest {
		w := 1.0 / (s.dist + eps)
		num += w * s.target
		den += w
	}
	if den == 0 {
		return 0, fmt.Errorf("knn %s has no usable neighbors", a.Name)
	}
	return num / den, nil
}

package model

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeArtifact(t *testing.T, dir, name string, a *Artifact) {
	t.Helper()
	b, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".json"), b, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestRegressorPredict(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "reg", &Artifact{
		Kind:         KindMultiRegressor,
		FeatureNames: []string{"a", "b"},
		Outputs:      []string{"y1", "y2"},
		Weights:      [][]float64{{1, 2}, {0, 1}},
		Intercepts:   []float64{0.5, -1},
	})

	c := NewCache(dir)
	a, err := c.Get("reg")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	out, err := a.PredictRegression([]float64{1, 3})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if out[0] != 7.5 || out[1] != 2 {
		t.Fatalf("unexpected outputs %v", out)
	}
}

func TestClassifierProbabilitiesSumToOne(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "cls", &Artifact{
		Kind:         KindClassifier,
		FeatureNames: []string{"x"},
		Labels:       []string{"good", "fair", "critical"},
		Coefficients: [][]float64{{1}, {0}, {-1}},
		Biases:       []float64{0, 0, 0},
	})

	a, err := NewCache(dir).Get("cls")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	class, probs, err := a.PredictClass([]float64{2})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if class != 0 {
		t.Fatalf("expected class 0, got %d", class)
	}
	var sum float64
	for _, p := range probs {
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("probabilities sum %v", sum)
	}
}

func TestKNNPrefersNearestNeighbors(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "knn", &Artifact{
		Kind:         KindKNN,
		FeatureNames: []string{"x"},
		K:            2,
		Neighbors: []Neighbor{
			{Features: []float64{0}, Target: 5},
			{Features: []float64{0.1}, Target: 5.2},
			{Features: []float64{100}, Target: 1},
		},
	})

	a, err := NewCache(dir).Get("knn")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got, err := a.PredictKNN([]float64{0.05})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if got < 5 || got > 5.2 {
		t.Fatalf("expected estimate near 5, got %v", got)
	}
}

func TestCacheMissingArtifact(t *testing.T) {
	c := NewCache(t.TempDir())
	if _, err := c.Get("nope"); !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
	// The failure is cached; a second call behaves the same.
	if _, err := c.Get("nope"); !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable on repeat, got %v", err)
	}
}

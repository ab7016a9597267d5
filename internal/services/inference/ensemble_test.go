package inference

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"AquaWatch/internal/domain/models"
	"AquaWatch/internal/model"
	"AquaWatch/pkg/logger"
)

var testFeatures = []string{models.FieldDO, models.FieldPH, models.FieldAmmonia, models.FieldTemp}

func writeTestArtifacts(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	write := func(name string, a *model.Artifact) {
		b, err := json.Marshal(a)
		if err != nil {
			t.Fatalf("marshal %s: %v", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name+".json"), b, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	// Identity regressor: predicted DO/pH/ammonia mirror the inputs.
	write(model.ArtifactRegressor, &model.Artifact{
		Kind:         model.KindMultiRegressor,
		FeatureNames: testFeatures,
		Outputs:      []string{models.FieldDO, models.FieldPH, models.FieldAmmonia},
		Weights: [][]float64{
			{1, 0, 0, 0},
			{0, 1, 0, 0},
			{0, 0, 1, 0},
		},
		Intercepts: []float64{0, 0, 0},
	})
	write(model.ArtifactClassifier, &model.Artifact{
		Kind:         model.KindClassifier,
		FeatureNames: testFeatures,
		Labels:       []string{"good", "critical"},
		Coefficients: [][]float64{{0, 0, 0, 0}, {0, 0, 0, 0}},
		Biases:       []float64{1, 0},
	})
	write(model.ArtifactKNN, &model.Artifact{
		Kind:         model.KindKNN,
		FeatureNames: testFeatures,
		K:            1,
		Neighbors:    []model.Neighbor{{Features: []float64{0, 0, 0, 0}, Target: 4.2}},
	})
	return dir
}

func newTestEnsemble(t *testing.T) *Ensemble {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return New(model.NewCache(writeTestArtifacts(t)), log)
}

func TestInferNoFallbackWhenDOPresent(t *testing.T) {
	e := newTestEnsemble(t)
	ps, err := e.Infer(context.Background(), &models.SensorSample{
		PondID:    "POND_01",
		Timestamp: 1,
		Fields:    map[string]float64{models.FieldDO: 6.0, models.FieldPH: 7.8, models.FieldAmmonia: 0.05, models.FieldTemp: 28},
	})
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	if ps.FallbackUsed {
		t.Fatalf("fallback must not trigger when DO is present and positive")
	}
	if ps.Continuous.DO != 6.0 {
		t.Fatalf("reported DO %v must equal regressor output", ps.Continuous.DO)
	}
	if ps.Note != "" {
		t.Fatalf("unexpected note %q", ps.Note)
	}
}

func TestInferFallbackWhenDOMissing(t *testing.T) {
	e := newTestEnsemble(t)
	ps, err := e.Infer(context.Background(), &models.SensorSample{
		PondID:    "POND_01",
		Timestamp: 1,
		Fields:    map[string]float64{models.FieldPH: 7.8, models.FieldAmmonia: 0.05, models.FieldTemp: 28},
	})
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	if !ps.FallbackUsed {
		t.Fatalf("fallback must trigger when DO is absent")
	}
	if ps.Continuous.DO != 4.2 {
		t.Fatalf("reported DO %v must equal the knn estimate", ps.Continuous.DO)
	}
	if ps.Note != FallbackNote {
		t.Fatalf("unexpected note %q", ps.Note)
	}
}

func TestInferFallbackWhenDONonPositive(t *testing.T) {
	e := newTestEnsemble(t)
	ps, err := e.Infer(context.Background(), &models.SensorSample{
		PondID:    "POND_01",
		Timestamp: 1,
		Fields:    map[string]float64{models.FieldDO: 0, models.FieldTemp: 28},
	})
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	if !ps.FallbackUsed || ps.Continuous.DO != 4.2 {
		t.Fatalf("expected fallback DO 4.2, got fallback=%v DO=%v", ps.FallbackUsed, ps.Continuous.DO)
	}
}

func TestInferMissingFeatureFilledWithZero(t *testing.T) {
	e := newTestEnsemble(t)
	// pH absent: the identity regressor sees 0.0 for it.
	ps, err := e.Infer(context.Background(), &models.SensorSample{
		PondID: "POND_01",
		Fields: map[string]float64{models.FieldDO: 6.0},
	})
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	if ps.Continuous.PH != 0 {
		t.Fatalf("missing feature must be filled with 0.0, got %v", ps.Continuous.PH)
	}
}

func TestInferModelUnavailable(t *testing.T) {
	log, _ := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	e := New(model.NewCache(t.TempDir()), log)
	_, err := e.Infer(context.Background(), &models.SensorSample{Fields: map[string]float64{}})
	if !errors.Is(err, model.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestInferDOTrendAlert(t *testing.T) {
	e := newTestEnsemble(t)
	// Identity regressor forecasts DO 3.0 from the reading itself; the trend
	// heuristic reports immediate action since there is no downward slope.
	ps, err := e.Infer(context.Background(), &models.SensorSample{
		PondID: "POND_01",
		Fields: map[string]float64{models.FieldDO: 3.0, models.FieldTemp: 28},
	})
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	if ps.Continuous.Alert == "" || ps.Continuous.Action == "" {
		t.Fatalf("expected alert and action for low predicted DO, got %+v", ps.Continuous)
	}
}

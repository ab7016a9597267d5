package decision

import (
	"context"
	"testing"

	"AquaWatch/internal/domain/models"
	"AquaWatch/internal/model"
	"AquaWatch/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func sampleWith(fields map[string]float64) *models.SensorSample {
	return &models.SensorSample{PondID: "POND_01", Timestamp: 1, Fields: fields}
}

func predsWithStatus(label string) *models.PredictionSet {
	return &models.PredictionSet{
		Classification: models.Classification{Class: 0, Label: label, Probabilities: []float64{1}},
	}
}

func TestRuleScorerCriticalScenario(t *testing.T) {
	s := NewRuleScorer(NewTemplateReasoner())
	d, err := s.Decide(context.Background(), sampleWith(map[string]float64{
		models.FieldDO: 2.0, models.FieldAmmonia: 0.1, models.FieldTemp: 28,
	}), predsWithStatus("critical"))
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if d.PrimaryAction != models.ActionEmergency {
		t.Fatalf("expected emergency_response, got %s", d.PrimaryAction)
	}
	if d.UrgencyScore < 0.9 {
		t.Fatalf("urgency %v, want >= 0.9", d.UrgencyScore)
	}
	if d.Confidence < 0.9 {
		t.Fatalf("emergency confidence %v, want >= 0.9", d.Confidence)
	}
	if d.Reasoning == "" {
		t.Fatalf("reasoning must be non-empty")
	}
}

func TestRuleScorerHealthyScenario(t *testing.T) {
	s := NewRuleScorer(NewTemplateReasoner())
	d, err := s.Decide(context.Background(), sampleWith(map[string]float64{
		models.FieldDO: 6.0, models.FieldAmmonia: 0.05, models.FieldTemp: 28,
	}), predsWithStatus("good"))
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if d.PrimaryAction != models.ActionNone && d.PrimaryAction != models.ActionMonitorClosely {
		t.Fatalf("expected no_action or monitor_closely, got %s", d.PrimaryAction)
	}
	if d.UrgencyScore >= 0.3 {
		t.Fatalf("urgency %v, want < 0.3", d.UrgencyScore)
	}
	if d.Confidence < 0.6 || d.Confidence > 0.85 {
		t.Fatalf("rule confidence %v out of [0.6, 0.85]", d.Confidence)
	}
}

func TestRuleScorerAmmoniaTriggersWaterExchange(t *testing.T) {
	s := NewRuleScorer(NewTemplateReasoner())
	d, err := s.Decide(context.Background(), sampleWith(map[string]float64{
		models.FieldDO: 6.5, models.FieldAmmonia: 0.35, models.FieldTemp: 28,
	}), predsWithStatus("fair"))
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if d.PrimaryAction != models.ActionWaterExchange {
		t.Fatalf("expected water_exchange, got %s", d.PrimaryAction)
	}
}

func TestUrgencyMonotonicInAmmonia(t *testing.T) {
	s := NewRuleScorer(NewTemplateReasoner())
	var prev float64
	for _, ammonia := range []float64{0.1, 0.3, 0.6} {
		d, err := s.Decide(context.Background(), sampleWith(map[string]float64{
			models.FieldDO: 6.0, models.FieldAmmonia: ammonia, models.FieldTemp: 28,
		}), predsWithStatus("good"))
		if err != nil {
			t.Fatalf("decide: %v", err)
		}
		if d.UrgencyScore < prev {
			t.Fatalf("urgency decreased from %v to %v at ammonia %v", prev, d.UrgencyScore, ammonia)
		}
		prev = d.UrgencyScore
	}
}

func TestRuleScorerEfficiencyContributions(t *testing.T) {
	s := NewRuleScorer(NewTemplateReasoner())
	d, err := s.Decide(context.Background(), sampleWith(map[string]float64{
		models.FieldDO: 6.0, models.FieldTemp: 28,
		models.FieldEnergyEff: 0.5, models.FieldLaborEff: 0.55,
	}), predsWithStatus("good"))
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if d.PrimaryAction != models.ActionAllocateWorkers {
		t.Fatalf("expected allocate_workers, got %s", d.PrimaryAction)
	}
}

func TestMinimalScorerDOOnly(t *testing.T) {
	s := NewMinimalScorer(NewTemplateReasoner())
	d, err := s.Decide(context.Background(), sampleWith(map[string]float64{
		models.FieldDO: 2.5,
	}), nil)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if d.PrimaryAction != models.ActionEmergency {
		t.Fatalf("expected emergency_response for DO 2.5, got %s", d.PrimaryAction)
	}
}

func TestEngineDowngradesToRulesWithoutArtifacts(t *testing.T) {
	e := NewEngine(TierML, model.NewCache(t.TempDir()), NewTemplateReasoner(), testLogger(t), nil)
	d := e.Decide(context.Background(), sampleWith(map[string]float64{
		models.FieldDO: 6.0, models.FieldTemp: 28,
	}), predsWithStatus("good"))
	if d == nil {
		t.Fatalf("engine must always produce a decision")
	}
	if d.Tier != TierRules {
		t.Fatalf("expected rules tier after downgrade, got %s", d.Tier)
	}
}

func TestEngineStartsAtConfiguredTier(t *testing.T) {
	e := NewEngine(TierMinimal, model.NewCache(t.TempDir()), NewTemplateReasoner(), testLogger(t), nil)
	d := e.Decide(context.Background(), sampleWith(map[string]float64{models.FieldDO: 6.0}), nil)
	if d.Tier != TierMinimal {
		t.Fatalf("expected minimal tier, got %s", d.Tier)
	}
}

func TestFeedRateStopsBelowCriticalDO(t *testing.T) {
	s := NewRuleScorer(NewTemplateReasoner())
	d, err := s.Decide(context.Background(), sampleWith(map[string]float64{
		models.FieldDO: 2.5, models.FieldTemp: 28,
	}), predsWithStatus("critical"))
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if d.RecommendedFeedRate != 0 {
		t.Fatalf("feed rate %v, want 0 below critical oxygen", d.RecommendedFeedRate)
	}
}

func TestFeedRateNormalWhenHealthy(t *testing.T) {
	s := NewRuleScorer(NewTemplateReasoner())
	d, err := s.Decide(context.Background(), sampleWith(map[string]float64{
		models.FieldDO: 6.5, models.FieldAmmonia: 0.05, models.FieldTemp: 28,
	}), predsWithStatus("good"))
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if d.RecommendedFeedRate != 1.0 {
		t.Fatalf("feed rate %v, want full ration in healthy conditions", d.RecommendedFeedRate)
	}
}

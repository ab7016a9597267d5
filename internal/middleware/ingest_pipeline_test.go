package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"AquaWatch/internal/domain/models"
)

type stubMetrics struct{}

func (stubMetrics) RecordSample(string)           {}
func (stubMetrics) RecordFallback(string)         {}
func (stubMetrics) RecordDecision(string)         {}
func (stubMetrics) RecordBroadcast(int, int)      {}
func (stubMetrics) RecordUrgency(string, float64) {}
func (stubMetrics) RecordError(string)            {}
func (stubMetrics) RecordLatency(string, float64) {}

type failingProc struct {
	mu       sync.Mutex
	attempts int
}

func (f *failingProc) Process(ctx context.Context, s *models.SensorSample) error {
	f.mu.Lock()
	f.attempts++
	f.mu.Unlock()
	return errors.New("downstream unavailable")
}

func (f *failingProc) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

func testSample(pond string) *models.SensorSample {
	return &models.SensorSample{
		PondID:    pond,
		Timestamp: time.Now().Unix(),
		Fields:    map[string]float64{models.FieldDO: 6.0},
	}
}

func TestProcessRejectsInvalidSample(t *testing.T) {
	p := NewIngestPipeline(&failingProc{}, stubMetrics{})
	if err := p.Process(context.Background(), nil); err == nil {
		t.Fatalf("nil sample must be rejected")
	}
	if err := p.Process(context.Background(), &models.SensorSample{PondID: "POND_01", Timestamp: 1}); err == nil {
		t.Fatalf("sample without fields must be rejected")
	}
}

func TestProcessThrottlesPerPond(t *testing.T) {
	proc := &failingProc{}
	p := NewIngestPipeline(proc, stubMetrics{}, WithMaxRPS(1), WithBufferSize(8))

	_ = p.Process(context.Background(), testSample("POND_01"))
	if proc.count() != 1 {
		t.Fatalf("first sample must reach downstream, attempts %d", proc.count())
	}
	// second sample inside the same second is throttled, not forwarded
	if err := p.Process(context.Background(), testSample("POND_01")); err != nil {
		t.Fatalf("throttled sample must be dropped silently, got %v", err)
	}
	if proc.count() != 1 {
		t.Fatalf("throttled sample reached downstream, attempts %d", proc.count())
	}
	// a different pond has its own bucket
	_ = p.Process(context.Background(), testSample("POND_02"))
	if proc.count() != 2 {
		t.Fatalf("second pond must not be throttled, attempts %d", proc.count())
	}
}

func TestStopReturnsDuringBackoff(t *testing.T) {
	proc := &failingProc{}
	p := NewIngestPipeline(proc, stubMetrics{}, WithMaxRPS(1000), WithBufferSize(8))
	p.Start(context.Background())

	if err := p.Process(context.Background(), testSample("POND_01")); err == nil {
		t.Fatalf("expected downstream error")
	}

	// let the flusher retry until its pending backoff exceeds the stop bound
	deadline := time.Now().Add(3 * time.Second)
	for proc.count() < 4 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if proc.count() < 4 {
		t.Fatalf("flusher retried only %d times", proc.count())
	}

	start := time.Now()
	p.Stop()
	if d := time.Since(start); d > 300*time.Millisecond {
		t.Fatalf("stop stalled %v waiting out a backoff sleep", d)
	}
}

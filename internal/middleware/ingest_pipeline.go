package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"AquaWatch/internal/domain/models"
	domrepo "AquaWatch/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, sample *models.SensorSample) error
}

// IngestPipeline sits between a sample source (simulator, Kafka topic) and
// the processor. It validates, throttles per pond, and buffers when the
// downstream is briefly unavailable.
type IngestPipeline struct {
	proc      Proc
	metrics   domrepo.Metrics
	maxRPS    int
	bufSize   int
	bufCh     chan *models.SensorSample
	stopCh    chan struct{}
	flushDone chan struct{}
	started   bool
	mu        sync.Mutex
	lastSeen  map[string]time.Time // per-pond last accepted time
}

type PipelineOption func(*IngestPipeline)

// WithMaxRPS sets the max samples per second per pond.
func WithMaxRPS(n int) PipelineOption {
	return func(p *IngestPipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *IngestPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewIngestPipeline creates a new pipeline.
func NewIngestPipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *IngestPipeline {
	p := &IngestPipeline{
		proc:     proc,
		metrics:  metrics,
		maxRPS:   10,
		bufSize:  1000,
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.SensorSample, p.bufSize)
	return p
}

// Start launches background flushing of buffered samples.
func (p *IngestPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.flushDone = make(chan struct{})
	p.mu.Unlock()

	go func() {
		defer close(p.flushDone)
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case s := <-p.bufCh:
				if s == nil {
					continue
				}
				if err := p.proc.Process(ctx, s); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					select {
					case <-p.stopCh:
						return
					case <-time.After(backoff):
					}
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- s:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *IngestPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	done := p.flushDone
	p.mu.Unlock()
	close(p.stopCh)
	if done != nil {
		<-done
	}
}

// Process validates, throttles, and forwards a sample downstream, buffering
// on downstream failure.
func (p *IngestPipeline) Process(ctx context.Context, s *models.SensorSample) error {
	start := time.Now()
	if err := validateSample(s); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(s.PondID, start) {
		// throttled; record and drop
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, s); err != nil {
		p.metrics.RecordError("pipeline_process")
		select {
		case p.bufCh <- s:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateSample(s *models.SensorSample) error {
	if s == nil {
		return fmt.Errorf("sample nil")
	}
	if s.PondID == "" {
		return fmt.Errorf("pond id empty")
	}
	if s.Timestamp <= 0 {
		return fmt.Errorf("timestamp invalid")
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("no sensor fields")
	}
	return nil
}

func (p *IngestPipeline) allow(pond string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[pond]
	if last.IsZero() || now.Sub(last) >= time.Second/time.Duration(p.maxRPS) {
		p.lastSeen[pond] = now
		return true
	}
	return false
}

package usecase

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"AquaWatch/internal/domain/models"
	"AquaWatch/internal/middleware"
	applogger "AquaWatch/pkg/logger"
)

// doMissingRate is the fraction of readings emitted without a DO value,
// exercising the estimation fallback end to end.
const doMissingRate = 0.03

// SimulatorOptions configures the sensor simulator.
type SimulatorOptions struct {
	Ponds       []string
	IntervalMin time.Duration
	IntervalMax time.Duration
	Mode        string // normal, stress, danger
}

// Simulator generates drifting sensor readings per pond and pushes them
// through the ingest pipeline. It stands in for real pond telemetry in
// development and load testing.
type Simulator struct {
	opts     SimulatorOptions
	pipeline *middleware.IngestPipeline
	log      *applogger.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type pondState struct {
	rng          *rand.Rand
	do           float64
	temp         float64
	ph           float64
	ammonia      float64
	nitrite      float64
	turbidityCm  float64
	turbidityNTU float64
	energyEff    float64
	laborEff     float64
	pendingTasks float64
}

func NewSimulator(opts SimulatorOptions, pipeline *middleware.IngestPipeline, log *applogger.Logger) *Simulator {
	if opts.IntervalMin <= 0 {
		opts.IntervalMin = 2 * time.Second
	}
	if opts.IntervalMax < opts.IntervalMin {
		opts.IntervalMax = opts.IntervalMin
	}
	return &Simulator{
		opts:     opts,
		pipeline: pipeline,
		log:      log,
		stopCh:   make(chan struct{}),
	}
}

// Start launches one generator goroutine per pond.
func (s *Simulator) Start(ctx context.Context) {
	for i, pond := range s.opts.Ponds {
		s.wg.Add(1)
		go s.run(ctx, pond, int64(i))
	}
	s.log.Info("simulator started",
		applogger.Int("ponds", len(s.opts.Ponds)),
		applogger.String("mode", s.opts.Mode))
}

// Stop terminates all generators and waits for them to finish.
func (s *Simulator) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
	s.log.Info("simulator stopped")
}

func (s *Simulator) run(ctx context.Context, pond string, seed int64) {
	defer s.wg.Done()

	st := newPondState(seed, s.opts.Mode)
	for {
		if !s.sleep(st.nextInterval(s.opts.IntervalMin, s.opts.IntervalMax)) {
			return
		}

		sample := st.next(pond, s.opts.Mode)
		if err := s.pipeline.Process(ctx, sample); err != nil {
			s.log.Warn("simulated sample rejected",
				applogger.String("pond", pond),
				applogger.Error(err))
		}
	}
}

// sleep waits for d but reacts to Stop within 200ms.
func (s *Simulator) sleep(d time.Duration) bool {
	deadline := time.Now().Add(d)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return true
		}
		step := 200 * time.Millisecond
		if remaining < step {
			step = remaining
		}
		select {
		case <-s.stopCh:
			return false
		case <-time.After(step):
		}
	}
}

func newPondState(seed int64, mode string) *pondState {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + seed))
	st := &pondState{
		rng:          rng,
		do:           5.5 + rng.Float64()*2.0,
		temp:         27.0 + rng.Float64()*2.0,
		ph:           7.8 + rng.Float64()*0.4,
		ammonia:      0.05 + rng.Float64()*0.05,
		nitrite:      0.03 + rng.Float64()*0.04,
		turbidityCm:  30.0 + rng.Float64()*10.0,
		turbidityNTU: 4.0 + rng.Float64()*2.0,
		energyEff:    0.8 + rng.Float64()*0.15,
		laborEff:     0.75 + rng.Float64()*0.2,
		pendingTasks: float64(rng.Intn(3)),
	}
	switch mode {
	case "stress":
		st.ammonia += 0.15
		st.do -= 1.0
	case "danger":
		st.ammonia += 0.45
		st.do = 2.5
	}
	return st
}

func (st *pondState) nextInterval(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(st.rng.Int63n(int64(max-min)))
}

// next drifts each reading by a small random walk and clamps to plausible
// ranges. DO additionally dips at night, matching pond oxygen dynamics.
func (st *pondState) next(pond, mode string) *models.SensorSample {
	st.do = clampWalk(st.rng, st.do, 0.25, 0.2, 12.0)
	st.temp = clampWalk(st.rng, st.temp, 0.2, 20.0, 36.0)
	st.ph = clampWalk(st.rng, st.ph, 0.05, 6.0, 9.5)
	st.ammonia = clampWalk(st.rng, st.ammonia, 0.02, 0.0, 1.5)
	st.nitrite = clampWalk(st.rng, st.nitrite, 0.01, 0.0, 0.8)
	st.turbidityCm = clampWalk(st.rng, st.turbidityCm, 1.0, 10.0, 60.0)
	st.turbidityNTU = clampWalk(st.rng, st.turbidityNTU, 0.4, 0.5, 20.0)
	st.energyEff = clampWalk(st.rng, st.energyEff, 0.02, 0.3, 1.0)
	st.laborEff = clampWalk(st.rng, st.laborEff, 0.02, 0.3, 1.0)
	if st.rng.Float64() < 0.1 {
		st.pendingTasks = float64(st.rng.Intn(5))
	}

	do := st.do
	hour := time.Now().Hour()
	if hour >= 22 || hour < 5 {
		// photosynthesis stops at night
		do -= 0.8
		if do < 0.2 {
			do = 0.2
		}
	}
	if mode == "stress" && st.rng.Float64() < 0.15 {
		// transient ammonia spike
		st.ammonia += 0.2
	}

	fields := map[string]float64{
		models.FieldTemp:         round1(st.temp),
		models.FieldTurbidity:    round1(st.turbidityCm),
		models.FieldPH:           round2(st.ph),
		models.FieldAmmonia:      round3(st.ammonia),
		models.FieldNitrite:      round3(st.nitrite),
		models.FieldTurbidityNTU: round1(st.turbidityNTU),
		models.FieldEnergyEff:    round2(st.energyEff),
		models.FieldLaborEff:     round2(st.laborEff),
		models.FieldPendingTasks: st.pendingTasks,
	}
	// a few readings lose the DO sensor entirely
	if st.rng.Float64() >= doMissingRate {
		fields[models.FieldDO] = round2(do)
	}

	return &models.SensorSample{
		PondID:    pond,
		Timestamp: time.Now().Unix(),
		Fields:    fields,
	}
}

func clampWalk(rng *rand.Rand, v, step, lo, hi float64) float64 {
	v += (rng.Float64()*2 - 1) * step
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 { return float64(int(v*10+0.5)) / 10 }
func round2(v float64) float64 { return float64(int(v*100+0.5)) / 100 }
func round3(v float64) float64 { return float64(int(v*1000+0.5)) / 1000 }

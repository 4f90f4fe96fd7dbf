package sensor

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LHacuevas/strideSync/internal/cadence"
)

// SimulatedRate is the sample rate of the simulated runner, in Hz
const SimulatedRate = 50

// MaxSimulatedSPM caps the simulated cadence
const MaxSimulatedSPM = 240

const (
	standardGravity = 9.81
	footfallImpulse = 6.0  // vertical spike on each footfall, m/s²
	sensorNoise     = 0.15 // standard deviation per axis, m/s²
)

// Simulated is a synthetic runner: a steady gravity vector with a vertical
// impulse on each footfall and a little noise on every axis.
type Simulated struct {
	*hub
	spm    atomic.Int64
	logger *slog.Logger
}

// NewSimulated creates a simulated runner at spm steps per minute
func NewSimulated(spm int, logger *slog.Logger) *Simulated {
	s := &Simulated{logger: logger}
	s.SetSPM(spm)
	s.hub = newHub(s.run)
	return s
}

// Subscribe implements cadence.MotionSource
func (s *Simulated) Subscribe(handler func(cadence.MotionSample)) (func(), error) {
	return s.subscribe(handler)
}

// SPM returns the simulated cadence
func (s *Simulated) SPM() int {
	return int(s.spm.Load())
}

// SetSPM changes the simulated cadence, clamped to [0, MaxSimulatedSPM]; 0 stands still
func (s *Simulated) SetSPM(spm int) {
	s.spm.Store(int64(min(max(spm, 0), MaxSimulatedSPM)))
}

// Adjust changes the simulated cadence by delta and returns the new value
func (s *Simulated) Adjust(delta int) int {
	s.SetSPM(s.SPM() + delta)
	return s.SPM()
}

func (s *Simulated) run() (func(), error) {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		gen := newStrideGenerator(rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)))
		ticker := time.NewTicker(time.Second / SimulatedRate)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case now := <-ticker.C:
				s.publish(gen.next(now, s.SPM()))
			}
		}
	}()
	s.logger.Debug("simulated runner started", "spm", s.SPM())

	return func() {
		close(done)
		wg.Wait()
		s.logger.Debug("simulated runner stopped")
	}, nil
}

// strideGenerator produces one sample per call at SimulatedRate
type strideGenerator struct {
	rng   *rand.Rand
	phase float64 // fraction of the current step elapsed
}

func newStrideGenerator(rng *rand.Rand) *strideGenerator {
	return &strideGenerator{rng: rng}
}

func (g *strideGenerator) next(at time.Time, spm int) cadence.MotionSample {
	y := standardGravity
	if spm > 0 {
		g.phase += float64(spm) / 60 / SimulatedRate
		if g.phase >= 1 {
			g.phase -= 1
			y += footfallImpulse
		}
	}
	return cadence.MotionSample{
		Time: at,
		Accel: [3]float64{
			g.noise(),
			y + g.noise(),
			g.noise(),
		},
	}
}

func (g *strideGenerator) noise() float64 {
	if g.rng == nil {
		return 0
	}
	return g.rng.NormFloat64() * sensorNoise
}

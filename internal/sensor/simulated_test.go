package sensor

import (
	"io"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LHacuevas/strideSync/internal/cadence"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStrideGeneratorDetectable(t *testing.T) {
	tests := []struct {
		name      string
		spm       int
		wantSteps int
	}{
		{name: "brisk", spm: 170, wantSteps: 34},
		{name: "easy", spm: 150, wantSteps: 30},
		{name: "standing", spm: 0, wantSteps: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := newStrideGenerator(rand.New(rand.NewPCG(1, 2)))
			d := cadence.NewStepDetector(cadence.DefaultDetectorConfig())
			start := time.Unix(0, 0)

			// 12 seconds at 50 Hz
			for i := 0; i < 12*SimulatedRate; i++ {
				at := start.Add(time.Duration(i) * time.Second / SimulatedRate)
				d.OnSample(gen.next(at, tt.spm))
			}

			if diff := d.TotalSteps() - tt.wantSteps; diff < -1 || diff > 1 {
				t.Errorf("spm %d: TotalSteps() = %d, want %d±1", tt.spm, d.TotalSteps(), tt.wantSteps)
			}
		})
	}
}

func TestSimulatedSPM(t *testing.T) {
	s := NewSimulated(170, discardLogger())
	if s.SPM() != 170 {
		t.Errorf("SPM() = %d, want 170", s.SPM())
	}
	if got := s.Adjust(5); got != 175 {
		t.Errorf("Adjust(5) = %d, want 175", got)
	}
	if got := s.Adjust(-500); got != 0 {
		t.Errorf("Adjust(-500) = %d, want 0", got)
	}
	s.SetSPM(1000)
	if s.SPM() != MaxSimulatedSPM {
		t.Errorf("SPM() = %d, want %d", s.SPM(), MaxSimulatedSPM)
	}
}

func TestSimulatedStreams(t *testing.T) {
	s := NewSimulated(170, discardLogger())

	var n atomic.Int64
	unsub, err := s.Subscribe(func(cadence.MotionSample) { n.Add(1) })
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for n.Load() < 5 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	unsub()

	if n.Load() < 5 {
		t.Fatalf("received %d samples, want at least 5", n.Load())
	}
	after := n.Load()
	time.Sleep(60 * time.Millisecond)
	if n.Load() != after {
		t.Error("samples delivered after unsubscribe")
	}
}

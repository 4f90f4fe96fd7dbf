// Package audio provides feedback pulsers for the cadence metronome.
package audio

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/LHacuevas/strideSync/internal/cadence"
)

// Bell rings the terminal bell once per pulse
type Bell struct {
	mu sync.Mutex
	w  io.Writer
}

// NewBell returns a Bell writing to w, normally the controlling terminal
func NewBell(w io.Writer) *Bell {
	return &Bell{w: w}
}

// Pulse implements cadence.Pulser
func (b *Bell) Pulse(cadence.Zone) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := io.WriteString(b.w, "\a"); err != nil {
		return fmt.Errorf("ringing bell: %w", err)
	}
	return nil
}

// Log records pulses at debug level instead of playing them
type Log struct {
	logger *slog.Logger
}

// NewLog returns a pulser that only logs
func NewLog(logger *slog.Logger) Log {
	return Log{logger: logger}
}

// Pulse implements cadence.Pulser
func (l Log) Pulse(kind cadence.Zone) error {
	l.logger.Debug("pulse", "zone", kind.String())
	return nil
}

// Multi fans a pulse out to several pulsers. Every pulser is tried; the
// errors are joined.
type Multi []cadence.Pulser

// Pulse implements cadence.Pulser
func (m Multi) Pulse(kind cadence.Zone) error {
	var errs []error
	for _, p := range m {
		if err := p.Pulse(kind); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

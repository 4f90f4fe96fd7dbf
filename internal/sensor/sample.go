// Package sensor provides motion sample sources for the cadence engine.
package sensor

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/LHacuevas/strideSync/internal/cadence"
)

// wireSample is the JSON shape accepted by the network sources. Phones and
// loggers disagree on names, so each axis has a few aliases.
type wireSample struct {
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
	Z      *float64 `json:"z"`
	AX     *float64 `json:"ax"`
	AY     *float64 `json:"ay"`
	AZ     *float64 `json:"az"`
	AccelX *float64 `json:"accel_x"`
	AccelY *float64 `json:"accel_y"`
	AccelZ *float64 `json:"accel_z"`
}

func firstOf(vals ...*float64) float64 {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return math.NaN()
}

// ParseJSON decodes one sample. A missing or null axis becomes NaN, which the
// engine skips; only undecodable payloads are errors.
func ParseJSON(payload []byte, at time.Time) (cadence.MotionSample, error) {
	var w wireSample
	if err := json.Unmarshal(payload, &w); err != nil {
		return cadence.MotionSample{}, fmt.Errorf("decoding sample: %w", err)
	}
	return cadence.MotionSample{
		Time: at,
		Accel: [3]float64{
			firstOf(w.X, w.AX, w.AccelX),
			firstOf(w.Y, w.AY, w.AccelY),
			firstOf(w.Z, w.AZ, w.AccelZ),
		},
	}, nil
}

// ParseLine decodes an "ax,ay,az" text line. Unparseable axes become NaN.
func ParseLine(line string, at time.Time) (cadence.MotionSample, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) != 3 {
		return cadence.MotionSample{}, fmt.Errorf("expected 3 fields, got %d", len(fields))
	}
	s := cadence.MotionSample{Time: at}
	for i, f := range fields {
		s.Accel[i] = parseAxis(f)
	}
	return s, nil
}

func parseAxis(f string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

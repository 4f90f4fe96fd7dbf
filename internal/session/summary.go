package session

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/LHacuevas/strideSync/internal/cadence"
	"github.com/LHacuevas/strideSync/internal/store"
)

// Summary is the session aggregate
type Summary struct {
	SessionID  string
	Settings   cadence.Settings
	StartedAt  time.Time
	EndedAt    *time.Time // set once the session is stopped
	Duration   time.Duration
	TotalSteps int
	AvgCadence int     // over ticks with a reading
	AvgTarget  float64 // over all ticks
	Zones      store.ZoneTotals
	Points     []store.Point
	Active     bool
	Final      bool // frozen at session stop
}

// ZonePercents returns the share of classified time below, in and above the zone
func (s Summary) ZonePercents() (below, in, above float64) {
	total := s.Zones.Total()
	if total <= 0 {
		return 0, 0, 0
	}
	pct := func(d time.Duration) float64 {
		return float64(d) * 100 / float64(total)
	}
	return pct(s.Zones.Below), pct(s.Zones.In), pct(s.Zones.Above)
}

// ZoneAssessment returns a human-readable verdict on time spent in zone
func ZoneAssessment(inZonePct float64) string {
	switch {
	case inZonePct >= 80:
		return "Locked in"
	case inZonePct >= 60:
		return "Good rhythm"
	case inZonePct >= 40:
		return "Finding the beat"
	case inZonePct > 0:
		return "Off the beat"
	default:
		return "No cadence data"
	}
}

// Series returns the chart series for actual and target cadence. Ticks
// without a reading carry the neighbouring reading so the line is connected;
// actual is nil when the session has no readings at all.
func Series(points []store.Point) (actual, target []float64) {
	target = make([]float64, len(points))
	for i, p := range points {
		target[i] = p.Target
	}

	first := -1
	for i, p := range points {
		if p.Cadence != nil {
			first = i
			break
		}
	}
	if first < 0 {
		return nil, target
	}

	actual = make([]float64, len(points))
	last := float64(*points[first].Cadence)
	for i, p := range points {
		if p.Cadence != nil {
			last = float64(*p.Cadence)
		}
		actual[i] = last
	}
	return actual, target
}

// WriteCSV exports the time series. Ticks without a reading have an empty
// cadence column.
func WriteCSV(w io.Writer, points []store.Point) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"elapsed_s", "time", "cadence", "target", "zone"}); err != nil {
		return err
	}
	for _, p := range points {
		c := ""
		if p.Cadence != nil {
			c = strconv.Itoa(*p.Cadence)
		}
		row := []string{
			strconv.FormatFloat(p.Elapsed.Seconds(), 'f', 0, 64),
			p.RecordedAt.Format(time.RFC3339),
			c,
			strconv.FormatFloat(p.Target, 'f', 1, 64),
			p.Zone,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing point %d: %w", p.Seq, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

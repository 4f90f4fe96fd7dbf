package sensor

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/LHacuevas/strideSync/internal/cadence"
)

// recordedSample is one CSV row, offset from the first row
type recordedSample struct {
	offset time.Duration
	accel  [3]float64
}

// Replay plays back a recorded CSV file at its recorded pace. Accepted
// headers are timestamp_ms or timestamp_ns plus accel_x, accel_y, accel_z.
type Replay struct {
	*hub
	path   string
	logger *slog.Logger
}

// NewReplay creates a replay source for path
func NewReplay(path string, logger *slog.Logger) *Replay {
	r := &Replay{path: path, logger: logger}
	r.hub = newHub(r.run)
	return r
}

// Subscribe implements cadence.MotionSource. Playback restarts from the top
// on every first subscription.
func (r *Replay) Subscribe(handler func(cadence.MotionSample)) (func(), error) {
	return r.subscribe(handler)
}

func (r *Replay) run() (func(), error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("opening replay file: %w", err)
	}
	samples, err := readRecording(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", r.path, err)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		start := time.Now()
		for _, rs := range samples {
			if wait := rs.offset - time.Since(start); wait > 0 {
				t := time.NewTimer(wait)
				select {
				case <-done:
					t.Stop()
					return
				case <-t.C:
				}
			}
			select {
			case <-done:
				return
			default:
			}
			r.publish(cadence.MotionSample{Time: time.Now(), Accel: rs.accel})
		}
		r.logger.Info("replay finished", "file", r.path, "samples", len(samples))
	}()

	return func() {
		close(done)
		wg.Wait()
	}, nil
}

// readRecording parses a recording. Rows with unparseable axes are kept as
// invalid samples; rows without a usable timestamp are dropped.
func readRecording(rd io.Reader) ([]recordedSample, error) {
	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[name] = i
	}
	tsCol, unit := -1, time.Millisecond
	if i, ok := cols["timestamp_ms"]; ok {
		tsCol = i
	} else if i, ok := cols["timestamp_ns"]; ok {
		tsCol, unit = i, time.Nanosecond
	}
	if tsCol < 0 {
		return nil, errors.New("missing timestamp_ms or timestamp_ns column")
	}
	var axes [3]int
	for i, name := range []string{"accel_x", "accel_y", "accel_z"} {
		c, ok := cols[name]
		if !ok {
			return nil, fmt.Errorf("missing %s column", name)
		}
		axes[i] = c
	}

	var out []recordedSample
	var first int64
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if tsCol >= len(row) {
			continue
		}
		ts, err := strconv.ParseInt(row[tsCol], 10, 64)
		if err != nil {
			continue
		}
		if len(out) == 0 {
			first = ts
		}

		var rs recordedSample
		rs.offset = time.Duration(ts-first) * unit
		for i, c := range axes {
			if c < len(row) {
				rs.accel[i] = parseAxis(row[c])
			} else {
				rs.accel[i] = parseAxis("")
			}
		}
		out = append(out, rs)
	}
	return out, nil
}

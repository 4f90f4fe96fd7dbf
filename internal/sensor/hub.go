package sensor

import (
	"sync"

	"github.com/LHacuevas/strideSync/internal/cadence"
)

// hub fans samples out to subscribers. The underlying device is started on
// the first subscription and stopped when the last one leaves.
type hub struct {
	lifecycle sync.Mutex // serializes start and stop

	mu       sync.Mutex
	next     int
	handlers map[int]func(cadence.MotionSample)

	start func() (stop func(), err error)
	stop  func()
}

func newHub(start func() (func(), error)) *hub {
	return &hub{
		handlers: make(map[int]func(cadence.MotionSample)),
		start:    start,
	}
}

func (h *hub) subscribe(handler func(cadence.MotionSample)) (func(), error) {
	h.lifecycle.Lock()
	defer h.lifecycle.Unlock()

	h.mu.Lock()
	first := len(h.handlers) == 0
	h.mu.Unlock()

	if first {
		stop, err := h.start()
		if err != nil {
			return nil, err
		}
		h.stop = stop
	}

	h.mu.Lock()
	id := h.next
	h.next++
	h.handlers[id] = handler
	h.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { h.unsubscribe(id) }) }, nil
}

func (h *hub) unsubscribe(id int) {
	h.lifecycle.Lock()
	defer h.lifecycle.Unlock()

	h.mu.Lock()
	delete(h.handlers, id)
	last := len(h.handlers) == 0
	h.mu.Unlock()

	if last && h.stop != nil {
		h.stop()
		h.stop = nil
	}
}

func (h *hub) publish(s cadence.MotionSample) {
	h.mu.Lock()
	handlers := make([]func(cadence.MotionSample), 0, len(h.handlers))
	for _, fn := range h.handlers {
		handlers = append(handlers, fn)
	}
	h.mu.Unlock()

	for _, fn := range handlers {
		fn(s)
	}
}

package sensor

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jacobsa/go-serial/serial"

	"github.com/LHacuevas/strideSync/internal/cadence"
)

// Serial reads "ax,ay,az" lines from a serial accelerometer
type Serial struct {
	*hub
	port   string
	baud   int
	logger *slog.Logger
	open   func(serial.OpenOptions) (io.ReadWriteCloser, error)
}

// NewSerial creates a serial source for port at baud
func NewSerial(port string, baud int, logger *slog.Logger) *Serial {
	s := &Serial{
		port:   port,
		baud:   baud,
		logger: logger,
		open:   serial.Open,
	}
	s.hub = newHub(s.run)
	return s
}

// Subscribe implements cadence.MotionSource
func (s *Serial) Subscribe(handler func(cadence.MotionSample)) (func(), error) {
	return s.subscribe(handler)
}

func (s *Serial) run() (func(), error) {
	opts := serial.OpenOptions{
		PortName:              s.port,
		BaudRate:              uint(s.baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	port, err := s.open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", s.port, err)
	}
	s.logger.Info("serial port opened", "port", s.port, "baud", s.baud)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		closing bool
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		reader := bufio.NewReader(port)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				mu.Lock()
				quiet := closing
				mu.Unlock()
				if !quiet && err != io.EOF {
					s.logger.Warn("serial read", "port", s.port, "error", err)
				}
				return
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			sample, err := ParseLine(line, time.Now())
			if err != nil {
				continue // partial line at startup
			}
			s.publish(sample)
		}
	}()

	return func() {
		mu.Lock()
		closing = true
		mu.Unlock()
		port.Close()
		wg.Wait()
	}, nil
}

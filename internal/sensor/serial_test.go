package sensor

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/jacobsa/go-serial/serial"

	"github.com/LHacuevas/strideSync/internal/cadence"
)

// pipePort is a fake serial port fed through an io.Pipe
type pipePort struct {
	*io.PipeReader
	w *io.PipeWriter
}

func (p pipePort) Write(b []byte) (int, error) { return len(b), nil }

func (p pipePort) Close() error {
	p.w.Close()
	return p.PipeReader.Close()
}

func TestSerialReadsLines(t *testing.T) {
	pr, pw := io.Pipe()
	s := NewSerial("/dev/ttyFAKE", 115200, discardLogger())

	var gotOpts serial.OpenOptions
	s.open = func(opts serial.OpenOptions) (io.ReadWriteCloser, error) {
		gotOpts = opts
		return pipePort{PipeReader: pr, w: pw}, nil
	}

	samples := make(chan cadence.MotionSample, 8)
	unsub, err := s.Subscribe(func(m cadence.MotionSample) { samples <- m })
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if gotOpts.PortName != "/dev/ttyFAKE" || gotOpts.BaudRate != 115200 {
		t.Errorf("OpenOptions = %+v", gotOpts)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		io.WriteString(pw, "9.8,0,0\n\ngarbage\n0.1,9.7,0.2\n")
	}()

	for _, want := range [][3]float64{{9.8, 0, 0}, {0.1, 9.7, 0.2}} {
		select {
		case got := <-samples:
			if got.Accel != want {
				t.Errorf("Accel = %v, want %v", got.Accel, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for sample")
		}
	}

	wg.Wait()
	unsub()
}

func TestSerialOpenError(t *testing.T) {
	s := NewSerial("/dev/ttyNONE", 9600, discardLogger())
	s.open = func(serial.OpenOptions) (io.ReadWriteCloser, error) {
		return nil, errors.New("no such device")
	}
	if _, err := s.Subscribe(func(cadence.MotionSample) {}); err == nil {
		t.Error("Subscribe() should fail when the port cannot open")
	}
}

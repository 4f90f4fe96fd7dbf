// Package speech provides announcers that speak cadence updates aloud.
package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/LHacuevas/strideSync/internal/cadence"
	"github.com/LHacuevas/strideSync/internal/config"
)

// DefaultTimeout bounds a single announcement
const DefaultTimeout = 10 * time.Second

// Command speaks by running an external text-to-speech program with the
// text as its last argument, e.g. espeak or say.
type Command struct {
	path    string
	args    []string
	timeout time.Duration
	logger  *slog.Logger
}

// NewCommand resolves name on PATH
func NewCommand(name string, args []string, logger *slog.Logger) (*Command, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("finding speech command: %w", err)
	}
	return &Command{path: path, args: args, timeout: DefaultTimeout, logger: logger}, nil
}

// Announce implements cadence.Announcer. It blocks until the program exits.
func (c *Command) Announce(text string) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	args := append(append([]string{}, c.args...), text)
	out, err := exec.CommandContext(ctx, c.path, args...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("running %s: %w: %s", c.path, err, msg)
		}
		return fmt.Errorf("running %s: %w", c.path, err)
	}
	c.logger.Debug("announced", "text", text)
	return nil
}

// Log writes announcements to the logger instead of speaking them
type Log struct {
	logger *slog.Logger
}

// NewLog returns an announcer that only logs
func NewLog(logger *slog.Logger) Log {
	return Log{logger: logger}
}

// Announce implements cadence.Announcer
func (l Log) Announce(text string) error {
	l.logger.Info("announcement", "text", text)
	return nil
}

// Multi announces through each announcer in turn and joins their errors
type Multi []cadence.Announcer

// Announce implements cadence.Announcer
func (m Multi) Announce(text string) error {
	var errs []error
	for _, a := range m {
		if err := a.Announce(text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// New returns the announcer configured by cfg. A missing or unavailable
// command falls back to logging; the error then describes why, and the
// returned announcer is still usable.
func New(cfg config.SpeechConfig, logger *slog.Logger) (cadence.Announcer, error) {
	if cfg.Command == "" {
		return NewLog(logger), nil
	}
	cmd, err := NewCommand(cfg.Command, cfg.Args, logger)
	if err != nil {
		logger.Warn("speech unavailable, logging announcements instead", "command", cfg.Command, "error", err)
		return NewLog(logger), fmt.Errorf("speech unavailable: %w", err)
	}
	return cmd, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/LHacuevas/strideSync/internal/audio"
	"github.com/LHacuevas/strideSync/internal/cadence"
	"github.com/LHacuevas/strideSync/internal/config"
	"github.com/LHacuevas/strideSync/internal/logging"
	"github.com/LHacuevas/strideSync/internal/sensor"
	"github.com/LHacuevas/strideSync/internal/session"
	"github.com/LHacuevas/strideSync/internal/speech"
	"github.com/LHacuevas/strideSync/internal/store"
	"github.com/LHacuevas/strideSync/internal/tui"
)

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:   "stridesync",
		Short: "Running cadence coach",
		Long: `stridesync measures your running cadence from an accelerometer and
coaches you toward a target with a metronome and spoken updates. The target
can hold steady or ramp between a low and a high cadence.`,
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cfgPath)
		},
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default ~/.stridesync/config.json)")

	root.AddCommand(newRunCmd(&cfgPath), newInitCmd(&cfgPath))
	return root
}

func newRunCmd(cfgPath *string) *cobra.Command {
	var (
		duration time.Duration
		export   string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a session without the interface",
		Long: `run starts a session straight away, logs a reading every second and
prints the summary when the duration elapses or on Ctrl+C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHeadless(cmd.Context(), *cfgPath, duration, export, cmd.OutOrStdout())
		},
	}
	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "stop after this long (0 runs until interrupted)")
	cmd.Flags().StringVarP(&export, "export", "e", "", "write the tick series to this CSV file")
	return cmd
}

func newInitCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write an example config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateExample(*cfgPath)
			if err != nil {
				return fmt.Errorf("creating example config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Config file at:\n  %s\n", path)
			return nil
		},
	}
}

// deps holds everything a session needs besides the feedback capabilities
type deps struct {
	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error
	db       *store.DB
	recorder *session.Recorder
	source   cadence.MotionSource
}

func setup(cfgPath string, logOut io.Writer) (*deps, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := logging.New(cfg.Log, logOut)
	if err != nil {
		return nil, fmt.Errorf("setting up logging: %w", err)
	}

	db, err := store.Open()
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	source, err := sensor.New(cfg.Sensor, logger)
	if err != nil {
		db.Close()
		closeLog()
		return nil, fmt.Errorf("creating motion source: %w", err)
	}

	return &deps{
		cfg:      cfg,
		logger:   logger,
		closeLog: closeLog,
		db:       db,
		recorder: session.NewRecorder(db, logger),
		source:   source,
	}, nil
}

func (d *deps) close() {
	d.db.Close()
	d.closeLog()
}

func (d *deps) newEngine(pulser cadence.Pulser, announcer cadence.Announcer) *cadence.Engine {
	return cadence.New(d.cfg.Cadence.Settings(),
		cadence.WithSource(d.source),
		cadence.WithPulser(pulser),
		cadence.WithAnnouncer(announcer),
		cadence.WithLogger(d.logger),
		cadence.WithObserver(d.recorder),
		cadence.WithDetector(d.cfg.Detector.Detector()),
		cadence.WithFeedback(d.cfg.Feedback.Feedback()),
	)
}

func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFile(path)
	}

	if errors.Is(err, config.ErrNoConfig) && path == "" {
		defaults := config.DefaultConfig()
		cfg, err = &defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runTUI(cfgPath string) error {
	// The interface owns the terminal, so logs only go to a configured file.
	d, err := setup(cfgPath, io.Discard)
	if err != nil {
		return err
	}
	defer d.close()

	announcer, speechErr := speech.New(d.cfg.Speech, d.logger)
	feedback := tui.NewFeedback(audio.NewLog(d.logger), announcer)
	engine := d.newEngine(feedback, feedback)

	var runner tui.Runner
	if sim, ok := d.source.(*sensor.Simulated); ok {
		runner = sim
	}

	app := tui.NewApp(engine, d.recorder, feedback, runner, d.cfg.Sensor.Source)
	if speechErr != nil {
		app.Notify(speechErr.Error() + " (announcements are logged)")
	}
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}

	// Quitting mid-session stops it, but make sure the source is released.
	if engine.Snapshot().Status != cadence.StatusIdle {
		engine.Stop()
	}
	return nil
}

func runHeadless(ctx context.Context, cfgPath string, duration time.Duration, export string, out io.Writer) error {
	d, err := setup(cfgPath, os.Stderr)
	if err != nil {
		return err
	}
	defer d.close()

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if duration > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, duration)
		defer cancelTimeout()
	}

	// speech.New already logged any fallback
	announcer, _ := speech.New(d.cfg.Speech, d.logger)
	engine := d.newEngine(audio.NewBell(out), announcer)
	if err := engine.Start(); err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	d.logger.Info("session started", "source", d.cfg.Sensor.Source, "duration", duration)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			r := engine.Snapshot()
			d.logger.Info("reading",
				"cadence", r.Cadence,
				"target", r.Target,
				"zone", r.Zone.String(),
				"phase", r.Phase.String(),
				"steps", r.TotalSteps,
			)
		}
	}

	if err := engine.Stop(); err != nil {
		return fmt.Errorf("stopping session: %w", err)
	}

	summary, err := d.recorder.Summary()
	if err != nil {
		return fmt.Errorf("loading summary: %w", err)
	}
	printSummary(out, summary)

	if export != "" {
		if err := exportCSV(export, summary); err != nil {
			return err
		}
		fmt.Fprintf(out, "Tick series written to %s\n", export)
	}
	return d.recorder.Err()
}

func printSummary(w io.Writer, s session.Summary) {
	below, in, above := s.ZonePercents()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Session %s\n", s.SessionID)
	if s.EndedAt != nil {
		fmt.Fprintf(w, "  Ended:           %s\n", s.EndedAt.Local().Format(time.RFC1123))
	}
	fmt.Fprintf(w, "  Duration:        %s\n", s.Duration.Round(time.Second))
	fmt.Fprintf(w, "  Steps:           %s\n", humanize.Comma(int64(s.TotalSteps)))
	fmt.Fprintf(w, "  Average cadence: %d spm\n", s.AvgCadence)
	fmt.Fprintf(w, "  Average target:  %.1f spm\n", s.AvgTarget)
	fmt.Fprintf(w, "  Time in zone:    %.0f%% below, %.0f%% in, %.0f%% above\n", below, in, above)
	fmt.Fprintf(w, "  %s\n", session.ZoneAssessment(in))
}

func exportCSV(path string, s session.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err := session.WriteCSV(f, s.Points); err != nil {
		f.Close()
		return fmt.Errorf("writing export: %w", err)
	}
	return f.Close()
}

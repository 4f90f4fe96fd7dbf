// Package tui is the Bubble Tea front end: a live coaching screen, the
// session summary, current settings and help.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/LHacuevas/strideSync/internal/cadence"
	"github.com/LHacuevas/strideSync/internal/session"
)

// pollInterval is how often the live screen samples the engine
const pollInterval = 200 * time.Millisecond

// summaryRefreshPolls reloads an open summary screen every second while a
// session is active.
const summaryRefreshPolls = 5

// Engine is the part of cadence.Engine the UI drives
type Engine interface {
	Start() error
	Pause() error
	Resume() error
	Stop() error
	SimulateStep() bool
	Snapshot() cadence.Reading
	Settings() cadence.Settings
}

// Recorder is the session aggregate the UI reads
type Recorder interface {
	Summary() (session.Summary, error)
	Elapsed(now time.Time) time.Duration
}

// Runner is an adjustable simulated runner, present only for the simulated source
type Runner interface {
	SPM() int
	Adjust(delta int) int
}

// Screen identifiers
type Screen int

const (
	ScreenLive Screen = iota
	ScreenSummary
	ScreenSettings
	ScreenHelp
)

// App is the root Bubble Tea model
type App struct {
	screen     Screen
	prevScreen Screen

	// Screen models
	live     LiveModel
	summary  SummaryModel
	settings SettingsModel
	help     HelpModel

	engine   Engine
	recorder Recorder
	feedback *Feedback
	runner   Runner

	keys    keyMap
	footer  help.Model
	polls   int
	pending bool // a session transition is running

	// Window dimensions
	width  int
	height int

	// Status message
	status string
}

// NewApp creates the App. feedback and runner may be nil.
func NewApp(engine Engine, recorder Recorder, feedback *Feedback, runner Runner, source string) *App {
	return &App{
		screen:   ScreenLive,
		engine:   engine,
		recorder: recorder,
		feedback: feedback,
		runner:   runner,
		live:     NewLiveModel(engine.Settings()),
		summary:  NewSummaryModel(recorder, 0, 0),
		settings: NewSettingsModel(engine.Settings(), source),
		help:     NewHelpModel(),
		keys:     newKeyMap(),
		footer:   help.New(),
	}
}

type pollMsg time.Time

// sessionMsg reports the outcome of a session transition
type sessionMsg struct {
	status  string
	stopped bool
	err     error
}

func poll() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg { return pollMsg(t) })
}

// Init initializes the app
func (a *App) Init() tea.Cmd {
	a.refreshLive(time.Now())
	return poll()
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if cmd, handled := a.handleKey(msg); handled {
			return a, cmd
		}

	case sessionMsg:
		return a, a.finishTransition(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.footer.Width = msg.Width

	case pollMsg:
		a.refreshLive(time.Time(msg))
		a.polls++
		if a.screen == ScreenSummary && a.live.reading.Status != cadence.StatusIdle && a.polls%summaryRefreshPolls == 0 {
			return a, tea.Batch(poll(), a.summary.Init())
		}
		return a, poll()
	}

	// Delegate to current screen
	var cmd tea.Cmd
	switch a.screen {
	case ScreenSummary:
		a.summary, cmd = a.summary.Update(msg)
	case ScreenHelp:
		var m tea.Model
		m, cmd = a.help.Update(msg)
		a.help = m.(HelpModel)
	}

	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		if a.engine.Snapshot().Status != cadence.StatusIdle {
			a.report(a.engine.Stop())
		}
		return tea.Quit, true

	case key.Matches(msg, a.keys.Toggle):
		if a.pending {
			return nil, true
		}
		return a.toggle(), true

	case key.Matches(msg, a.keys.Stop):
		if a.pending || a.engine.Snapshot().Status == cadence.StatusIdle {
			return nil, true
		}
		return a.transition(a.engine.Stop, "Session stopped", true), true

	case key.Matches(msg, a.keys.Step):
		if !a.engine.SimulateStep() && a.engine.Snapshot().Status == cadence.StatusRunning {
			a.status = "Step ignored (too soon after the last one)"
		}
		return nil, true

	case key.Matches(msg, a.keys.Faster), key.Matches(msg, a.keys.Slower):
		if a.runner == nil {
			a.status = "Runner speed only applies to the simulated sensor"
			return nil, true
		}
		delta := 5
		if key.Matches(msg, a.keys.Slower) {
			delta = -5
		}
		a.status = fmt.Sprintf("Simulated runner at %d spm", a.runner.Adjust(delta))
		a.refreshLive(time.Now())
		return nil, true

	case key.Matches(msg, a.keys.Live):
		a.screen = ScreenLive
		return nil, true

	case key.Matches(msg, a.keys.Summary):
		a.screen = ScreenSummary
		a.summary = NewSummaryModel(a.recorder, a.width, a.height)
		return a.summary.Init(), true

	case key.Matches(msg, a.keys.Settings):
		a.screen = ScreenSettings
		a.settings = NewSettingsModel(a.engine.Settings(), a.settings.source)
		return nil, true

	case key.Matches(msg, a.keys.Help):
		if a.screen != ScreenHelp {
			a.prevScreen = a.screen
			a.screen = ScreenHelp
		}
		return nil, true

	case key.Matches(msg, a.keys.Back):
		if a.screen == ScreenHelp {
			a.screen = a.prevScreen
			return nil, true
		}
	}
	return nil, false
}

// Notify shows msg in the status line
func (a *App) Notify(msg string) {
	a.status = msg
}

// toggle starts, pauses or resumes depending on the current status
func (a *App) toggle() tea.Cmd {
	switch a.engine.Snapshot().Status {
	case cadence.StatusIdle:
		a.status = "Starting session..."
		return a.transition(a.engine.Start, "Session started", false)
	case cadence.StatusRunning:
		return a.transition(a.engine.Pause, "Paused", false)
	case cadence.StatusPaused:
		return a.transition(a.engine.Resume, "Resumed", false)
	}
	return nil
}

// transition runs op outside the update loop; starting a session may wait
// on a sensor connection.
func (a *App) transition(op func() error, status string, stopped bool) tea.Cmd {
	a.pending = true
	return func() tea.Msg {
		return sessionMsg{status: status, stopped: stopped, err: op()}
	}
}

func (a *App) finishTransition(msg sessionMsg) tea.Cmd {
	a.pending = false
	a.refreshLive(time.Now())
	if msg.err != nil {
		a.report(msg.err)
		return nil
	}
	a.status = msg.status
	if !msg.stopped {
		return nil
	}
	a.screen = ScreenSummary
	a.summary = NewSummaryModel(a.recorder, a.width, a.height)
	return a.summary.Init()
}

func (a *App) report(err error) {
	if err != nil {
		a.status = "Error: " + err.Error()
	}
}

func (a *App) refreshLive(now time.Time) {
	var fb FeedbackState
	if a.feedback != nil {
		fb = a.feedback.State()
	}
	spm := 0
	if a.runner != nil {
		spm = a.runner.SPM()
	}
	a.live = a.live.refresh(now, a.engine.Snapshot(), a.recorder.Elapsed(now), fb, spm)
}

// View renders the app
func (a *App) View() string {
	header := a.renderHeader()
	nav := a.renderNav()

	var content string
	switch a.screen {
	case ScreenLive:
		content = a.live.View()
	case ScreenSummary:
		content = a.summary.View()
	case ScreenSettings:
		content = a.settings.View()
	case ScreenHelp:
		content = a.help.View()
	}

	footer := a.renderFooter()

	return lipgloss.JoinVertical(lipgloss.Left, header, nav, content, footer)
}

func (a *App) renderHeader() string {
	return headerStyle.Render("StrideSync Cadence Coach")
}

func (a *App) renderNav() string {
	items := []struct {
		key    string
		label  string
		screen Screen
	}{
		{"1", "Live", ScreenLive},
		{"2", "Summary", ScreenSummary},
		{"3", "Settings", ScreenSettings},
		{"?", "Help", ScreenHelp},
	}

	var nav string
	for i, item := range items {
		if i > 0 {
			nav += "  "
		}

		label := "[" + item.key + "] " + item.label
		if a.screen == item.screen {
			nav += navActiveStyle.Render(label)
		} else {
			nav += navInactiveStyle.Render(label)
		}
	}

	nav += "  " + navInactiveStyle.Render("[q] Quit")

	return navStyle.Render(nav)
}

func (a *App) renderFooter() string {
	keys := a.footer.View(a.keys)
	if a.status != "" {
		return lipgloss.JoinVertical(lipgloss.Left, statusStyle.Render(a.status), keys)
	}
	return statusStyle.Render(keys)
}

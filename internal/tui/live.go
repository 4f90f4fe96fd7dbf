package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/LHacuevas/strideSync/internal/cadence"
)

// flashFor is how long the metronome indicator stays lit after a pulse
const flashFor = 150 * time.Millisecond

// gaugeSlack widens the cadence gauge beyond the configured range
const gaugeSlack = 20.0

// LiveModel is the live coaching screen
type LiveModel struct {
	settings cadence.Settings
	now      time.Time
	reading  cadence.Reading
	elapsed  time.Duration
	feedback FeedbackState
	spm      int // simulated runner cadence, 0 when not simulated
}

// NewLiveModel creates a live screen for settings
func NewLiveModel(settings cadence.Settings) LiveModel {
	return LiveModel{settings: settings}
}

func (m LiveModel) refresh(now time.Time, r cadence.Reading, elapsed time.Duration, fb FeedbackState, spm int) LiveModel {
	m.now = now
	m.reading = r
	m.elapsed = elapsed
	m.feedback = fb
	m.spm = spm
	return m
}

// View renders the live screen
func (m LiveModel) View() string {
	r := m.reading

	var sections []string
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, m.renderCadenceCard(), m.renderSessionCard()))

	if r.Warning != "" {
		sections = append(sections, warningStyle.Render("  ⚠ "+r.Warning))
	}

	if r.Status == cadence.StatusIdle {
		sections = append(sections, statusStyle.Render("  Press space to start a session"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m LiveModel) renderCadenceCard() string {
	r := m.reading
	title := cardTitleStyle.Render("Cadence")

	value := "--"
	if r.Cadence > 0 {
		value = fmt.Sprintf("%d", r.Cadence)
	}
	big := bigValueStyle.Foreground(zoneColor(r.Zone)).Render(value + " spm")

	lines := []string{
		lipgloss.JoinHorizontal(lipgloss.Center, big, m.renderPulse()),
		"",
		zoneIndicator(r.Zone, r.Suppressed),
		m.renderGauge(30),
		"",
		RenderMetric("Target", fmt.Sprintf("%.1f spm", r.Target), targetTrend(r.Phase)),
		RenderMetric("Phase", r.Phase.String(), ""),
	}

	return cardStyle.Width(46).Render(lipgloss.JoinVertical(lipgloss.Left, append([]string{title}, lines...)...))
}

func (m LiveModel) renderSessionCard() string {
	r := m.reading
	title := cardTitleStyle.Render("Session")

	lines := []string{
		RenderMetric("Status", r.Status.String(), ""),
		RenderMetric("Duration", formatDuration(m.elapsed), ""),
		RenderMetric("Steps", humanize.Comma(int64(r.TotalSteps)), ""),
	}
	if m.spm > 0 {
		lines = append(lines, RenderMetric("Runner (sim)", fmt.Sprintf("%d spm", m.spm), ""))
	}
	if m.feedback.Spoken != "" {
		said := fmt.Sprintf("%q %s", m.feedback.Spoken, humanize.RelTime(m.feedback.SpokenAt, m.now, "ago", "from now"))
		lines = append(lines, RenderMetric("Last spoken", said, ""))
	}

	return cardStyle.Width(56).Render(lipgloss.JoinVertical(lipgloss.Left, append([]string{title}, lines...)...))
}

// renderPulse lights up briefly after each metronome pulse
func (m LiveModel) renderPulse() string {
	at := m.feedback.PulseAt
	if !at.IsZero() && m.now.Sub(at) >= 0 && m.now.Sub(at) < flashFor {
		return pulseOnStyle.Background(zoneColor(m.feedback.Zone)).Render("♪")
	}
	return pulseOffStyle.Render("♪")
}

// renderGauge places the current cadence on a bar spanning the configured range
func (m LiveModel) renderGauge(width int) string {
	lo := m.settings.Min - gaugeSlack
	hi := m.settings.Max + gaugeSlack
	pct := 0.0
	if c := float64(m.reading.Cadence); c > 0 && hi > lo {
		pct = (c - lo) / (hi - lo)
	}
	return fmt.Sprintf("%s  %s", RenderProgressBar(pct, width),
		helpDescStyle.Render(fmt.Sprintf("%.0f-%.0f", math.Max(lo, 0), hi)))
}

func zoneIndicator(z cadence.Zone, suppressed bool) string {
	if suppressed {
		return trendFlatStyle.Render("○ Feedback paused (cadence too low)")
	}
	style := lipgloss.NewStyle().Bold(true).Foreground(zoneColor(z))
	switch z {
	case cadence.ZoneBelow:
		return style.Render("▲ Speed up")
	case cadence.ZoneIn:
		return style.Render("● In zone")
	case cadence.ZoneAbove:
		return style.Render("▼ Slow down")
	default:
		return trendFlatStyle.Render("– No reading")
	}
}

func targetTrend(p cadence.Phase) string {
	switch p {
	case cadence.PhaseIncreasing:
		return "↑"
	case cadence.PhaseDecreasing:
		return "↓"
	default:
		return ""
	}
}

// formatDuration renders h:mm:ss, or m:ss under an hour
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func indent(s string, n int) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = pad + l
	}
	return strings.Join(lines, "\n")
}

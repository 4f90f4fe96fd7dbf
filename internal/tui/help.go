package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HelpModel is the help screen model
type HelpModel struct{}

// NewHelpModel creates a new help model
func NewHelpModel() HelpModel {
	return HelpModel{}
}

// Init initializes the help screen
func (m HelpModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

// View renders the help screen
func (m HelpModel) View() string {
	var sections []string

	title := cardTitleStyle.Render("Keyboard Shortcuts")
	sections = append(sections, title)

	sections = append(sections, m.renderSection("Session", []keyHelp{
		{"space", "Start, pause or resume"},
		{"x", "Stop and show the summary"},
		{"t", "Count a step by hand"},
		{"+ / -", "Speed up or slow down the simulated runner"},
	}))

	sections = append(sections, m.renderSection("Navigation", []keyHelp{
		{"1", "Live"},
		{"2", "Session summary"},
		{"3", "Settings"},
		{"?", "Help (this screen)"},
		{"esc", "Close help"},
		{"q", "Quit"},
	}))

	sections = append(sections, m.renderSection("Summary", []keyHelp{
		{"j/k or arrows", "Scroll"},
		{"r", "Refresh"},
	}))

	sections = append(sections, m.renderTermsHelp())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

type keyHelp struct {
	key  string
	desc string
}

func (m HelpModel) renderSection(title string, keys []keyHelp) string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, sectionStyle.Render(title))

	for _, k := range keys {
		lines = append(lines, "  "+RenderKeyHelp(k.key, k.desc))
	}

	return strings.Join(lines, "\n")
}

func (m HelpModel) renderTermsHelp() string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, sectionStyle.Render("What You See"))
	lines = append(lines, "")

	terms := []struct {
		name string
		desc string
	}{
		{"Cadence", "Steps per minute over the last five seconds."},
		{"Target", "The cadence to match. With adjustment on it ramps between min and max."},
		{"Zone", "In zone within 3 spm of the target. The metronome marks each beat."},
		{"Feedback paused", "Below 140 spm no cues play; you are probably walking or stopped."},
	}

	for _, t := range terms {
		lines = append(lines, "  "+helpKeyStyle.Render(t.name))
		lines = append(lines, "  "+helpDescStyle.Render(t.desc))
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

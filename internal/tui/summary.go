package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"

	"github.com/LHacuevas/strideSync/internal/session"
)

// chartWidth is the maximum number of columns in the cadence chart
const chartWidth = 60

// SummaryModel shows the live or last session aggregate
type SummaryModel struct {
	recorder Recorder
	summary  session.Summary
	viewport viewport.Model
	loading  bool
	err      error
	width    int
	height   int
	ready    bool
}

// NewSummaryModel creates a new summary model
func NewSummaryModel(recorder Recorder, width, height int) SummaryModel {
	m := SummaryModel{
		recorder: recorder,
		loading:  true,
		width:    width,
		height:   height,
	}

	if width > 0 && height > 0 {
		m.viewport = viewport.New(width, height-8) // Reserve space for header/footer
		m.ready = true
	}

	return m
}

type summaryLoadedMsg struct {
	summary session.Summary
	err     error
}

// Init loads the summary
func (m SummaryModel) Init() tea.Cmd {
	return m.load
}

func (m SummaryModel) load() tea.Msg {
	s, err := m.recorder.Summary()
	return summaryLoadedMsg{summary: s, err: err}
}

// Update handles messages
func (m SummaryModel) Update(msg tea.Msg) (SummaryModel, tea.Cmd) {
	switch msg := msg.(type) {
	case summaryLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.summary = msg.summary
		if m.ready {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-8)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 8
		}
		if !m.loading {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.load
		}
	}

	// Handle viewport scrolling
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the summary screen
func (m SummaryModel) View() string {
	if m.loading {
		return "\n  Loading session..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if !m.ready {
		return m.renderContent()
	}

	return m.viewport.View()
}

func (m SummaryModel) renderContent() string {
	s := m.summary
	if s.SessionID == "" {
		return "\n  No session yet. Press space on the live screen to start one."
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderTotals())
	sections = append(sections, m.renderZones())
	sections = append(sections, m.renderChart())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m SummaryModel) renderHeader() string {
	s := m.summary
	title := "Current Session"
	if s.Final {
		title = "Last Session"
	}

	started := fmt.Sprintf("Started %s (%s)", s.StartedAt.Local().Format("Monday, January 2 at 3:04 PM"), humanize.Time(s.StartedAt))
	if s.EndedAt != nil {
		started += fmt.Sprintf(", ended %s", s.EndedAt.Local().Format("3:04 PM"))
	}
	subtitle := lipgloss.NewStyle().Foreground(mutedColor).Render(started)

	mode := fmt.Sprintf("Static target %.1f spm", s.Settings.Midpoint())
	if s.Settings.Adjust {
		mode = fmt.Sprintf("Ramping %.0f-%.0f spm", s.Settings.Min, s.Settings.Max)
	}
	modeLine := lipgloss.NewStyle().Foreground(textColor).Bold(true).Render(mode)

	return lipgloss.JoinVertical(lipgloss.Left, "", cardTitleStyle.Render(title), subtitle, modeLine, "")
}

func (m SummaryModel) renderTotals() string {
	s := m.summary
	var lines []string

	lines = append(lines, sectionStyle.Render("Totals"))

	avg := "-"
	if s.AvgCadence > 0 {
		avg = fmt.Sprintf("%d spm", s.AvgCadence)
	}
	lines = append(lines,
		"  "+RenderMetric("Duration", formatDuration(s.Duration), ""),
		"  "+RenderMetric("Steps", humanize.Comma(int64(s.TotalSteps)), ""),
		"  "+RenderMetric("Average cadence", avg, ""),
		"  "+RenderMetric("Average target", fmt.Sprintf("%.1f spm", s.AvgTarget), ""),
	)

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (m SummaryModel) renderZones() string {
	s := m.summary
	below, in, above := s.ZonePercents()

	var lines []string
	lines = append(lines, sectionStyle.Render("Time in Zone"))

	rows := []struct {
		label string
		pct   float64
		style lipgloss.Style
	}{
		{"Below", below, warningStyle},
		{"In zone", in, successStyle},
		{"Above", above, errorStyle},
	}
	for _, r := range rows {
		label := fmt.Sprintf("  %-8s ", r.label)
		lines = append(lines, label+RenderProgressBar(r.pct/100, 30)+r.style.Render(fmt.Sprintf(" %5.1f%%", r.pct)))
	}

	lines = append(lines, "")
	lines = append(lines, "  "+metricValueStyle.Render(session.ZoneAssessment(in)))
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (m SummaryModel) renderChart() string {
	var lines []string

	lines = append(lines, sectionStyle.Render("Cadence vs Target (spm)"))

	actual, target := session.Series(m.summary.Points)
	if len(target) < 2 {
		lines = append(lines, trendFlatStyle.Render("  Not enough data for a chart yet"))
		return strings.Join(lines, "\n")
	}

	target = downsample(target, chartWidth)
	series := [][]float64{target}
	colors := []asciigraph.AnsiColor{asciigraph.Purple}
	legends := []string{"target"}
	if actual != nil {
		series = append(series, downsample(actual, chartWidth))
		colors = append(colors, asciigraph.Green)
		legends = append(legends, "actual")
	}

	chart := asciigraph.PlotMany(series,
		asciigraph.Height(8),
		asciigraph.Width(chartWidth),
		asciigraph.Precision(0),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(legends...),
	)
	lines = append(lines, indent(chart, 2))

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// downsample averages data into at most targetLen buckets
func downsample(data []float64, targetLen int) []float64 {
	if len(data) <= targetLen {
		return data
	}

	result := make([]float64, targetLen)
	ratio := float64(len(data)) / float64(targetLen)

	for i := 0; i < targetLen; i++ {
		start := int(float64(i) * ratio)
		end := int(float64(i+1) * ratio)
		if end > len(data) {
			end = len(data)
		}

		sum := 0.0
		for j := start; j < end; j++ {
			sum += data[j]
		}
		if end > start {
			result[i] = sum / float64(end-start)
		}
	}

	return result
}

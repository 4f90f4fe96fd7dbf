package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/LHacuevas/strideSync/internal/cadence"
)

// SettingsModel is a read-only view of the session settings
type SettingsModel struct {
	settings cadence.Settings
	source   string
}

// NewSettingsModel creates a new settings model
func NewSettingsModel(settings cadence.Settings, source string) SettingsModel {
	return SettingsModel{settings: settings, source: source}
}

// View renders the settings screen
func (m SettingsModel) View() string {
	s := m.settings

	target := []string{
		cardTitleStyle.Render("Target"),
		RenderMetric("Range", fmt.Sprintf("%.0f-%.0f spm", s.Min, s.Max), ""),
		RenderMetric("Beat", beatLabel(s.BeatFrequency), ""),
		RenderMetric("Announcements", announceLabel(s.AnnouncementInterval), ""),
		RenderMetric("Sensor", m.source, ""),
	}

	var ramp []string
	ramp = append(ramp, cardTitleStyle.Render("Ramp"))
	if !s.Adjust {
		ramp = append(ramp,
			RenderMetric("Adjustment", "off", ""),
			RenderMetric("Static target", fmt.Sprintf("%.1f spm", s.Midpoint()), ""),
		)
	} else {
		ramp = append(ramp,
			RenderMetric("Hold low", seconds(s.HoldLowDuration), ""),
			RenderMetric("Step up", fmt.Sprintf("+%.0f spm every %s", s.AdjustUpRate, seconds(s.AdjustUpInterval)), ""),
			RenderMetric("Hold high", seconds(s.HoldHighDuration), ""),
			RenderMetric("Step down", fmt.Sprintf("-%.0f spm every %s", s.AdjustDownRate, seconds(s.AdjustDownInterval)), ""),
		)
	}

	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		cardStyle.Width(44).Render(lipgloss.JoinVertical(lipgloss.Left, target...)),
		cardStyle.Width(50).Render(lipgloss.JoinVertical(lipgloss.Left, ramp...)),
	)
	note := statusStyle.Render("  Settings come from the config file and apply to the next session.")
	return lipgloss.JoinVertical(lipgloss.Left, cards, note)
}

func beatLabel(b cadence.BeatFrequency) string {
	if b == cadence.BeatCycle {
		return "every other step"
	}
	return "every step"
}

func announceLabel(interval float64) string {
	if interval <= 0 {
		return "off"
	}
	return "every " + seconds(interval)
}

func seconds(v float64) string {
	return fmt.Sprintf("%gs", v)
}

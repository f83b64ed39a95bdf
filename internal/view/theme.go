// Package view renders document records for the terminal.
package view

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/joseph-ayodele/docextract/constants"
)

// Theme holds the color scheme for cards and the dashboard.
type Theme struct {
	Status     lipgloss.Color
	Success    lipgloss.Color
	Error      lipgloss.Color
	Pending    lipgloss.Color
	Hint       lipgloss.Color
	Border     lipgloss.Color
	ProgressBg lipgloss.Color
}

// DefaultTheme provides default colors.
var DefaultTheme = Theme{
	Status:     lipgloss.Color("#5FAFD7"), // light blue
	Success:    lipgloss.Color("#00D787"), // green
	Error:      lipgloss.Color("#FF005F"), // red
	Pending:    lipgloss.Color("#D7AF5F"), // amber
	Hint:       lipgloss.Color("#6C6C6C"), // dim gray
	Border:     lipgloss.Color("#4E4E4E"),
	ProgressBg: lipgloss.Color("#3A3A3A"), // dark gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) labelStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint)
}

func (t Theme) cardStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 1).
		Width(width)
}

// badgeStyle colors a status badge.
func (t Theme) badgeStyle(s constants.DocumentStatus) lipgloss.Style {
	st := lipgloss.NewStyle().Bold(true)
	switch s {
	case constants.StatusCompleted:
		return st.Foreground(t.Success)
	case constants.StatusError:
		return st.Foreground(t.Error)
	case constants.StatusProcessing:
		return st.Foreground(t.Status)
	default:
		return st.Foreground(t.Pending)
	}
}

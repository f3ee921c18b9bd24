package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colour palette of the browser.
type Theme struct {
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Muted   lipgloss.Color
	Error   lipgloss.Color
	Border  lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary: lipgloss.Color("#B5121B"), // museum red
		Accent:  lipgloss.Color("#A6E3A1"),
		Muted:   lipgloss.Color("#6C7086"),
		Error:   lipgloss.Color("#F38BA8"),
		Border:  lipgloss.Color("#45475A"),
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	Title   lipgloss.Style
	Status  lipgloss.Style
	Muted   lipgloss.Style
	Check   lipgloss.Style
	Error   lipgloss.Style
	Label   lipgloss.Style
	Popover lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	return &Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(theme.Primary),
		Status: lipgloss.NewStyle().Foreground(theme.Muted),
		Muted:  lipgloss.NewStyle().Foreground(theme.Muted),
		Check:  lipgloss.NewStyle().Bold(true).Foreground(theme.Accent),
		Error:  lipgloss.NewStyle().Foreground(theme.Error),
		Label:  lipgloss.NewStyle().Bold(true),
		Popover: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Primary).
			Padding(0, 1),
	}
}

// tableStyles derives the bubbles table styles from a theme.
func tableStyles(theme *Theme) table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Border).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(theme.Primary).
		Bold(false)
	return s
}

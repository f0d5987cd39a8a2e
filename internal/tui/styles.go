package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles is the palette for one theme.
type Styles struct {
	Header    lipgloss.Style
	Log       lipgloss.Style
	HandInfo  lipgloss.Style
	Actions   lipgloss.Style
	RedSuit   lipgloss.Style
	BlackSuit lipgloss.Style
	Seat      lipgloss.Style
	Success   lipgloss.Style
	Error     lipgloss.Style
	Warning   lipgloss.Style
	Info      lipgloss.Style
	Border    lipgloss.Color
	Focus     lipgloss.Color
}

// Theme returns the named palette. "default" follows the terminal background.
func Theme(name string) Styles {
	switch name {
	case "light":
		return lightStyles()
	case "dark":
		return darkStyles()
	default:
		if termenv.HasDarkBackground() {
			return darkStyles()
		}
		return lightStyles()
	}
}

func darkStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true).
			Padding(0, 1),
		Log: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")),
		HandInfo: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true),
		Actions: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true),
		RedSuit: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true),
		BlackSuit: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Bold(true),
		Seat: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true),
		Warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFEAA7")).
			Bold(true),
		Info: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")),
		Border: lipgloss.Color("#626262"),
		Focus:  lipgloss.Color("#04B575"),
	}
}

func lightStyles() Styles {
	s := darkStyles()
	s.Log = lipgloss.NewStyle().Foreground(lipgloss.Color("#1A1A1A"))
	s.BlackSuit = lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Bold(true)
	s.RedSuit = lipgloss.NewStyle().Foreground(lipgloss.Color("#C0392B")).Bold(true)
	s.HandInfo = lipgloss.NewStyle().Foreground(lipgloss.Color("#2E7D32")).Bold(true)
	s.Warning = lipgloss.NewStyle().Foreground(lipgloss.Color("#B7950B")).Bold(true)
	s.Info = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	s.Border = lipgloss.Color("#A0A0A0")
	return s
}

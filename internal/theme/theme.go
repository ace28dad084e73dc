package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mail-triage/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for section headers.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// PanelStyle wraps the run summary.
var PanelStyle = lipgloss.NewStyle().
	Padding(0, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// KeyStyle renders the left-hand side of a key/value line.
var KeyStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Width(18)

// ErrorStyle highlights failure counts and fatal errors.
var ErrorStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorRed)

// OKStyle highlights successful writes.
var OKStyle = lipgloss.NewStyle().
	Foreground(ColorGreen)

// HelpStyle is used for hints and secondary text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// BorderStyle provides a standard rounded border for tables.
var BorderStyle = lipgloss.NewStyle().
	Foreground(ColorBorder)

// LabelStyle returns a color-coded style for a classification label.
func LabelStyle(label model.Label) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch label {
	case model.LabelActionRequired:
		return base.Foreground(ColorOrange)
	case model.LabelSpam:
		return base.Foreground(ColorRed)
	case model.LabelLowPriority:
		return base.Foreground(ColorBlue)
	default:
		return base.Foreground(ColorGray)
	}
}

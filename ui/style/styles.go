package style

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/drake/pimeconsole/config"
	"github.com/drake/pimeconsole/text"
)

// Styles holds all the lipgloss styles for the console.
type Styles struct {
	// Output
	App       lipgloss.Style // output pane background
	Normal    lipgloss.Style
	Highlight lipgloss.Style

	// Status indicators
	StatusBar          lipgloss.Style
	StatusConnected    lipgloss.Style
	StatusConnecting   lipgloss.Style
	StatusDisconnected lipgloss.Style
	StatusFailed       lipgloss.Style
	StatusLive         lipgloss.Style
	StatusScrolled     lipgloss.Style

	// Misc
	Error lipgloss.Style
}

// New builds styles for the given renderer and output colors.
// A nil renderer uses the lipgloss default (stdout).
func New(r *lipgloss.Renderer, colors config.ColorConfig) Styles {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	bg := lipgloss.Color(colors.Background)

	return Styles{
		App: r.NewStyle().
			Background(bg),
		Normal: r.NewStyle().
			Foreground(lipgloss.Color(colors.Normal)).
			Background(bg),
		Highlight: r.NewStyle().
			Foreground(lipgloss.Color(colors.Highlight)).
			Background(bg),

		StatusBar: r.NewStyle().
			Foreground(lipgloss.Color("252")),
		StatusConnected: r.NewStyle().
			Foreground(lipgloss.Color("71")), // Muted green
		StatusConnecting: r.NewStyle().
			Foreground(lipgloss.Color("179")), // Muted yellow
		StatusDisconnected: r.NewStyle().
			Foreground(lipgloss.Color("243")), // Gray
		StatusFailed: r.NewStyle().
			Foreground(lipgloss.Color("167")), // Muted red
		StatusLive: r.NewStyle().
			Foreground(lipgloss.Color("243")),
		StatusScrolled: r.NewStyle().
			Foreground(lipgloss.Color("179")),

		Error: r.NewStyle().
			Foreground(lipgloss.Color("196")),
	}
}

// Default returns styles with the built-in colors.
func Default(r *lipgloss.Renderer) Styles {
	return New(r, config.Default().Colors)
}

// Line returns the style for an output line category.
func (s Styles) Line(c text.Category) lipgloss.Style {
	if c == text.Highlighted {
		return s.Highlight
	}
	return s.Normal
}

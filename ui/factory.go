package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/drake/pimeconsole/config"
)

// Mode specifies which UI implementation to use.
type Mode int

const (
	// ModeTUI uses the full-screen Bubble Tea console.
	ModeTUI Mode = iota
	// ModeSimple prints lines to stdout and reads commands from stdin.
	ModeSimple
)

// Options configures either UI.
type Options struct {
	Scrollback int
	Colors     config.ColorConfig
	Renderer   *lipgloss.Renderer // nil: stdout for the TUI, Output for simple mode
	Input      io.Reader
	Output     io.Writer
	Logger     *log.Logger
}

func (o Options) withDefaults() Options {
	def := config.Default()
	if o.Scrollback <= 0 {
		o.Scrollback = def.Scrollback
	}
	if o.Colors == (config.ColorConfig{}) {
		o.Colors = def.Colors
	}
	if o.Input == nil {
		o.Input = os.Stdin
	}
	if o.Output == nil {
		o.Output = os.Stdout
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}

// New creates a UI for the given mode.
func New(mode Mode, backend Backend, opts Options) UI {
	switch mode {
	case ModeSimple:
		return NewConsoleUI(backend, opts)
	case ModeTUI:
		fallthrough
	default:
		return NewBubbleTeaUI(backend, opts)
	}
}

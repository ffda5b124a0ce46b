package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// BubbleTeaUI runs the full-screen console.
// Output arrives through the backend's wake-up signal; the model drains it
// on the Bubble Tea event loop, so no lines cross goroutines outside the relay.
type BubbleTeaUI struct {
	backend Backend
	opts    Options
}

// NewBubbleTeaUI creates a new Bubble Tea-based UI.
func NewBubbleTeaUI(backend Backend, opts Options) *BubbleTeaUI {
	return &BubbleTeaUI{
		backend: backend,
		opts:    opts.withDefaults(),
	}
}

// Run starts the TUI and blocks until the user quits or ctx is cancelled.
func (b *BubbleTeaUI) Run(ctx context.Context) error {
	program := tea.NewProgram(
		NewModel(b.backend, b.opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
		tea.WithInput(b.opts.Input),
		tea.WithOutput(b.opts.Output),
	)

	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		// Cancelled from outside (signal); not a failure.
		return nil
	}
	return err
}

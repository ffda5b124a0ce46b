package ui

import (
	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/drake/pimeconsole/event"
)

// outputReadyMsg signals that the backend has lines waiting to be drained.
type outputReadyMsg struct{}

// eventMsg carries a connection event from the backend.
type eventMsg event.Event

// copiedMsg reports the outcome of copying the scrollback to the clipboard.
type copiedMsg struct {
	Lines int
	Err   error
}

// waitForOutput blocks until the backend's wake-up signal fires.
func waitForOutput(b Backend) tea.Cmd {
	return func() tea.Msg {
		<-b.Ready()
		return outputReadyMsg{}
	}
}

// waitForEvent blocks for the next backend event.
func waitForEvent(b Backend) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-b.Events()
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

// copyToClipboard is replaced in tests.
var copyToClipboard = clipboard.WriteAll

func copyAll(content string, lines int) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{Lines: lines, Err: copyToClipboard(content)}
	}
}

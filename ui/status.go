package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/drake/pimeconsole/network"
	"github.com/drake/pimeconsole/ui/style"
)

// StatusBar displays connection state, the last notice and scroll mode.
type StatusBar struct {
	state   network.State
	address string
	notice  string

	scrolled bool
	newLines int
	width    int
	styles   style.Styles
}

// NewStatusBar creates a new status bar.
func NewStatusBar(styles style.Styles) StatusBar {
	return StatusBar{
		state:  network.StateDisconnected,
		styles: styles,
	}
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(w int) {
	s.width = w
}

// SetConnectionState updates the connection indicator.
func (s *StatusBar) SetConnectionState(state network.State, addr string) {
	s.state = state
	if addr != "" {
		s.address = addr
	}
}

// SetNotice sets the short message shown next to the connection indicator.
func (s *StatusBar) SetNotice(text string) {
	s.notice = text
}

// SetScrollMode updates the scroll mode indicator.
func (s *StatusBar) SetScrollMode(scrolled bool, newLines int) {
	s.scrolled = scrolled
	s.newLines = newLines
}

// View renders the status bar.
func (s *StatusBar) View() string {
	var right string
	var rightStyle lipgloss.Style
	if s.scrolled {
		rightStyle = s.styles.StatusScrolled
		right = "SCROLLED"
		if s.newLines > 0 {
			right = fmt.Sprintf("SCROLLED (%d new)", s.newLines)
		}
	} else {
		rightStyle = s.styles.StatusLive
		right = "LIVE"
	}

	var left string
	var leftStyle lipgloss.Style
	switch s.state {
	case network.StateConnected:
		leftStyle, left = s.styles.StatusConnected, "● "+s.address
	case network.StateConnecting:
		leftStyle, left = s.styles.StatusConnecting, "● Connecting..."
	case network.StateFailed:
		leftStyle, left = s.styles.StatusFailed, "● Failed"
	default:
		leftStyle, left = s.styles.StatusDisconnected, "● Disconnected"
	}
	if s.notice != "" {
		left += "  " + s.notice
	}

	// Leave at least one column between the sections.
	avail := s.width - runewidth.StringWidth(right) - 1
	if avail < 1 {
		return rightStyle.Render(right)
	}
	left = runewidth.Truncate(left, avail, "…")

	rendered := leftStyle.Render(left)
	padding := s.width - ansi.StringWidth(rendered) - runewidth.StringWidth(right)
	if padding < 1 {
		padding = 1
	}
	return s.styles.StatusBar.Render(rendered + strings.Repeat(" ", padding) + rightStyle.Render(right))
}

package ui

import (
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/drake/pimeconsole/network"
	"github.com/drake/pimeconsole/ui/style"
)

func plainStatusBar(width int) StatusBar {
	s := NewStatusBar(style.Default(lipgloss.NewRenderer(io.Discard)))
	s.SetWidth(width)
	return s
}

func TestStatusBarStates(t *testing.T) {
	tests := []struct {
		state network.State
		want  string
	}{
		{network.StateDisconnected, "● Disconnected"},
		{network.StateConnecting, "● Connecting..."},
		{network.StateConnected, "● pipe-addr"},
		{network.StateFailed, "● Failed"},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			s := plainStatusBar(60)
			s.SetConnectionState(tt.state, "pipe-addr")
			view := s.View()
			if !strings.HasPrefix(view, tt.want) {
				t.Fatalf("want prefix %q, got %q", tt.want, view)
			}
			if !strings.HasSuffix(view, "LIVE") {
				t.Fatalf("expected LIVE on the right, got %q", view)
			}
			if w := runewidth.StringWidth(view); w != 60 {
				t.Fatalf("expected width 60, got %d", w)
			}
		})
	}
}

func TestStatusBarTruncatesLongAddress(t *testing.T) {
	s := plainStatusBar(30)
	s.SetConnectionState(network.StateConnected, `\\.\pipe\a-very-long-user-name\PIME\Debug`)
	s.SetScrollMode(true, 12)

	view := s.View()
	if !strings.HasSuffix(view, "SCROLLED (12 new)") {
		t.Fatalf("scroll indicator must survive truncation: %q", view)
	}
	if !strings.Contains(view, "…") {
		t.Fatalf("expected ellipsis in %q", view)
	}
	if w := runewidth.StringWidth(view); w > 30 {
		t.Fatalf("status wider than terminal: %d", w)
	}
}

func TestStatusBarKeepsAddressAcrossStates(t *testing.T) {
	s := plainStatusBar(60)
	s.SetConnectionState(network.StateConnected, "pipe-addr")
	s.SetConnectionState(network.StateDisconnected, "")
	s.SetConnectionState(network.StateConnected, "")
	if !strings.Contains(s.View(), "pipe-addr") {
		t.Fatalf("address lost: %q", s.View())
	}
}

func TestStatusBarNotice(t *testing.T) {
	s := plainStatusBar(60)
	s.SetNotice("command sent")
	if !strings.Contains(s.View(), "Disconnected  command sent") {
		t.Fatalf("notice missing: %q", s.View())
	}
}

package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/drake/pimeconsole/event"
	"github.com/drake/pimeconsole/network"
	"github.com/drake/pimeconsole/text"
)

// fakeBackend stands in for console.Console.
type fakeBackend struct {
	mu       sync.Mutex
	pending  []text.Line
	ready    chan struct{}
	events   chan event.Event
	restarts int
	commands []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		ready:  make(chan struct{}, 1),
		events: make(chan event.Event, 8),
	}
}

func (f *fakeBackend) push(lines ...string) {
	f.mu.Lock()
	for _, l := range lines {
		f.pending = append(f.pending, text.NewLine(l))
	}
	f.mu.Unlock()
	select {
	case f.ready <- struct{}{}:
	default:
	}
}

func (f *fakeBackend) Ready() <-chan struct{}     { return f.ready }
func (f *fakeBackend) Events() <-chan event.Event { return f.events }
func (f *fakeBackend) Address() string            { return `\\.\pipe\alice\PIME\Debug` }

func (f *fakeBackend) DrainLines() []text.Line {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := f.pending
	f.pending = nil
	return lines
}

func (f *fakeBackend) RestartBackends() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restarts++
	return nil
}

func (f *fakeBackend) Submit(cmd string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, cmd)
	return nil
}

func (f *fakeBackend) restartCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.restarts
}

func testOptions() Options {
	return Options{
		Scrollback: 500,
		Renderer:   lipgloss.NewRenderer(io.Discard),
		Logger:     log.New(io.Discard),
	}
}

func newTestModel(t *testing.T, b *fakeBackend) Model {
	t.Helper()
	m := NewModel(b, testOptions())
	return update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelRendersClassifiedLines(t *testing.T) {
	b := newFakeBackend()
	m := newTestModel(t, b)

	b.push("plain output", "PIME_MSG|backend restarted")
	m = update(t, m, outputReadyMsg{})

	view := m.View()
	if !strings.Contains(view, "plain output") {
		t.Fatalf("normal line missing from view:\n%s", view)
	}
	if !strings.Contains(view, "backend restarted") {
		t.Fatalf("highlighted line missing from view:\n%s", view)
	}
	if strings.Contains(view, text.HighlightMarker) {
		t.Fatalf("marker should not be displayed:\n%s", view)
	}
	if m.scrollback.Count() != 2 {
		t.Fatalf("expected 2 lines in scrollback, got %d", m.scrollback.Count())
	}
	if got := m.scrollback.Get(1).Category; got != text.Highlighted {
		t.Fatalf("expected highlighted category, got %s", got)
	}
}

func TestModelViewportUsesBackground(t *testing.T) {
	opts := testOptions()
	opts.Colors.Background = "#101010"
	opts.Colors.Normal = "#c0c0c0"
	opts.Colors.Highlight = "#ffff00"
	m := NewModel(newFakeBackend(), opts)

	if got := m.viewport.Style.GetBackground(); got != lipgloss.Color("#101010") {
		t.Fatalf("expected viewport background #101010, got %v", got)
	}
}

func TestModelOutputReadyRearms(t *testing.T) {
	b := newFakeBackend()
	m := newTestModel(t, b)

	_, cmd := m.Update(outputReadyMsg{})
	if cmd == nil {
		t.Fatal("expected a command waiting for the next wake-up")
	}
	b.push("next")
	if _, ok := cmd().(outputReadyMsg); !ok {
		t.Fatal("expected outputReadyMsg after wake-up")
	}
}

func TestModelRestartKey(t *testing.T) {
	b := newFakeBackend()
	m := newTestModel(t, b)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if b.restartCount() != 1 {
		t.Fatalf("expected one restart request, got %d", b.restartCount())
	}
	if !strings.Contains(m.status.View(), "restart requested") {
		t.Fatalf("status should acknowledge the request: %q", m.status.View())
	}
}

func TestModelConnectionEvents(t *testing.T) {
	b := newFakeBackend()
	m := newTestModel(t, b)

	if !strings.Contains(m.status.View(), "Disconnected") {
		t.Fatalf("expected disconnected status, got %q", m.status.View())
	}

	m = update(t, m, eventMsg(event.Event{Type: event.StateChanged, State: network.StateConnected}))
	if !strings.Contains(m.status.View(), `\\.\pipe\alice\PIME\Debug`) {
		t.Fatalf("expected pipe address in status, got %q", m.status.View())
	}

	m = update(t, m, eventMsg(event.Event{Type: event.StateChanged, State: network.StateFailed}))
	if !strings.Contains(m.status.View(), "Failed") {
		t.Fatalf("expected failed status, got %q", m.status.View())
	}
}

func TestModelScrollModeTracksNewLines(t *testing.T) {
	b := newFakeBackend()
	m := newTestModel(t, b)

	for i := 0; i < 100; i++ {
		b.push(fmt.Sprintf("line %d", i))
	}
	m = update(t, m, outputReadyMsg{})
	if !strings.Contains(m.status.View(), "LIVE") {
		t.Fatalf("expected live mode, got %q", m.status.View())
	}

	m = update(t, m, keyRunes("g"))
	b.push("a", "b", "c")
	m = update(t, m, outputReadyMsg{})
	if !strings.Contains(m.status.View(), "SCROLLED (3 new)") {
		t.Fatalf("expected scrolled with 3 new, got %q", m.status.View())
	}
	if !strings.Contains(m.View(), "line 0") {
		t.Fatal("scrolled view should keep showing the oldest lines")
	}

	m = update(t, m, keyRunes("G"))
	if !strings.Contains(m.status.View(), "LIVE") {
		t.Fatalf("expected live mode after jumping to bottom, got %q", m.status.View())
	}
	if !strings.Contains(m.View(), "line 99") || strings.Contains(m.View(), "line 10 ") {
		t.Fatalf("live view should show the newest lines:\n%s", m.View())
	}
}

func TestModelClear(t *testing.T) {
	b := newFakeBackend()
	m := newTestModel(t, b)

	b.push("one", "two")
	m = update(t, m, outputReadyMsg{})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	if m.scrollback.Count() != 0 {
		t.Fatalf("expected empty scrollback, got %d", m.scrollback.Count())
	}
	if strings.Contains(m.View(), "one") {
		t.Fatal("cleared lines still visible")
	}
}

func TestModelCopyAll(t *testing.T) {
	var copied string
	orig := copyToClipboard
	copyToClipboard = func(s string) error { copied = s; return nil }
	defer func() { copyToClipboard = orig }()

	b := newFakeBackend()
	m := newTestModel(t, b)
	b.push("first", "PIME_MSG|second")
	m = update(t, m, outputReadyMsg{})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlY})
	if cmd == nil {
		t.Fatal("expected copy command")
	}
	msg := cmd()
	if copied != "first\nsecond\n" {
		t.Fatalf("unexpected clipboard contents %q", copied)
	}
	m = update(t, m, msg)
	if !strings.Contains(m.status.View(), "copied 2 lines") {
		t.Fatalf("expected copy notice, got %q", m.status.View())
	}
}

func TestModelQuit(t *testing.T) {
	m := newTestModel(t, newFakeBackend())
	_, cmd := m.Update(keyRunes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}

func TestModelHelpToggleShrinksViewport(t *testing.T) {
	m := newTestModel(t, newFakeBackend())
	before := m.viewport.Height
	m = update(t, m, keyRunes("?"))
	if m.viewport.Height >= before {
		t.Fatalf("viewport should shrink for help, %d -> %d", before, m.viewport.Height)
	}
	if !strings.Contains(m.View(), "restart backends") {
		t.Fatalf("help should list the restart binding:\n%s", m.View())
	}
}

func TestDisplayText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "hello", "hello"},
		{"highlight marker removed", "PIME_MSG|notice", "notice"},
		{"ansi stripped", "\x1b[31mred\x1b[0m", "red"},
		{"invalid utf8 replaced", "bad\xffbyte", "bad�byte"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := displayText(text.NewLine(tt.raw)); got != tt.want {
				t.Fatalf("displayText(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

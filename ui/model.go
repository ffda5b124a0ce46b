package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/reflow/wordwrap"

	"github.com/drake/pimeconsole/event"
	"github.com/drake/pimeconsole/network"
	"github.com/drake/pimeconsole/text"
	"github.com/drake/pimeconsole/ui/style"
)

// Model is the Bubble Tea model for the console window.
type Model struct {
	backend    Backend
	scrollback *ScrollbackBuffer
	viewport   viewport.Model
	help       help.Model
	keys       keyMap
	status     StatusBar
	styles     style.Styles
	logger     *log.Logger

	// follow pins the view to the newest line. Cleared when the user
	// scrolls away from the bottom, restored when they return.
	follow   bool
	newLines int // Lines appended while not following

	width       int
	height      int
	showHelp    bool
	initialized bool
	quitting    bool
}

// NewModel creates a console model reading from backend.
func NewModel(backend Backend, opts Options) Model {
	opts = opts.withDefaults()
	styles := style.New(opts.Renderer, opts.Colors)

	status := NewStatusBar(styles)
	status.SetConnectionState(network.StateDisconnected, backend.Address())

	vp := viewport.New(0, 0)
	vp.Style = styles.App

	return Model{
		backend:    backend,
		scrollback: NewScrollbackBuffer(opts.Scrollback),
		viewport:   vp,
		help:       help.New(),
		keys:       defaultKeyMap(),
		status:     status,
		styles:     styles,
		logger:     opts.Logger.WithPrefix("ui"),
		follow:     true,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForOutput(m.backend),
		waitForEvent(m.backend),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateDimensions()
		m.refresh()
		m.initialized = true
		return m, nil

	// Wake-up from the relay: take everything pending in one go.
	case outputReadyMsg:
		m.appendLines(m.backend.DrainLines())
		return m, waitForOutput(m.backend)

	case eventMsg:
		m.handleEvent(event.Event(msg))
		return m, waitForEvent(m.backend)

	case copiedMsg:
		if msg.Err != nil {
			m.logger.Warn("clipboard copy failed", "err", msg.Err)
			m.status.SetNotice("copy failed")
		} else {
			m.status.SetNotice(fmt.Sprintf("copied %d lines", msg.Lines))
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.syncFollow()
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Restart):
		if err := m.backend.RestartBackends(); err != nil {
			m.logger.Warn("restart not submitted", "err", err)
			m.status.SetNotice("restart not sent")
		} else {
			m.status.SetNotice("restart requested")
		}
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		lines := m.scrollback.All()
		return m, copyAll(plainText(lines), len(lines))

	case key.Matches(msg, m.keys.Clear):
		m.scrollback.Clear()
		m.follow = true
		m.newLines = 0
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		m.syncFollow()
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		m.syncFollow()
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		m.updateDimensions()
		return m, nil
	}

	// Scrolling keys
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	m.syncFollow()
	return m, cmd
}

func (m *Model) handleEvent(ev event.Event) {
	switch ev.Type {
	case event.StateChanged:
		m.status.SetConnectionState(ev.State, m.backend.Address())
		m.status.SetNotice("")
	case event.CommandSent:
		m.status.SetNotice("command sent")
	case event.CommandFailed:
		m.status.SetNotice("command failed")
	}
}

func (m *Model) appendLines(lines []text.Line) {
	if len(lines) == 0 {
		return
	}
	m.scrollback.AppendBatch(lines)
	if !m.follow {
		m.newLines += len(lines)
	}
	m.refresh()
}

// refresh re-renders the scrollback into the viewport.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderContent())
	if m.follow {
		m.viewport.GotoBottom()
	}
	m.status.SetScrollMode(!m.follow, m.newLines)
}

// syncFollow re-derives live mode after the user moved the view.
func (m *Model) syncFollow() {
	m.follow = m.viewport.AtBottom()
	if m.follow {
		m.newLines = 0
	}
	m.status.SetScrollMode(!m.follow, m.newLines)
}

func (m *Model) updateDimensions() {
	m.status.SetWidth(m.width)
	m.help.Width = m.width

	h := m.height - 1 // status bar
	if m.showHelp {
		h -= lipgloss.Height(m.help.View(m.keys))
	}
	if h < 1 {
		h = 1
	}
	m.viewport.Width = m.width
	m.viewport.Height = h
	if m.follow {
		m.viewport.GotoBottom()
	}
}

func (m Model) renderContent() string {
	lines := m.scrollback.All()
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(renderLine(l, m.width, m.styles))
	}
	return b.String()
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.initialized {
		return "Initializing..."
	}

	parts := []string{m.viewport.View(), m.status.View()}
	if m.showHelp {
		parts = append(parts, m.help.View(m.keys))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// displayText is the text shown for a line: marker removed, bytes decoded,
// and any terminal control sequences dropped.
func displayText(l text.Line) string {
	return ansi.Strip(text.Decode(l.Body()))
}

// renderLine styles one line by category, wrapped to width when known.
func renderLine(l text.Line, width int, s style.Styles) string {
	body := displayText(l)
	if width > 0 {
		body = wordwrap.String(body, width)
	}
	return s.Line(l.Category).Render(body)
}

func plainText(lines []text.Line) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(displayText(l))
		b.WriteByte('\n')
	}
	return b.String()
}

package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/drake/pimeconsole/console"
	"github.com/drake/pimeconsole/event"
	"github.com/drake/pimeconsole/ui/style"
)

// ConsoleUI prints output lines to a writer and reads commands from a reader.
// Colors degrade to plain text when the writer is not a terminal.
//
// Commands: "restart" asks the backend to restart, "quit" or "exit" leaves.
// Any other non-empty input is sent to the backend as a raw debug command.
// End of input stops command reading; output keeps flowing until ctx ends.
// An input that is an io.Closer is closed when Run returns.
type ConsoleUI struct {
	backend Backend
	in      io.Reader
	out     io.Writer
	styles  style.Styles
	logger  *log.Logger
}

// NewConsoleUI creates a line-oriented UI.
func NewConsoleUI(backend Backend, opts Options) *ConsoleUI {
	opts = opts.withDefaults()
	r := opts.Renderer
	if r == nil {
		r = lipgloss.NewRenderer(opts.Output)
	}
	return &ConsoleUI{
		backend: backend,
		in:      opts.Input,
		out:     opts.Output,
		styles:  style.New(r, opts.Colors),
		logger:  opts.Logger.WithPrefix("ui"),
	}
}

// Run prints output until the user quits or ctx is cancelled.
func (c *ConsoleUI) Run(ctx context.Context) error {
	defer c.closeInput()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	input := make(chan string)
	go c.readInput(ctx, input)

	for {
		select {
		case <-ctx.Done():
			c.flush()
			return nil

		case <-c.backend.Ready():
			c.flush()

		case ev := <-c.backend.Events():
			c.logEvent(ev)

		case line, ok := <-input:
			if !ok {
				input = nil // stdin closed; keep printing
				continue
			}
			if c.handleCommand(line) {
				c.flush()
				return nil
			}
		}
	}
}

func (c *ConsoleUI) readInput(ctx context.Context, input chan<- string) {
	defer close(input)
	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		select {
		case input <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		c.logger.Warn("input read failed", "err", err)
	}
}

// closeInput unblocks readInput, which otherwise sits in Scan until the
// next line arrives. Readers that cannot be closed leak the goroutine
// until they return.
func (c *ConsoleUI) closeInput() {
	if closer, ok := c.in.(io.Closer); ok {
		closer.Close()
	}
}

// handleCommand runs one input line. Returns true to quit.
func (c *ConsoleUI) handleCommand(line string) bool {
	cmd := strings.TrimSpace(line)
	switch strings.ToLower(cmd) {
	case "":
		return false
	case "quit", "exit":
		return true
	case "restart":
		c.submit(c.backend.RestartBackends())
	default:
		c.submit(c.backend.Submit(cmd))
	}
	return false
}

func (c *ConsoleUI) submit(err error) {
	if err != nil {
		c.logger.Warn("command not submitted", "err", err)
		fmt.Fprintln(c.out, c.styles.Error.Render(console.MsgSendFailed))
	}
}

func (c *ConsoleUI) flush() {
	for _, l := range c.backend.DrainLines() {
		fmt.Fprintln(c.out, c.styles.Line(l.Category).Render(displayText(l)))
	}
}

func (c *ConsoleUI) logEvent(ev event.Event) {
	c.logger.Debug("event", "type", ev.Type, "state", ev.State, "err", ev.Err)
}

// Package console wires the debug pipe to the relay. It owns the I/O loop,
// the pipe client and the line splitter, and exposes the two contracts the
// presentation layer uses: draining ready lines and submitting commands.
package console

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/drake/pimeconsole/endpoint"
	"github.com/drake/pimeconsole/event"
	"github.com/drake/pimeconsole/internal/loop"
	"github.com/drake/pimeconsole/network"
	"github.com/drake/pimeconsole/relay"
	"github.com/drake/pimeconsole/text"
)

// Diagnostic lines published to the relay.
const (
	MsgConnected       = "Debug console connected"
	MsgConnectFailed   = "Fail to connect to the debug console"
	MsgDisconnected    = "Debug console disconnected"
	MsgSendFailed      = "Fail to send command to the debug console"
	MsgResolveFailed   = "Fail to resolve the debug console address"
	eventChannelBuffer = 32
)

var (
	ErrClosed         = errors.New("console closed")
	ErrAlreadyStarted = errors.New("console already started")
)

// Config holds console configuration.
type Config struct {
	Address       string // Overrides endpoint resolution when set
	Resolve       func() (string, error)
	Dial          network.DialFunc
	Logger        *log.Logger
	SendQueueSize int
}

// Stats aggregates component statistics for the debug monitor.
type Stats struct {
	Network     network.Stats
	Relay       relay.Stats
	LoopBacklog uint64
	PendingLine int
}

// Console connects to the backend debug pipe and relays its output.
type Console struct {
	cfg    Config
	logger *log.Logger

	loop   *loop.Loop
	client *network.PipeClient
	relay  *relay.Relay
	events chan event.Event

	// Owned by the loop goroutine.
	splitter text.Splitter

	address     atomic.Value // string
	pendingLine atomic.Int64
	started     atomic.Bool
	closed      atomic.Bool
}

// New creates a Console. It is passive - nothing runs until Start.
func New(cfg Config) *Console {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithPrefix("console")
	if cfg.Resolve == nil {
		cfg.Resolve = endpoint.Resolve
	}

	c := &Console{
		cfg:    cfg,
		logger: logger,
		loop:   loop.New(),
		relay:  relay.New(),
		events: make(chan event.Event, eventChannelBuffer),
	}
	c.address.Store("")
	c.client = network.NewPipeClient(c.loop, pipeHandler{c}, network.ClientConfig{
		Dial:          cfg.Dial,
		Logger:        logger.WithPrefix("pipe"),
		SendQueueSize: cfg.SendQueueSize,
	})
	return c
}

// Start resolves the address, starts the I/O loop and begins connecting.
// It returns without waiting for the connection. An identity failure is
// published as a diagnostic line and returned; no connection is attempted,
// but the loop still runs so later commands fail with a diagnostic line.
func (c *Console) Start(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	go c.loop.Run()

	addr := c.cfg.Address
	if addr == "" {
		resolved, err := c.cfg.Resolve()
		if err != nil {
			c.logger.Error("cannot compute pipe address", "err", err)
			c.relay.PublishText(MsgResolveFailed)
			c.emit(event.Event{Type: event.StateChanged, State: network.StateFailed, Message: MsgResolveFailed, Err: err})
			return err
		}
		addr = resolved
	}
	c.address.Store(addr)

	c.logger.Info("connecting", "address", addr)
	c.emit(event.Event{Type: event.StateChanged, State: network.StateConnecting})
	return c.client.Connect(ctx, addr)
}

// Close releases the pipe and stops the I/O loop. Safe to call more than once.
func (c *Console) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.client.Close()
	c.loop.Close()
	return nil
}

// Ready signals that output may be waiting in Drain.
func (c *Console) Ready() <-chan struct{} {
	return c.relay.Ready()
}

// Drain takes all pending output as one CRLF-terminated batch.
func (c *Console) Drain() (string, bool) {
	return c.relay.Drain()
}

// DrainLines takes all pending output as classified lines.
func (c *Console) DrainLines() []text.Line {
	return c.relay.DrainLines()
}

// Events streams connection state changes and command outcomes.
// Events are dropped, with a warning, if nobody keeps up with the channel.
func (c *Console) Events() <-chan event.Event {
	return c.events
}

// State returns the pipe connection state.
func (c *Console) State() network.State {
	return c.client.State()
}

// Address returns the pipe address, empty before Start.
func (c *Console) Address() string {
	return c.address.Load().(string)
}

// Stats returns a snapshot of all component statistics.
func (c *Console) Stats() Stats {
	return Stats{
		Network:     c.client.Stats(),
		Relay:       c.relay.Stats(),
		LoopBacklog: c.loop.Backlog(),
		PendingLine: int(c.pendingLine.Load()),
	}
}

func (c *Console) emit(ev event.Event) {
	select {
	case c.events <- ev:
	default:
		c.logger.Warn("event dropped", "type", ev.Type, "state", ev.State)
	}
}

// diagnose publishes a synthesized line and the matching event.
func (c *Console) diagnose(msg string, ev event.Event) {
	c.relay.PublishText(msg)
	ev.Message = msg
	c.emit(ev)
}

// pipeHandler receives pipe callbacks on the I/O loop.
type pipeHandler struct {
	c *Console
}

func (h pipeHandler) OnConnect(err error) {
	c := h.c
	if err != nil {
		c.logger.Error("connect failed", "err", err)
		c.diagnose(MsgConnectFailed, event.Event{Type: event.StateChanged, State: network.StateFailed, Err: err})
		return
	}
	c.logger.Info("connected", "address", c.Address())
	c.diagnose(MsgConnected, event.Event{Type: event.StateChanged, State: network.StateConnected})
	if err := c.client.StartReading(); err != nil {
		c.logger.Error("start reading", "err", err)
	}
}

func (h pipeHandler) OnData(chunk []byte) {
	c := h.c
	for _, line := range c.splitter.Feed(chunk) {
		c.relay.Publish(line)
	}
	c.pendingLine.Store(int64(c.splitter.Pending()))
}

func (h pipeHandler) OnClose(err error) {
	c := h.c
	if tail, ok := c.splitter.Flush(); ok {
		c.relay.Publish(tail)
	}
	c.pendingLine.Store(0)

	if errors.Is(err, network.ErrStreamClosed) {
		c.logger.Info("pipe closed by backend")
	} else {
		c.logger.Error("pipe read failed", "err", err)
	}
	c.diagnose(MsgDisconnected, event.Event{Type: event.StateChanged, State: network.StateDisconnected, Err: err})
}

func (h pipeHandler) OnWrite(n int, err error) {
	c := h.c
	if err != nil {
		c.logger.Error("command write failed", "err", err)
		c.diagnose(MsgSendFailed, event.Event{Type: event.CommandFailed, State: c.client.State(), Err: err})
		return
	}
	c.logger.Debug("command written", "bytes", n)
	c.emit(event.Event{Type: event.CommandSent, State: c.client.State()})
}

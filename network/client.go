package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

const (
	readBufferSize       = 4096
	defaultSendQueueSize = 64
)

// State is the lifecycle of the single pipe connection.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Poster runs a task on the I/O loop. It returns false once the loop is closed.
type Poster interface {
	Post(task func()) bool
}

// Handler receives pipe outcomes. Every method is called on the I/O loop.
type Handler interface {
	// OnConnect reports the dial outcome; err is a *ConnectError on failure.
	OnConnect(err error)
	// OnData delivers one inbound chunk. The slice is owned by the handler.
	OnData(chunk []byte)
	// OnClose reports the end of the read loop. It is not called after Close.
	OnClose(err error)
	// OnWrite reports the completion of one Send.
	OnWrite(n int, err error)
}

// DialFunc opens the pipe. DialPipe is the platform default.
type DialFunc func(ctx context.Context, address string) (net.Conn, error)

// ClientConfig configures a PipeClient. Zero values select defaults.
type ClientConfig struct {
	Dial          DialFunc
	Logger        *log.Logger
	SendQueueSize int
}

// Stats holds pipe statistics for monitoring.
type Stats struct {
	State        State
	Address      string
	BytesRead    uint64
	BytesWritten uint64
	Chunks       uint64
	Writes       uint64
	LastReadTime time.Time
	SendQueueLen int
	SendQueueCap int
}

// PipeClient owns one IPC connection. Blocking calls run on helper
// goroutines; their outcomes are posted to the I/O loop and reported to the
// Handler there, in the order they happened.
type PipeClient struct {
	loop    Poster
	handler Handler
	dial    DialFunc
	logger  *log.Logger
	qsize   int

	state atomic.Int32

	mu        sync.Mutex
	address   string
	current   *connection
	closed    bool
	closeOnce sync.Once

	bytesRead    atomic.Uint64
	bytesWritten atomic.Uint64
	chunks       atomic.Uint64
	writes       atomic.Uint64
	lastReadTime atomic.Int64 // Unix nano
}

// connection is the live pipe plus its writer goroutine.
type connection struct {
	conn      net.Conn
	sendQueue chan []byte
	reading   bool

	done     chan struct{}
	stopOnce sync.Once
}

// NewPipeClient creates a client that reports to handler on loop.
func NewPipeClient(loop Poster, handler Handler, cfg ClientConfig) *PipeClient {
	if cfg.Dial == nil {
		cfg.Dial = DialPipe
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.SendQueueSize <= 0 {
		cfg.SendQueueSize = defaultSendQueueSize
	}
	return &PipeClient{
		loop:    loop,
		handler: handler,
		dial:    cfg.Dial,
		logger:  cfg.Logger,
		qsize:   cfg.SendQueueSize,
	}
}

// State returns the current connection state.
func (c *PipeClient) State() State {
	return State(c.state.Load())
}

// Connect starts dialing address and returns immediately.
// The outcome arrives later through Handler.OnConnect.
func (c *PipeClient) Connect(ctx context.Context, address string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if !c.state.CompareAndSwap(int32(StateDisconnected), int32(StateConnecting)) {
		c.mu.Unlock()
		if c.State() == StateConnecting {
			return ErrConnectInFlight
		}
		return fmt.Errorf("%w: %s", ErrInvalidState, c.State())
	}
	c.address = address
	c.mu.Unlock()

	c.logger.Debug("dialing pipe", "address", address)

	go func() {
		conn, err := c.dial(ctx, address)
		posted := c.loop.Post(func() { c.finishConnect(address, conn, err) })
		if !posted && conn != nil {
			conn.Close()
		}
	}()
	return nil
}

// finishConnect runs on the loop.
func (c *PipeClient) finishConnect(address string, conn net.Conn, err error) {
	if err != nil {
		c.mu.Lock()
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return
		}
		c.state.Store(int32(StateFailed))
		c.handler.OnConnect(&ConnectError{Address: address, Err: err})
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return
	}
	cx := &connection{
		conn:      conn,
		sendQueue: make(chan []byte, c.qsize),
		done:      make(chan struct{}),
	}
	c.current = cx
	c.state.Store(int32(StateConnected))
	c.mu.Unlock()

	c.bytesRead.Store(0)
	c.bytesWritten.Store(0)
	c.lastReadTime.Store(0)

	go c.writeLoop(cx)
	c.handler.OnConnect(nil)
}

// StartReading begins the read loop. Calling it again is a no-op.
func (c *PipeClient) StartReading() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cx := c.current
	if cx == nil || c.State() != StateConnected {
		return ErrNotConnected
	}
	if cx.reading {
		return nil
	}
	cx.reading = true
	go c.readLoop(cx)
	return nil
}

// Send queues data for writing. The completion arrives through Handler.OnWrite.
// Ownership of data passes to the client.
func (c *PipeClient) Send(data []byte) error {
	// Queue under the lock: finishRead and Close clear current before
	// closing the connection, so anything queued here is seen by the writer.
	c.mu.Lock()
	defer c.mu.Unlock()
	cx := c.current

	if cx == nil || c.State() != StateConnected {
		return ErrNotConnected
	}

	select {
	case cx.sendQueue <- data:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close releases the connection. It is safe to call more than once.
// In-flight reads and writes fail and are not reported as a disconnect.
func (c *PipeClient) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		cx := c.current
		c.current = nil
		c.mu.Unlock()

		if cx != nil {
			cx.close()
		}
		switch c.State() {
		case StateConnecting, StateConnected:
			c.state.Store(int32(StateDisconnected))
		}
	})
	return nil
}

// Stats returns current pipe statistics.
func (c *PipeClient) Stats() Stats {
	c.mu.Lock()
	cx := c.current
	addr := c.address
	var qlen, qcap int
	if cx != nil {
		qlen = len(cx.sendQueue)
		qcap = cap(cx.sendQueue)
	}
	c.mu.Unlock()

	lastRead := time.Time{}
	if ns := c.lastReadTime.Load(); ns != 0 {
		lastRead = time.Unix(0, ns)
	}

	return Stats{
		State:        c.State(),
		Address:      addr,
		BytesRead:    c.bytesRead.Load(),
		BytesWritten: c.bytesWritten.Load(),
		Chunks:       c.chunks.Load(),
		Writes:       c.writes.Load(),
		LastReadTime: lastRead,
		SendQueueLen: qlen,
		SendQueueCap: qcap,
	}
}

// --- Worker Routines ---

// readLoop reads until the pipe fails. Each chunk is copied before posting so
// the read buffer can be reused.
func (c *PipeClient) readLoop(cx *connection) {
	buf := make([]byte, readBufferSize)

	for {
		n, err := cx.conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])

			c.bytesRead.Add(uint64(n))
			c.chunks.Add(1)
			c.lastReadTime.Store(time.Now().UnixNano())

			if !c.loop.Post(func() { c.handler.OnData(chunk) }) {
				return
			}
		}
		if err != nil {
			c.loop.Post(func() { c.finishRead(cx, err) })
			return
		}
	}
}

// finishRead runs on the loop after the read loop has stopped.
func (c *PipeClient) finishRead(cx *connection, err error) {
	c.mu.Lock()
	if c.current != cx {
		// Closed on purpose; nothing to report.
		c.mu.Unlock()
		return
	}
	c.current = nil
	c.state.Store(int32(StateDisconnected))
	c.mu.Unlock()

	cx.close()

	if errors.Is(err, io.EOF) {
		err = ErrStreamClosed
	} else {
		err = fmt.Errorf("read pipe: %w", err)
	}
	c.handler.OnClose(err)
}

// writeLoop drains the connection's send queue.
func (c *PipeClient) writeLoop(cx *connection) {
	for {
		select {
		case <-cx.done:
			c.failQueued(cx)
			return
		case data := <-cx.sendQueue:
			n, err := cx.conn.Write(data)
			c.bytesWritten.Add(uint64(n))
			c.writes.Add(1)
			if err != nil {
				err = fmt.Errorf("write pipe: %w", err)
			}
			c.loop.Post(func() { c.handler.OnWrite(n, err) })
		}
	}
}

// failQueued reports every command left unwritten when the connection ended.
// Nothing is reported after Close.
func (c *PipeClient) failQueued(cx *connection) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()

	for {
		select {
		case data := <-cx.sendQueue:
			if closed {
				continue
			}
			c.logger.Debug("dropping queued command", "bytes", len(data))
			c.loop.Post(func() { c.handler.OnWrite(0, ErrNotConnected) })
		default:
			return
		}
	}
}

// close shuts the pipe and stops the writer exactly once.
func (cx *connection) close() {
	cx.stopOnce.Do(func() {
		close(cx.done)
		cx.conn.Close()
	})
}

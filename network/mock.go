package network

import (
	"bytes"
	"context"
	"errors"
	"net"
	"sync"
)

// MockBackend is an in-memory stand-in for the backend end of the pipe.
// Its Dial method plugs into ClientConfig.Dial; each chunk the client writes
// is recorded and announced on Received.
type MockBackend struct {
	mu       sync.Mutex
	dialErr  error
	server   net.Conn
	received bytes.Buffer
	address  string

	accepted chan struct{}
	chunks   chan []byte
}

// NewMockBackend creates a backend that accepts one connection.
func NewMockBackend() *MockBackend {
	return &MockBackend{
		accepted: make(chan struct{}),
		chunks:   make(chan []byte, 100),
	}
}

// FailDial makes every subsequent dial return err.
func (m *MockBackend) FailDial(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dialErr = err
}

// Dial implements DialFunc using an in-memory pipe.
func (m *MockBackend) Dial(ctx context.Context, address string) (net.Conn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dialErr != nil {
		return nil, m.dialErr
	}
	if m.server != nil {
		return nil, errors.New("mock backend already connected")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client, server := net.Pipe()
	m.server = server
	m.address = address
	close(m.accepted)
	go m.readLoop(server)
	return client, nil
}

// Accepted closes once a client has connected.
func (m *MockBackend) Accepted() <-chan struct{} {
	return m.accepted
}

// Address returns the address the client dialed.
func (m *MockBackend) Address() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.address
}

// Write sends data to the client as if the backend had logged it.
func (m *MockBackend) Write(data string) error {
	m.mu.Lock()
	server := m.server
	m.mu.Unlock()
	if server == nil {
		return ErrNotConnected
	}
	_, err := server.Write([]byte(data))
	return err
}

// Received returns a channel of chunks written by the client.
func (m *MockBackend) Received() <-chan []byte {
	return m.chunks
}

// ReceivedAll returns everything the client has written so far.
func (m *MockBackend) ReceivedAll() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.received.String()
}

// Close hangs up, which the client sees as end of stream.
func (m *MockBackend) Close() error {
	m.mu.Lock()
	server := m.server
	m.mu.Unlock()
	if server == nil {
		return nil
	}
	return server.Close()
}

func (m *MockBackend) readLoop(conn net.Conn) {
	buf := make([]byte, readBufferSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			m.mu.Lock()
			m.received.Write(chunk)
			m.mu.Unlock()
			select {
			case m.chunks <- chunk:
			default:
			}
		}
		if err != nil {
			return
		}
	}
}

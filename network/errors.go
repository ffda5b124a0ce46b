package network

import (
	"errors"
	"fmt"
)

var (
	ErrNotConnected    = errors.New("pipe not connected")
	ErrConnectInFlight = errors.New("connect already in progress")
	ErrInvalidState    = errors.New("connect not allowed in current state")
	ErrSendQueueFull   = errors.New("send queue full")
	ErrStreamClosed    = errors.New("pipe stream closed")
	ErrClosed          = errors.New("pipe client closed")
)

// ConnectError is reported when the pipe cannot be opened.
type ConnectError struct {
	Address string
	Err     error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Address, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

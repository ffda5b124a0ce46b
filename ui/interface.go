package ui

import (
	"context"

	"github.com/drake/pimeconsole/event"
	"github.com/drake/pimeconsole/text"
)

// UI defines the contract for the display layer.
type UI interface {
	// Run blocks until the user quits or ctx is cancelled.
	Run(ctx context.Context) error
}

// Backend is what the display layer needs from the console.
// console.Console satisfies it.
type Backend interface {
	Ready() <-chan struct{}
	DrainLines() []text.Line
	Events() <-chan event.Event
	RestartBackends() error
	Submit(cmd string) error
	Address() string
}

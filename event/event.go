package event

import "github.com/drake/pimeconsole/network"

// Type identifies what happened on the connection.
type Type int

const (
	StateChanged  Type = iota // Connection state transition
	CommandSent               // A submitted command was written to the pipe
	CommandFailed             // A submitted command could not be written
)

func (t Type) String() string {
	switch t {
	case StateChanged:
		return "state_changed"
	case CommandSent:
		return "command_sent"
	case CommandFailed:
		return "command_failed"
	default:
		return "unknown"
	}
}

// Event is emitted once per connection state transition or command outcome.
type Event struct {
	Type    Type
	State   network.State // Connection state after the event
	Message string        // The diagnostic line shown to the user, if any
	Err     error         // Cause, for failures
}

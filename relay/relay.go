// Package relay hands completed output from the I/O loop to the presentation
// goroutine. Producers append under a mutex and raise a coalescing wake-up;
// the consumer drains everything pending in one batch.
package relay

import (
	"sync"

	"github.com/drake/pimeconsole/text"
)

// Stats holds relay counters for monitoring.
type Stats struct {
	Published    uint64
	Drains       uint64
	PendingBytes int
}

// Relay is the pending-output buffer shared by the two goroutines.
type Relay struct {
	mu        sync.Mutex
	pending   []byte
	published uint64
	drains    uint64

	// One slot: any number of publishes between drains collapse into one wake-up.
	ready chan struct{}
}

// New creates an empty relay.
func New() *Relay {
	return &Relay{ready: make(chan struct{}, 1)}
}

// Publish appends a line in its rendered form and wakes the consumer.
func (r *Relay) Publish(line text.Line) {
	r.append(line.Rendered())
}

// PublishText appends a synthesized diagnostic line and wakes the consumer.
func (r *Relay) PublishText(s string) {
	r.append(s + text.Terminator)
}

func (r *Relay) append(s string) {
	r.mu.Lock()
	r.pending = append(r.pending, s...)
	r.published++
	r.mu.Unlock()

	select {
	case r.ready <- struct{}{}:
	default:
	}
}

// Ready returns the wake-up channel. A receive means output may be pending;
// Drain can still come back empty if an earlier drain already took it.
func (r *Relay) Ready() <-chan struct{} {
	return r.ready
}

// Drain takes all pending output and clears it. It never waits for output.
func (r *Relay) Drain() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pending) == 0 {
		return "", true
	}
	out := string(r.pending)
	r.pending = r.pending[:0]
	r.drains++
	return out, false
}

// DrainLines drains and re-splits the batch into classified lines.
func (r *Relay) DrainLines() []text.Line {
	batch, empty := r.Drain()
	if empty {
		return nil
	}
	return text.SplitBatch(batch)
}

// Stats returns a snapshot of the relay counters.
func (r *Relay) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		Published:    r.published,
		Drains:       r.drains,
		PendingBytes: len(r.pending),
	}
}

// Package loop provides the single-goroutine I/O context that owns a pipe
// connection. Every task posted to a Loop runs on the same goroutine, in the
// order it was posted.
package loop

import (
	"sync"
	"sync/atomic"

	"github.com/drake/pimeconsole/internal/buffer"
)

// Loop serializes tasks onto one goroutine.
// Posting never blocks on the running task and never drops.
type Loop struct {
	in  chan<- func()
	out <-chan func()

	mu     sync.RWMutex
	closed bool

	posted   atomic.Uint64
	executed atomic.Uint64
}

// New creates a loop. Tasks queue until Run is called.
func New() *Loop {
	in, out := buffer.Unbounded[func()](64, 0, nil)
	return &Loop{in: in, out: out}
}

// Post queues task for execution on the loop goroutine.
// Returns false if the loop has been closed.
func (l *Loop) Post(task func()) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return false
	}
	l.posted.Add(1)
	l.in <- task
	return true
}

// Run executes tasks until Close is called and the queue has drained.
func (l *Loop) Run() {
	for task := range l.out {
		task()
		l.executed.Add(1)
	}
}

// Close stops accepting tasks. Tasks already posted still run.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	close(l.in)
}

// Backlog returns how many posted tasks have not finished yet.
func (l *Loop) Backlog() uint64 {
	return l.posted.Load() - l.executed.Load()
}

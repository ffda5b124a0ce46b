// Package debug provides runtime monitoring and diagnostics.
package debug

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/charmbracelet/log"

	"github.com/drake/pimeconsole/console"
)

// Enabled returns true if debug mode is forced on (PIMECONSOLE_DEBUG=1).
func Enabled() bool {
	return os.Getenv("PIMECONSOLE_DEBUG") == "1"
}

// StatsSource is anything that can report console statistics.
type StatsSource interface {
	Stats() console.Stats
}

// Monitor periodically logs console statistics.
type Monitor struct {
	source   StatsSource
	interval time.Duration
	logger   *log.Logger
}

// NewMonitor creates a monitor for the given source.
// Returns nil unless enabled is set or debug mode is forced by environment.
func NewMonitor(source StatsSource, enabled bool, interval time.Duration, logger *log.Logger) *Monitor {
	if !enabled && !Enabled() {
		return nil
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Monitor{
		source:   source,
		interval: interval,
		logger:   logger.WithPrefix("monitor"),
	}
}

// Start begins the monitoring loop in a goroutine. A nil monitor does nothing.
func (m *Monitor) Start(ctx context.Context) {
	if m == nil {
		return
	}
	go m.run(ctx)
}

func (m *Monitor) run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Debug("monitor started", "interval", m.interval)

	for {
		select {
		case <-ctx.Done():
			m.logger.Debug("monitor stopped")
			return
		case <-ticker.C:
			m.logStats()
		}
	}
}

func (m *Monitor) logStats() {
	s := m.source.Stats()

	lastRead := "never"
	if !s.Network.LastReadTime.IsZero() {
		lastRead = fmt.Sprintf("%v ago", time.Since(s.Network.LastReadTime).Round(time.Second))
	}

	m.logger.Info("stats",
		"state", s.Network.State,
		"read", s.Network.BytesRead,
		"written", s.Network.BytesWritten,
		"chunks", s.Network.Chunks,
		"writes", s.Network.Writes,
		"lastRead", lastRead,
		"sendQ", fmt.Sprintf("%d/%d", s.Network.SendQueueLen, s.Network.SendQueueCap),
		"loopBacklog", s.LoopBacklog,
		"partial", s.PendingLine,
		"published", s.Relay.Published,
		"drains", s.Relay.Drains,
		"pending", s.Relay.PendingBytes,
		"goroutines", runtime.NumGoroutine(),
	)
}

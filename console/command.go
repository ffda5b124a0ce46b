package console

import (
	"strings"

	"github.com/drake/pimeconsole/event"
)

// CmdRestartBackends asks the backend to restart all of its language backends.
const CmdRestartBackends = "DEBUG_CMD:RESTART_BACKENDS\n"

// Submit hands a command to the I/O loop for writing. It does not wait for
// the write; the outcome arrives as a CommandSent or CommandFailed event.
// A missing trailing newline is added.
func (c *Console) Submit(cmd string) error {
	if !strings.HasSuffix(cmd, "\n") {
		cmd += "\n"
	}
	data := []byte(cmd)
	if c.closed.Load() || !c.loop.Post(func() { c.send(data) }) {
		return ErrClosed
	}
	return nil
}

// RestartBackends submits CmdRestartBackends.
func (c *Console) RestartBackends() error {
	return c.Submit(CmdRestartBackends)
}

// send runs on the loop.
func (c *Console) send(data []byte) {
	if err := c.client.Send(data); err != nil {
		c.logger.Warn("command not sent", "command", strings.TrimSpace(string(data)), "err", err)
		c.diagnose(MsgSendFailed, event.Event{Type: event.CommandFailed, State: c.client.State(), Err: err})
	}
}

package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/drake/pimeconsole/console"
	"github.com/drake/pimeconsole/network"
)

func newMockConsole(t *testing.T, backend *network.MockBackend) *console.Console {
	t.Helper()
	c := console.New(console.Config{
		Address: "test-pipe",
		Dial:    backend.Dial,
		Logger:  log.New(io.Discard),
	})
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSendRestart(t *testing.T) {
	backend := network.NewMockBackend()
	defer backend.Close()
	c := newMockConsole(t, backend)

	if err := sendRestart(context.Background(), c, 2*time.Second); err != nil {
		t.Fatalf("sendRestart: %v", err)
	}
	select {
	case chunk := <-backend.Received():
		if string(chunk) != console.CmdRestartBackends {
			t.Fatalf("backend saw %q", chunk)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("backend received nothing")
	}
}

func TestSendRestartConnectFailure(t *testing.T) {
	backend := network.NewMockBackend()
	backend.FailDial(errors.New("pipe busy"))
	c := newMockConsole(t, backend)

	err := sendRestart(context.Background(), c, 2*time.Second)
	if err == nil || !strings.Contains(err.Error(), console.MsgConnectFailed) {
		t.Fatalf("expected connect failure, got %v", err)
	}
	var cerr *network.ConnectError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected wrapped ConnectError, got %v", err)
	}
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("execute %v: %v", args, err)
	}
	return out.String()
}

func TestAddressCommandHonoursFlag(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	out := execute(t, "address", "--config", cfgPath, "--address", `\\.\pipe\bob\PIME\Debug`)
	if strings.TrimSpace(out) != `\\.\pipe\bob\PIME\Debug` {
		t.Fatalf("unexpected address output %q", out)
	}
}

func TestConfigCommandPrintsYAML(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("scrollback_lines: 1234\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	out := execute(t, "config", "--config", cfgPath, "--log-level", "debug")

	for _, want := range []string{"# " + cfgPath, "scrollback_lines: 1234", "level: debug", "highlight: '#FFFF00'"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

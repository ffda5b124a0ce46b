package relay

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/drake/pimeconsole/text"
)

func TestRelayCoalescesPublishes(t *testing.T) {
	r := New()
	r.Publish(text.NewLine("first"))
	r.Publish(text.NewLine("PIME_MSG|second"))
	r.PublishText("third")

	select {
	case <-r.Ready():
	default:
		t.Fatal("expected a wake-up after publish")
	}
	select {
	case <-r.Ready():
		t.Fatal("publishes between drains should collapse into one wake-up")
	default:
	}

	got, empty := r.Drain()
	if empty {
		t.Fatal("expected pending output")
	}
	want := "first\r\nPIME_MSG|second\r\nthird\r\n"
	if got != want {
		t.Fatalf("want %q got %q", want, got)
	}

	if again, empty := r.Drain(); !empty || again != "" {
		t.Fatalf("second drain should be empty, got %q", again)
	}
}

func TestRelayDrainEmptyDoesNotBlock(t *testing.T) {
	r := New()
	done := make(chan struct{})
	go func() {
		if _, empty := r.Drain(); !empty {
			t.Error("expected empty drain")
		}
		if lines := r.DrainLines(); lines != nil {
			t.Errorf("expected no lines, got %v", lines)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("drain blocked on empty relay")
	}
}

func TestRelayDrainLinesClassifies(t *testing.T) {
	r := New()
	r.Publish(text.NewLine("hello"))
	r.Publish(text.NewLine("PIME_MSG|world"))

	lines := r.DrainLines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Category != text.Normal || lines[0].Text != "hello" {
		t.Fatalf("unexpected first line %+v", lines[0])
	}
	if lines[1].Category != text.Highlighted || lines[1].Body() != "world" {
		t.Fatalf("unexpected second line %+v", lines[1])
	}

	st := r.Stats()
	if st.Published != 2 || st.Drains != 1 || st.PendingBytes != 0 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

// A single producer and a single consumer hammer the relay; every line must
// come out exactly once, whole, and in order.
func TestRelayConcurrentPublishDrain(t *testing.T) {
	r := New()
	const total = 20000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			r.Publish(text.NewLine(fmt.Sprintf("line-%06d-%s", i, strings.Repeat("x", i%17))))
		}
	}()

	var received []text.Line
	deadline := time.After(10 * time.Second)
	for len(received) < total {
		select {
		case <-r.Ready():
			received = append(received, r.DrainLines()...)
		case <-deadline:
			t.Fatalf("timed out with %d/%d lines", len(received), total)
		}
	}
	wg.Wait()
	received = append(received, r.DrainLines()...)

	if len(received) != total {
		t.Fatalf("expected %d lines, got %d", total, len(received))
	}
	for i, l := range received {
		want := fmt.Sprintf("line-%06d-%s", i, strings.Repeat("x", i%17))
		if l.Text != want {
			t.Fatalf("line %d: want %q got %q", i, want, l.Text)
		}
	}
}

package poll

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestHandleLifecycle(t *testing.T) {
	h := NewHandle()
	if h.State() != Idle {
		t.Fatalf("new handle state = %v", h.State())
	}
	if h.ID() == "" {
		t.Error("handle id is empty")
	}

	gen := h.Start()
	if !h.Current(gen) {
		t.Error("fresh generation should be current")
	}
	tk := h.Begin()
	if !h.Accept(tk) {
		t.Error("latest ticket should be accepted")
	}

	h.Stop()
	if h.State() != Stopped {
		t.Errorf("state = %v, want stopped", h.State())
	}
	if h.Accept(tk) {
		t.Error("ticket accepted after Stop")
	}
	if h.Current(gen) {
		t.Error("generation current after Stop")
	}
}

func TestHandleRejectsSuperseded(t *testing.T) {
	h := NewHandle()
	h.Start()

	older := h.Begin()
	newer := h.Begin()
	if h.Accept(older) {
		t.Error("older overlapping fetch must be rejected")
	}
	if !h.Accept(newer) {
		t.Error("newest fetch must be accepted")
	}

	h.Restart()
	if h.Accept(newer) {
		t.Error("ticket from previous generation accepted after Restart")
	}
}

func TestLoopPublishesAndSurvivesErrors(t *testing.T) {
	var calls, results, failures atomic.Int32
	done := make(chan struct{})

	l := &Loop[int]{
		Interval: 5 * time.Millisecond,
		Fetch: func(ctx context.Context) (int, error) {
			n := calls.Add(1)
			if n%2 == 1 {
				return 0, errors.New("backend unavailable")
			}
			return int(n), nil
		},
		OnResult: func(int) {
			if results.Add(1) == 2 {
				close(done)
			}
		},
		OnError: func(error) { failures.Add(1) },
	}
	l.Start(context.Background())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not keep polling after errors")
	}
	l.Stop()

	if failures.Load() == 0 {
		t.Error("errors were not published")
	}
	if l.State() != Stopped {
		t.Errorf("state = %v", l.State())
	}
}

func TestStopDiscardsInFlight(t *testing.T) {
	var published atomic.Int32
	started := make(chan struct{}, 1)
	release := make(chan struct{})

	l := &Loop[string]{
		Interval: time.Hour,
		Fetch: func(ctx context.Context) (string, error) {
			started <- struct{}{}
			select {
			case <-release:
			case <-ctx.Done():
			}
			return "late", nil
		},
		OnResult: func(string) { published.Add(1) },
		OnError:  func(error) { published.Add(1) },
	}
	l.Start(context.Background())
	<-started

	before := published.Load()
	l.Stop()
	close(release)

	if got := published.Load(); got != before {
		t.Errorf("publish count went from %d to %d after Stop", before, got)
	}
}

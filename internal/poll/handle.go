// Package poll drives periodic refreshes of live widgets and discards
// responses that arrive after their widget was stopped or re-parameterized.
package poll

import (
	"sync"

	"github.com/google/uuid"
)

// State of a handle.
type State int

const (
	Idle State = iota
	Polling
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Polling:
		return "polling"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// Ticket identifies one fetch. A result is published only when its ticket is
// still the latest of a live generation.
type Ticket struct {
	Gen uint64
	Seq uint64
}

// Handle is the lifecycle of one live widget: Idle -> Polling -> Stopped.
// Every Start or Restart opens a new generation; every fetch takes a new
// sequence number within it.
type Handle struct {
	mu    sync.Mutex
	id    string
	state State
	gen   uint64
	seq   uint64
}

// NewHandle returns an idle handle.
func NewHandle() *Handle {
	return &Handle{id: uuid.NewString()}
}

// ID is a random identifier used in logs.
func (h *Handle) ID() string {
	return h.id
}

// State returns the current state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Start moves the handle to Polling and returns the new generation.
func (h *Handle) Start() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = Polling
	h.gen++
	return h.gen
}

// Restart opens a new generation, e.g. after the widget's parameters
// changed. Results of earlier generations are rejected.
func (h *Handle) Restart() uint64 {
	return h.Start()
}

// Stop moves the handle to Stopped. Nothing it issued is accepted afterwards.
func (h *Handle) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = Stopped
	h.gen++
}

// Generation returns the current generation.
func (h *Handle) Generation() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.gen
}

// Current reports whether a tick of generation gen should still fire.
func (h *Handle) Current(gen uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state == Polling && h.gen == gen
}

// Begin issues a ticket for a fetch about to start.
func (h *Handle) Begin() Ticket {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	return Ticket{Gen: h.gen, Seq: h.seq}
}

// Accept reports whether a result carrying t may be published: the handle is
// polling, the generation is unchanged and no later fetch has been issued.
func (h *Handle) Accept(t Ticket) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state == Polling && t.Gen == h.gen && t.Seq == h.seq
}

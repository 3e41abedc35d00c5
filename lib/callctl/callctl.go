// Package callctl is a deliberately thin placeholder for call-state
// tracking. It exists only so the sample executable and lib/transport have
// something to hand a decoded PDU to; it holds no Q.931 timers, no H.245
// capability negotiation, no media/RTP bookkeeping. It knows a call's
// identifier and a coarse lifecycle label, nothing more.
package callctl

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// State names the coarse lifecycle stage of a call. There is no business
// logic attached to any transition; callers decide when to move on based
// on whatever PDU they just decoded.
type State int

const (
	StateIdle State = iota
	StateSetup
	StateAlerting
	StateConnected
	StateReleasing
	StateCleared
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSetup:
		return "setup"
	case StateAlerting:
		return "alerting"
	case StateConnected:
		return "connected"
	case StateReleasing:
		return "releasing"
	case StateCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// CallState is the minimal record an endpoint keeps per active call.
type CallState struct {
	ID    uuid.UUID
	State State
}

// NewCall creates a CallState in StateIdle with a fresh random identifier,
// suitable for pairing with H.225.0's 16-octet CallIdentifier GUID.
func NewCall() *CallState {
	return &CallState{ID: uuid.New(), State: StateIdle}
}

// NewCallWithID creates a CallState for a call identifier already known
// from an incoming PDU (e.g. h225.CallIdentifier.GUID).
func NewCallWithID(guid [16]byte) *CallState {
	return &CallState{ID: uuid.UUID(guid), State: StateIdle}
}

// Transition moves the call to next. It never fails and never validates
// that next is reachable from the current state — that judgment belongs to
// a real call-control implementation, which this one is explicitly not.
func (c *CallState) Transition(next State) {
	c.State = next
}

// Registry tracks the set of active calls an endpoint process knows about.
type Registry struct {
	mu    sync.Mutex
	calls map[uuid.UUID]*CallState
}

// NewRegistry creates an empty call registry.
func NewRegistry() *Registry {
	return &Registry{calls: make(map[uuid.UUID]*CallState)}
}

// Put inserts or replaces a call's tracked state.
func (r *Registry) Put(c *CallState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[c.ID] = c
}

// Get returns the tracked state for id, if any.
func (r *Registry) Get(id uuid.UUID) (*CallState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[id]
	return c, ok
}

// Remove drops a call from the registry, e.g. once it reaches StateCleared.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.calls, id)
}

// Len returns the number of tracked calls.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// String renders a call for log output.
func (c *CallState) String() string {
	return fmt.Sprintf("call %s [%s]", c.ID, c.State)
}

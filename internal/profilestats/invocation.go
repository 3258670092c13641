package profilestats

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle of a single Invocation.
type State int32

const (
	StatePending State = iota
	StateSettling
	StateDone
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSettling:
		return "settling"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Invocation is one aggregation run. Statistics stay empty until every
// profile has settled, then the whole map becomes visible at once.
type Invocation struct {
	ID        uuid.UUID
	startedAt time.Time

	state atomic.Int32
	done  chan struct{}

	mu         sync.RWMutex
	stats      Result
	outcomes   []Outcome
	finishedAt time.Time
}

func newInvocation(now time.Time) *Invocation {
	return &Invocation{
		ID:        uuid.New(),
		startedAt: now,
		done:      make(chan struct{}),
		stats:     Result{},
	}
}

func (inv *Invocation) State() State {
	return State(inv.state.Load())
}

// Loading reports whether the invocation has not settled yet. Once false it
// stays false.
func (inv *Invocation) Loading() bool {
	return inv.State() != StateDone
}

// Statistics returns a copy of the settled map, or an empty map while loading.
func (inv *Invocation) Statistics() Result {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.stats.Clone()
}

func (inv *Invocation) Outcomes() []Outcome {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	out := make([]Outcome, len(inv.outcomes))
	copy(out, inv.outcomes)
	return out
}

func (inv *Invocation) StartedAt() time.Time { return inv.startedAt }

// FinishedAt is zero until the invocation is done.
func (inv *Invocation) FinishedAt() time.Time {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.finishedAt
}

// Done is closed when the invocation settles.
func (inv *Invocation) Done() <-chan struct{} { return inv.done }

// Wait blocks until the invocation settles or ctx ends.
func (inv *Invocation) Wait(ctx context.Context) error {
	select {
	case <-inv.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (inv *Invocation) settling() {
	inv.state.CompareAndSwap(int32(StatePending), int32(StateSettling))
}

func (inv *Invocation) finish(stats Result, outcomes []Outcome, now time.Time) {
	inv.mu.Lock()
	inv.stats = stats
	inv.outcomes = outcomes
	inv.finishedAt = now
	inv.state.Store(int32(StateDone))
	inv.mu.Unlock()
	close(inv.done)
}

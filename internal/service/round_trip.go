package service

import (
	"context"
	"sync"
)

// Phase is where a round-trip stands
type Phase string

const (
	PhasePending  Phase = "pending"
	PhaseResolved Phase = "resolved"
	PhaseFailed   Phase = "failed"
	// PhaseDiscarded means the result arrived after the log stopped tracking it
	PhaseDiscarded Phase = "discarded"
)

// Outcome describes a settled (or still pending) round-trip
type Outcome struct {
	Phase  Phase
	TurnID string
	// Err is the failure for PhaseFailed and the discard reason for PhaseDiscarded
	Err error
}

// RoundTrip is the handle of one request/response cycle against the remote service
type RoundTrip struct {
	kind   string
	turnID string
	done   chan struct{}

	mu      sync.Mutex
	outcome Outcome
}

func newRoundTrip(kind, turnID string) *RoundTrip {
	return &RoundTrip{
		kind:    kind,
		turnID:  turnID,
		done:    make(chan struct{}),
		outcome: Outcome{Phase: PhasePending, TurnID: turnID},
	}
}

// Kind returns the round-trip kind (upload or query)
func (rt *RoundTrip) Kind() string {
	return rt.kind
}

// TurnID returns the correlation id of the pending turn; empty for uploads
func (rt *RoundTrip) TurnID() string {
	return rt.turnID
}

// Done is closed once the round-trip has settled
func (rt *RoundTrip) Done() <-chan struct{} {
	return rt.done
}

// Outcome returns the current outcome; PhasePending until Done is closed
func (rt *RoundTrip) Outcome() Outcome {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.outcome
}

// Wait blocks until the round-trip settles or ctx ends.
// A ctx error does not cancel the round-trip itself.
func (rt *RoundTrip) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-rt.done:
		return rt.Outcome(), nil
	case <-ctx.Done():
		return rt.Outcome(), ctx.Err()
	}
}

func (rt *RoundTrip) settle(o Outcome) {
	rt.mu.Lock()
	o.TurnID = rt.turnID
	rt.outcome = o
	rt.mu.Unlock()
	close(rt.done)
}

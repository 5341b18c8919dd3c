package rules

import (
	"fmt"
	"sync"
	"time"
)

// PendingAsk is one outstanding request to a player. The answer channel is
// buffered so delivery never blocks the gateway goroutine.
type PendingAsk struct {
	Request Event
	answer  chan Response
	openedAt time.Time
}

// AskTable tracks outstanding asks, at most one per player. The room
// goroutine opens asks and blocks on Await; the gateway delivers answers
// from its own goroutines, so the table carries its own lock.
type AskTable struct {
	mu      sync.Mutex
	pending map[string]*PendingAsk
	timeout time.Duration
}

// NewAskTable creates an ask table with the given answer timeout. A zero or
// negative timeout means wait forever.
func NewAskTable(timeout time.Duration) *AskTable {
	return &AskTable{
		pending: make(map[string]*PendingAsk),
		timeout: timeout,
	}
}

// Open registers an outstanding ask for a player. A second ask to the same
// player is a protocol violation.
func (at *AskTable) Open(playerID string, request Event) (*PendingAsk, error) {
	if !request.Kind.IsAsk() {
		return nil, fmt.Errorf("event kind %s is not a request", request.Kind)
	}

	at.mu.Lock()
	defer at.mu.Unlock()

	if _, exists := at.pending[playerID]; exists {
		return nil, fmt.Errorf("open %s for %s: %w", request.Kind, playerID, ErrRequestOutstanding)
	}

	ask := &PendingAsk{
		Request:  request,
		answer:   make(chan Response, 1),
		openedAt: time.Now(),
	}
	at.pending[playerID] = ask
	return ask, nil
}

// Deliver routes a client answer to the player's pending ask. Answers for
// players with nothing pending are rejected. A late duplicate for the same
// ask is dropped silently.
func (at *AskTable) Deliver(playerID string, resp Response) error {
	at.mu.Lock()
	ask, ok := at.pending[playerID]
	at.mu.Unlock()

	if !ok {
		return fmt.Errorf("answer from %s: %w", playerID, ErrNoPendingRequest)
	}

	select {
	case ask.answer <- resp:
	default:
	}
	return nil
}

// Await blocks until the player's answer arrives or the timeout elapses,
// then closes the ask. On timeout the returned response is a decline and
// timedOut is true; the caller substitutes the request's default answer.
func (at *AskTable) Await(playerID string, ask *PendingAsk) (resp Response, timedOut bool) {
	defer func() {
		at.mu.Lock()
		if at.pending[playerID] == ask {
			delete(at.pending, playerID)
		}
		at.mu.Unlock()
	}()

	if at.timeout <= 0 {
		return <-ask.answer, false
	}

	timer := time.NewTimer(at.timeout)
	defer timer.Stop()

	select {
	case r := <-ask.answer:
		return r, false
	case <-timer.C:
		return Response{FromID: playerID}, true
	}
}

// Cancel resolves a player's pending ask with a decline, if any. Used when
// a player disconnects mid-ask.
func (at *AskTable) Cancel(playerID string) {
	at.mu.Lock()
	ask, ok := at.pending[playerID]
	at.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ask.answer <- Response{FromID: playerID}:
	default:
	}
}

// Outstanding reports whether the player has a pending ask.
func (at *AskTable) Outstanding(playerID string) bool {
	at.mu.Lock()
	defer at.mu.Unlock()
	_, ok := at.pending[playerID]
	return ok
}

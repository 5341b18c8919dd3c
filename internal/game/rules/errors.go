package rules

import (
	"errors"
	"fmt"
)

// Sentinel errors for the rules layer. Illegal actions and protocol
// violations reject the offending request and leave room state untouched;
// only catalog corruption is fatal to a room.
var (
	// ErrMissingCausalContext is returned when a reactive handler runs
	// without the event it was supposed to react to. Aborts that resolution
	// chain only.
	ErrMissingCausalContext = errors.New("reactive event has no causal context")

	// ErrRequestOutstanding is returned when a second ask is issued to a
	// player who already has one pending.
	ErrRequestOutstanding = errors.New("player already has an outstanding request")

	// ErrNoPendingRequest is returned when an answer arrives for a player
	// with nothing pending.
	ErrNoPendingRequest = errors.New("no pending request for player")

	// ErrResolutionDepthExceeded caps runaway reactive chains.
	ErrResolutionDepthExceeded = errors.New("event resolution depth exceeded")

	// ErrGameOver rejects mutations after the room reached its terminal
	// state.
	ErrGameOver = errors.New("game is over")

	// ErrPlayerDead rejects actions initiated by or targeting players no
	// longer in the game.
	ErrPlayerDead = errors.New("player is dead")
)

// IllegalActionError rejects a player action that failed validation. The
// room state is unchanged when one is returned.
type IllegalActionError struct {
	PlayerID string
	Action   string
	Reason   string
}

func (e *IllegalActionError) Error() string {
	return fmt.Sprintf("illegal action %s by %s: %s", e.Action, e.PlayerID, e.Reason)
}

// NewIllegalAction builds an IllegalActionError.
func NewIllegalAction(playerID, action, reason string) *IllegalActionError {
	return &IllegalActionError{PlayerID: playerID, Action: action, Reason: reason}
}

// CatalogError reports a reference to an entity the catalog does not carry.
// This is a room-fatal condition: the journal cannot be replayed against an
// inconsistent catalog.
type CatalogError struct {
	Entity string
	ID     any
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("catalog has no %s with id %v", e.Entity, e.ID)
}

// IsFatal reports whether err should terminate the room rather than just
// the current action.
func IsFatal(err error) bool {
	var ce *CatalogError
	return errors.As(err, &ce)
}

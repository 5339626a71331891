package gameserver

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrSessionNotFound is returned for unknown or already-ended session ids.
	ErrSessionNotFound = errors.New("battle session not found")
	// ErrParticipantNotInSession is returned when the caller is not part of the addressed session.
	ErrParticipantNotInSession = errors.New("participant is not in this battle")
	// ErrAlreadyInBattle is returned when an identity that is already battling starts another battle.
	ErrAlreadyInBattle = errors.New("already in a battle")
	// ErrTargetUnavailable is returned when the requested opponent is offline or busy.
	ErrTargetUnavailable = errors.New("target is unavailable")
	// ErrRosterLoad is returned when a participant's party cannot be loaded or has no living member.
	ErrRosterLoad = errors.New("could not load roster")
	// ErrNoInvitation is returned when accepting an invitation that does not exist or has expired.
	ErrNoInvitation = errors.New("no pending invitation")
	// ErrInvalidRequest is returned for malformed battle requests.
	ErrInvalidRequest = errors.New("invalid battle request")
	// ErrShuttingDown is returned for new battles once Shutdown has begun.
	ErrShuttingDown = errors.New("battle server is shutting down")
)

// CooldownError is returned when a requester repeats a request to the same
// target inside the cooldown window.
type CooldownError struct {
	TargetID  string
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("battle request to %s on cooldown for %s", e.TargetID, e.Remaining.Round(time.Millisecond))
}

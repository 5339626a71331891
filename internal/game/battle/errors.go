package battle

import "errors"

// Validation errors are reported to the submitting participant only; the session
// carries on unaffected.
var (
	ErrInvalidAction     = errors.New("invalid action")
	ErrRunNotAllowed     = errors.New("cannot run from a trainer battle")
	ErrAlreadySubmitted  = errors.New("action already submitted this turn")
	ErrWrongPhase        = errors.New("action not accepted in the current phase")
	ErrNotParticipant    = errors.New("not a participant in this battle")
	ErrSessionEnded      = errors.New("battle session has ended")
	ErrNoLivingCombatant = errors.New("roster has no living combatant")
)

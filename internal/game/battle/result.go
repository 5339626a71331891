package battle

import "time"

// ResultKind classifies how a battle ended.
type ResultKind string

const (
	ResultKnockout   ResultKind = "knockout"
	ResultDraw       ResultKind = "draw"
	ResultForfeit    ResultKind = "forfeit"
	ResultFled       ResultKind = "fled"
	ResultDisconnect ResultKind = "disconnect"
)

// Outcome is a result as seen by one participant.
type Outcome string

const (
	OutcomeVictory    Outcome = "victory"
	OutcomeDefeat     Outcome = "defeat"
	OutcomeDraw       Outcome = "draw"
	OutcomeForfeit    Outcome = "forfeit"
	OutcomeFled       Outcome = "fled"
	OutcomeDisconnect Outcome = "disconnect"
)

// Result is how a battle ended. WinnerID and LoserID are empty for a draw and
// for a server-initiated termination.
type Result struct {
	Kind     ResultKind `json:"kind"`
	WinnerID string     `json:"winnerId,omitempty"`
	LoserID  string     `json:"loserId,omitempty"`
	Reason   string     `json:"reason,omitempty"`
}

// OutcomeFor mirrors r for the participant id.
func (r Result) OutcomeFor(id string) Outcome {
	switch r.Kind {
	case ResultDraw:
		return OutcomeDraw
	case ResultDisconnect:
		return OutcomeDisconnect
	case ResultForfeit:
		if id == r.LoserID {
			return OutcomeForfeit
		}
		return OutcomeVictory
	case ResultFled:
		return OutcomeFled
	default:
		if id == r.WinnerID {
			return OutcomeVictory
		}
		return OutcomeDefeat
	}
}

// Record is the immutable summary persisted when a battle ends.
type Record struct {
	SessionID      string                   `json:"sessionId"`
	BattleType     Type                     `json:"battleType"`
	ParticipantIDs [2]string                `json:"participantIds"`
	Turns          int                      `json:"turns"`
	Result         Result                   `json:"result"`
	Rosters        map[string][]RosterEntry `json:"rosters"`
	StartedAt      time.Time                `json:"startedAt"`
	EndedAt        time.Time                `json:"endedAt"`
}

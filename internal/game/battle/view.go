package battle

import (
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/element"
)

// Outbound message types.
const (
	MsgBattleStart       = "battle_start"
	MsgBattleAnimation   = "battle_animation"
	MsgBattleUpdate      = "battle_update"
	MsgBattleEnd         = "battle_end"
	MsgBattleError       = "battle_error"
	MsgBattleInvitation  = "battle_invitation"
	MsgBattleRequestSent = "battle_request_sent"
	MsgBattleCooldown    = "battle_cooldown"
)

// Message is the JSON envelope pushed to clients.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Notifier delivers messages to connected participants. Send must not block;
// messages for identities that are not connected are dropped.
type Notifier interface {
	Send(participantID string, msg Message)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(participantID string, msg Message)

// Send calls f.
func (f NotifierFunc) Send(participantID string, msg Message) { f(participantID, msg) }

// CombatantView is one combatant as a particular recipient may see it. Stats and
// Moves are only filled in for the recipient's own combatants.
type CombatantView struct {
	Species    string            `json:"species"`
	Name       string            `json:"name"`
	Level      int               `json:"level"`
	Types      []element.Type    `json:"types"`
	HP         int               `json:"hp"`
	MaxHP      int               `json:"maxHp"`
	Fainted    bool              `json:"fainted"`
	Conditions []string          `json:"conditions,omitempty"`
	Stats      *combat.Stats     `json:"stats,omitempty"`
	Moves      []combat.MoveSlot `json:"moves,omitempty"`
}

// SideView is one participant's side of the field.
type SideView struct {
	ParticipantID string        `json:"participantId"`
	Name          string        `json:"name"`
	ActiveIndex   int           `json:"activeIndex"`
	Active        CombatantView `json:"active"`
	// Roster is only sent for the recipient's own side.
	Roster []CombatantView `json:"roster,omitempty"`
	// Remaining counts the side's non-fainted combatants.
	Remaining int `json:"remaining"`
}

// BattleView is the mirrored state sent with battle_start and battle_update:
// Self is always the recipient.
type BattleView struct {
	SessionID  string         `json:"sessionId"`
	BattleType Type           `json:"battleType"`
	Turn       int            `json:"turn"`
	Phase      Phase          `json:"phase"`
	Weather    combat.Weather `json:"weather,omitempty"`
	Self       SideView       `json:"self"`
	Opponent   SideView       `json:"opponent"`
	Log        []string       `json:"log,omitempty"`
}

// AnimationPayload describes one executed action.
type AnimationPayload struct {
	SessionID     string               `json:"sessionId"`
	Turn          int                  `json:"turn"`
	ActorID       string               `json:"actorId"`
	Action        string               `json:"action"`
	MoveID        string               `json:"moveId,omitempty"`
	MoveName      string               `json:"moveName,omitempty"`
	Damage        int                  `json:"damage,omitempty"`
	Effectiveness float64              `json:"effectiveness,omitempty"`
	Missed        bool                 `json:"missed,omitempty"`
	Recoil        int                  `json:"recoil,omitempty"`
	StageChanges  []combat.StageChange `json:"stageChanges,omitempty"`
	Condition     string               `json:"condition,omitempty"`
	SwitchIndex   *int                 `json:"switchIndex,omitempty"`
	Messages      []string             `json:"messages"`
}

// EndPayload is the battle_end body, mirrored per recipient.
type EndPayload struct {
	SessionID string     `json:"sessionId"`
	Result    Outcome    `json:"result"`
	Kind      ResultKind `json:"kind"`
	WinnerID  string     `json:"winnerId,omitempty"`
	Turns     int        `json:"turns"`
	Message   string     `json:"message"`
}

// ErrorPayload is the battle_error body.
type ErrorPayload struct {
	SessionID string `json:"sessionId,omitempty"`
	Error     string `json:"error"`
}

// InvitationPayload is the battle_invitation body.
type InvitationPayload struct {
	FromID     string `json:"fromId"`
	FromName   string `json:"fromName"`
	BattleType Type   `json:"battleType"`
	ExpiresMs  int64  `json:"expiresMs"`
}

// RequestSentPayload is the battle_request_sent body.
type RequestSentPayload struct {
	TargetID   string `json:"targetId"`
	BattleType Type   `json:"battleType"`
}

// CooldownPayload is the battle_cooldown body.
type CooldownPayload struct {
	TargetID    string `json:"targetId"`
	RemainingMs int64  `json:"remainingMs"`
}

func combatantView(c *combat.Combatant, owner bool) CombatantView {
	v := CombatantView{
		Species:    c.SpeciesID,
		Name:       c.Name,
		Level:      c.Level,
		HP:         c.CurrentHP,
		MaxHP:      c.MaxHP(),
		Fainted:    c.Fainted(),
		Conditions: c.Conditions.IDs(),
	}
	for _, t := range c.Types {
		if t != element.None {
			v.Types = append(v.Types, t)
		}
	}
	if owner {
		stats := c.Stats
		v.Stats = &stats
		v.Moves = make([]combat.MoveSlot, len(c.Moves))
		copy(v.Moves, c.Moves)
	}
	return v
}

func sideView(p *Participant, owner bool) SideView {
	sv := SideView{ParticipantID: p.ID, Name: p.Name, ActiveIndex: p.active}
	if active := p.Active(); active != nil {
		sv.Active = combatantView(active, owner)
	}
	for _, c := range p.Roster {
		if !c.Fainted() {
			sv.Remaining++
		}
		if owner {
			sv.Roster = append(sv.Roster, combatantView(c, true))
		}
	}
	return sv
}

// EndMessage renders the human-readable summary of r for recipient.
func EndMessage(r Result, recipient string) string {
	switch r.OutcomeFor(recipient) {
	case OutcomeVictory:
		if r.Kind == ResultForfeit {
			return "Your opponent forfeited. You win!"
		}
		return "You won the battle!"
	case OutcomeDefeat:
		return "You lost the battle."
	case OutcomeDraw:
		return "The battle ended in a draw."
	case OutcomeForfeit:
		return "You forfeited the battle."
	case OutcomeFled:
		if recipient == r.LoserID {
			return "Got away safely!"
		}
		return "Your opponent fled."
	default:
		if r.Reason != "" {
			return "The battle ended: " + r.Reason + "."
		}
		return "The battle ended because a participant disconnected."
	}
}

package gameserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
)

// Inbound message types.
const (
	MsgBattleRequest = "battle_request"
	MsgBattleAccept  = "battle_accept"
	MsgBattleMove    = "battle_move"
	MsgBattleSwitch  = "battle_switch"
	MsgBattleRun     = "battle_run"
	MsgBattleForfeit = "battle_forfeit"
	MsgWildEncounter = "wild_encounter"
)

// Envelope is the inbound wire frame.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// RequestData is the battle_request body.
type RequestData struct {
	TargetID   string      `json:"targetId"`
	BattleType battle.Type `json:"battleType"`
}

// AcceptData is the battle_accept body.
type AcceptData struct {
	FromID     string      `json:"fromId"`
	BattleType battle.Type `json:"battleType"`
}

// MoveData is the battle_move body.
type MoveData struct {
	SessionID string `json:"sessionId"`
	MoveID    string `json:"moveId"`
	TargetID  string `json:"targetId"`
}

// SwitchData is the battle_switch body.
type SwitchData struct {
	SessionID    string `json:"sessionId"`
	PokemonIndex *int   `json:"pokemonIndex"`
}

// SessionData is the body of battle_run and battle_forfeit.
type SessionData struct {
	SessionID string `json:"sessionId"`
}

// WildEncounterData is the wild_encounter body.
type WildEncounterData struct {
	WildSpec battle.WildSpec `json:"wildSpec"`
}

// Dispatcher decodes inbound frames from authenticated clients and routes them
// to the Coordinator. Failures are reported to the sender only.
type Dispatcher struct {
	coord    *Coordinator
	notifier battle.Notifier
	logger   *zap.Logger
}

// NewDispatcher creates a Dispatcher.
//
// Precondition: coord, notifier and logger must be non-nil.
func NewDispatcher(coord *Coordinator, notifier battle.Notifier, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{coord: coord, notifier: notifier, logger: logger}
}

// Dispatch handles one inbound frame from the identity from.
//
// Postcondition: Returns the error that was reported to from, or nil.
func (d *Dispatcher) Dispatch(ctx context.Context, from string, frame []byte) error {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return d.report(from, "", fmt.Errorf("%w: malformed message", ErrInvalidRequest))
	}
	err := d.route(ctx, from, env)
	if err != nil {
		return d.report(from, sessionIDOf(env), err)
	}
	return nil
}

func (d *Dispatcher) route(ctx context.Context, from string, env Envelope) error {
	switch env.Type {
	case MsgBattleRequest:
		var body RequestData
		if err := decode(env, &body); err != nil {
			return err
		}
		return d.coord.HandleBattleRequest(ctx, from, body.TargetID, body.BattleType)

	case MsgBattleAccept:
		var body AcceptData
		if err := decode(env, &body); err != nil {
			return err
		}
		_, err := d.coord.HandleBattleAccept(ctx, from, body.FromID, body.BattleType)
		return err

	case MsgBattleMove:
		var body MoveData
		if err := decode(env, &body); err != nil {
			return err
		}
		if body.MoveID == "" {
			return fmt.Errorf("%w: moveId is required", ErrInvalidRequest)
		}
		a := battle.MoveAction(body.MoveID)
		a.TargetID = body.TargetID
		return d.coord.ProcessAction(ctx, body.SessionID, from, a)

	case MsgBattleSwitch:
		var body SwitchData
		if err := decode(env, &body); err != nil {
			return err
		}
		if body.PokemonIndex == nil {
			return fmt.Errorf("%w: pokemonIndex is required", ErrInvalidRequest)
		}
		return d.coord.ProcessAction(ctx, body.SessionID, from, battle.SwitchAction(*body.PokemonIndex))

	case MsgBattleRun:
		var body SessionData
		if err := decode(env, &body); err != nil {
			return err
		}
		return d.coord.ProcessAction(ctx, body.SessionID, from, battle.RunAction())

	case MsgBattleForfeit:
		var body SessionData
		if err := decode(env, &body); err != nil {
			return err
		}
		return d.coord.Forfeit(ctx, body.SessionID, from)

	case MsgWildEncounter:
		var body WildEncounterData
		if err := decode(env, &body); err != nil {
			return err
		}
		_, err := d.coord.InitiateWildBattle(ctx, from, body.WildSpec)
		return err

	default:
		return fmt.Errorf("%w: unknown message type %q", ErrInvalidRequest, env.Type)
	}
}

func decode(env Envelope, v any) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("%w: %s has no data", ErrInvalidRequest, env.Type)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidRequest, env.Type, err)
	}
	return nil
}

// sessionIDOf extracts the sessionId of session-scoped frames for error reports.
func sessionIDOf(env Envelope) string {
	var body SessionData
	if len(env.Data) == 0 || json.Unmarshal(env.Data, &body) != nil {
		return ""
	}
	return body.SessionID
}

// report sends err to from: cooldowns as battle_cooldown, everything else as battle_error.
// Roster load failures were already announced to both participants.
func (d *Dispatcher) report(from, sessionID string, err error) error {
	var cooldown *CooldownError
	switch {
	case errors.As(err, &cooldown):
		d.notifier.Send(from, battle.Message{Type: battle.MsgBattleCooldown, Data: battle.CooldownPayload{
			TargetID:    cooldown.TargetID,
			RemainingMs: cooldown.Remaining.Milliseconds(),
		}})
	case errors.Is(err, ErrRosterLoad):
	default:
		d.notifier.Send(from, battle.Message{Type: battle.MsgBattleError, Data: battle.ErrorPayload{
			SessionID: sessionID,
			Error:     err.Error(),
		}})
	}
	d.logger.Debug("rejected client message",
		zap.String("participant_id", from),
		zap.String("session_id", sessionID),
		zap.Error(err),
	)
	return err
}

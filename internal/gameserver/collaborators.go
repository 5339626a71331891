package gameserver

import (
	"context"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
)

// RosterStore loads and writes back trainers' active parties.
type RosterStore interface {
	battle.RosterLoader
	// SaveRosterState persists the final HP, PP and condition of each entry.
	SaveRosterState(ctx context.Context, trainerID string, entries []battle.RosterEntry) error
}

// RecordStore persists finished battles.
type RecordStore interface {
	SaveBattleRecord(ctx context.Context, rec battle.Record) error
}

// Presence answers whether an identity is connected and how to display it.
type Presence interface {
	IsOnline(id string) bool
	DisplayName(id string) string
}

// MovementGate toggles an identity's world movement while it is battling.
type MovementGate interface {
	SetMovementLocked(id string, locked bool)
}

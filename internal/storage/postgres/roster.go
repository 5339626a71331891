package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

// ErrRosterNotFound is returned when a trainer has no party members stored.
var ErrRosterNotFound = errors.New("roster not found")

// ErrRosterSlotNotFound is returned when saving state for a slot that does not exist.
var ErrRosterSlotNotFound = errors.New("roster slot not found")

// ErrDuplicateSlot is returned when a party lists the same slot twice.
var ErrDuplicateSlot = errors.New("duplicate roster slot")

// RosterRepository persists trainers' parties, one row per party slot.
type RosterRepository struct {
	db *pgxpool.Pool
}

// NewRosterRepository creates a RosterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewRosterRepository(db *pgxpool.Pool) *RosterRepository {
	return &RosterRepository{db: db}
}

// LoadActiveRoster returns the trainer's party ordered by slot.
//
// Precondition: trainerID must be non-empty.
// Postcondition: Returns at least one entry, or ErrRosterNotFound when the trainer has none.
func (r *RosterRepository) LoadActiveRoster(ctx context.Context, trainerID string) ([]battle.RosterEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT slot, species, nickname, level, ivs, evs, current_hp, moves, condition
		FROM party_members WHERE trainer_id = $1 ORDER BY slot ASC`,
		trainerID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying roster: %w", err)
	}
	defer rows.Close()

	entries := make([]battle.RosterEntry, 0)
	for rows.Next() {
		var (
			e                battle.RosterEntry
			ivs, evs, movesJ []byte
		)
		if err := rows.Scan(&e.Slot, &e.Species, &e.Nickname, &e.Level, &ivs, &evs, &e.CurrentHP, &movesJ, &e.Condition); err != nil {
			return nil, fmt.Errorf("scanning roster row: %w", err)
		}
		if err := decodeEntryJSON(&e, ivs, evs, movesJ); err != nil {
			return nil, fmt.Errorf("roster slot %d: %w", e.Slot, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating roster rows: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrRosterNotFound
	}
	return entries, nil
}

// SaveRosterState writes back HP, PP and persistent condition for every entry.
// Species, level, IVs and EVs are not touched. All slots are updated in one
// transaction.
//
// Precondition: each entry's Slot must already exist for trainerID.
// Postcondition: Returns nil on success, ErrRosterSlotNotFound (and no changes) if any slot is missing.
func (r *RosterRepository) SaveRosterState(ctx context.Context, trainerID string, entries []battle.RosterEntry) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		for _, e := range entries {
			moves, err := json.Marshal(movesOrEmpty(e.Moves))
			if err != nil {
				return fmt.Errorf("encoding moves: %w", err)
			}
			tag, err := tx.Exec(ctx, `
				UPDATE party_members
				SET current_hp = $3, moves = $4, condition = $5, updated_at = NOW()
				WHERE trainer_id = $1 AND slot = $2`,
				trainerID, e.Slot, e.CurrentHP, moves, e.Condition,
			)
			if err != nil {
				return fmt.Errorf("saving roster slot %d: %w", e.Slot, err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("slot %d: %w", e.Slot, ErrRosterSlotNotFound)
			}
		}
		return nil
	})
}

// ReplaceRoster deletes the trainer's party and inserts entries in its place.
//
// Precondition: entries must have distinct slots in [0, 6).
// Postcondition: The stored party equals entries, or nothing changed and a non-nil error is returned.
func (r *RosterRepository) ReplaceRoster(ctx context.Context, trainerID string, entries []battle.RosterEntry) error {
	if err := checkDistinctSlots(entries); err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM party_members WHERE trainer_id = $1`, trainerID); err != nil {
			return fmt.Errorf("clearing roster: %w", err)
		}
		for _, e := range entries {
			ivs, evs, moves, err := encodeEntryJSON(e)
			if err != nil {
				return fmt.Errorf("roster slot %d: %w", e.Slot, err)
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO party_members
					(trainer_id, slot, species, nickname, level, ivs, evs, current_hp, moves, condition)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
				trainerID, e.Slot, e.Species, e.Nickname, e.Level, ivs, evs, e.CurrentHP, moves, e.Condition,
			); err != nil {
				if isDuplicateKeyError(err) {
					return fmt.Errorf("slot %d: %w", e.Slot, ErrDuplicateSlot)
				}
				return fmt.Errorf("inserting roster slot %d: %w", e.Slot, err)
			}
		}
		return nil
	})
}

func checkDistinctSlots(entries []battle.RosterEntry) error {
	seen := make(map[int]bool, len(entries))
	for _, e := range entries {
		if seen[e.Slot] {
			return fmt.Errorf("slot %d: %w", e.Slot, ErrDuplicateSlot)
		}
		seen[e.Slot] = true
	}
	return nil
}

func movesOrEmpty(m []combat.MoveSlot) []combat.MoveSlot {
	if m == nil {
		return []combat.MoveSlot{}
	}
	return m
}

func encodeEntryJSON(e battle.RosterEntry) (ivs, evs, moves []byte, err error) {
	if ivs, err = json.Marshal(e.IVs); err != nil {
		return nil, nil, nil, fmt.Errorf("encoding ivs: %w", err)
	}
	if evs, err = json.Marshal(e.EVs); err != nil {
		return nil, nil, nil, fmt.Errorf("encoding evs: %w", err)
	}
	if moves, err = json.Marshal(movesOrEmpty(e.Moves)); err != nil {
		return nil, nil, nil, fmt.Errorf("encoding moves: %w", err)
	}
	return ivs, evs, moves, nil
}

func decodeEntryJSON(e *battle.RosterEntry, ivs, evs, moves []byte) error {
	if err := json.Unmarshal(ivs, &e.IVs); err != nil {
		return fmt.Errorf("decoding ivs: %w", err)
	}
	if err := json.Unmarshal(evs, &e.EVs); err != nil {
		return fmt.Errorf("decoding evs: %w", err)
	}
	if err := json.Unmarshal(moves, &e.Moves); err != nil {
		return fmt.Errorf("decoding moves: %w", err)
	}
	return nil
}

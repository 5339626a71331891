package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
)

// ErrRecordNotFound is returned when a battle record lookup yields no results.
var ErrRecordNotFound = errors.New("battle record not found")

// ErrRecordExists is returned when a record for the session was already saved.
var ErrRecordExists = errors.New("battle record already exists")

// BattleRecordRepository stores finished battles. The full record is kept as
// jsonb; the columns beside it exist for lookups.
type BattleRecordRepository struct {
	db *pgxpool.Pool
}

// NewBattleRecordRepository creates a BattleRecordRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewBattleRecordRepository(db *pgxpool.Pool) *BattleRecordRepository {
	return &BattleRecordRepository{db: db}
}

// SaveBattleRecord inserts rec.
//
// Precondition: rec.SessionID must be non-empty.
// Postcondition: Returns nil on success, ErrRecordExists if the session was already recorded.
func (r *BattleRecordRepository) SaveBattleRecord(ctx context.Context, rec battle.Record) error {
	if rec.SessionID == "" {
		return errors.New("battle record has no session id")
	}
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding battle record: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO battle_records
			(session_id, battle_type, participant_a, participant_b, turns,
			 result_kind, winner_id, loser_id, record, started_at, ended_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		rec.SessionID, string(rec.BattleType), rec.ParticipantIDs[0], rec.ParticipantIDs[1], rec.Turns,
		string(rec.Result.Kind), rec.Result.WinnerID, rec.Result.LoserID, doc, rec.StartedAt, rec.EndedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrRecordExists
		}
		return fmt.Errorf("inserting battle record: %w", err)
	}
	return nil
}

// GetBattleRecord retrieves the record for sessionID.
//
// Postcondition: Returns the record or ErrRecordNotFound.
func (r *BattleRecordRepository) GetBattleRecord(ctx context.Context, sessionID string) (battle.Record, error) {
	var doc []byte
	err := r.db.QueryRow(ctx, `SELECT record FROM battle_records WHERE session_id = $1`, sessionID).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return battle.Record{}, ErrRecordNotFound
		}
		return battle.Record{}, fmt.Errorf("querying battle record: %w", err)
	}
	var rec battle.Record
	if err := json.Unmarshal(doc, &rec); err != nil {
		return battle.Record{}, fmt.Errorf("decoding battle record: %w", err)
	}
	return rec, nil
}

// ListByParticipant returns up to limit records the participant took part in,
// most recently ended first.
//
// Precondition: limit must be > 0.
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *BattleRecordRepository) ListByParticipant(ctx context.Context, participantID string, limit int) ([]battle.Record, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}
	rows, err := r.db.Query(ctx, `
		SELECT record FROM battle_records
		WHERE participant_a = $1 OR participant_b = $1
		ORDER BY ended_at DESC, session_id ASC
		LIMIT $2`,
		participantID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing battle records: %w", err)
	}
	defer rows.Close()

	recs := make([]battle.Record, 0)
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scanning battle record row: %w", err)
		}
		var rec battle.Record
		if err := json.Unmarshal(doc, &rec); err != nil {
			return nil, fmt.Errorf("decoding battle record: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

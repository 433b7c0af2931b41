// internal/infra/database/postgres_run_repository.go
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"alliance_quest_bot/internal/domain/aq"
)

// Custom errors specific to the run repository
var ErrRunNotFound = fmt.Errorf("alliance quest run not found")

// PostgresRunRepository persists one JSON run document per tracked
// channel in the aq_runs table. The document is opaque to every reader
// except this process; alliance_id is duplicated into its own column so
// operators can join against alliances without unpacking JSON.
type PostgresRunRepository struct {
	db *sql.DB
}

func NewPostgresRunRepository(db *sql.DB) *PostgresRunRepository {
	return &PostgresRunRepository{db: db}
}

func (r *PostgresRunRepository) Get(ctx context.Context, channelID string) (*aq.Run, error) {
	query := `SELECT document FROM aq_runs WHERE channel_id = $1`
	var raw []byte
	err := r.db.QueryRowContext(ctx, query, channelID).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("error getting run for channel %s: %w", channelID, err)
	}

	run := aq.Run{}
	if err := json.Unmarshal(raw, &run); err != nil {
		return nil, fmt.Errorf("error decoding run document for channel %s: %w", channelID, err)
	}
	return &run, nil
}

func (r *PostgresRunRepository) Save(ctx context.Context, run *aq.Run) error {
	// Revision is bumped on every save so lost updates are at least
	// detectable in the stored document if handling is ever parallelized.
	run.Revision++

	raw, err := json.Marshal(run)
	if err != nil {
		run.Revision--
		return fmt.Errorf("error encoding run document for channel %s: %w", run.ChannelID, err)
	}

	query := `INSERT INTO aq_runs (channel_id, alliance_id, document)
               VALUES ($1, $2, $3)
               ON CONFLICT (channel_id)
               DO UPDATE SET alliance_id = EXCLUDED.alliance_id, document = EXCLUDED.document, updated_at = NOW()`
	if _, err := r.db.ExecContext(ctx, query, run.ChannelID, run.AllianceID, raw); err != nil {
		return fmt.Errorf("error saving run for channel %s: %w", run.ChannelID, err)
	}
	return nil
}

func (r *PostgresRunRepository) Clear(ctx context.Context, channelID string) error {
	// Idempotent: deleting an untracked channel is not an error.
	query := `DELETE FROM aq_runs WHERE channel_id = $1`
	if _, err := r.db.ExecContext(ctx, query, channelID); err != nil {
		return fmt.Errorf("error clearing run for channel %s: %w", channelID, err)
	}
	return nil
}

func (r *PostgresRunRepository) ListAll(ctx context.Context) ([]*aq.Run, error) {
	query := `SELECT document FROM aq_runs ORDER BY channel_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*aq.Run, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("error scanning run row: %w", err)
		}
		run := aq.Run{}
		if err := json.Unmarshal(raw, &run); err != nil {
			return nil, fmt.Errorf("error decoding run document: %w", err)
		}
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}
	return runs, nil
}

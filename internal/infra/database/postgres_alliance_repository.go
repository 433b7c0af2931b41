package database

import (
	"context"
	"database/sql"
	"fmt" // For error wrapping
	"strings"

	"alliance_quest_bot/internal/domain/alliance"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Custom errors
var ErrAllianceNotFound = fmt.Errorf("alliance not found")
var ErrDuplicateGuildID = fmt.Errorf("alliance for this guild already exists")
var ErrReminderSettingsNotFound = fmt.Errorf("alliance reminder settings not found")

type PostgresAllianceRepository struct {
	db *sql.DB
}

func NewPostgresAllianceRepository(db *sql.DB) *PostgresAllianceRepository {
	return &PostgresAllianceRepository{db: db}
}

func (r *PostgresAllianceRepository) Create(ctx context.Context, a *alliance.Alliance) error {
	query := `INSERT INTO alliances (guild_id, name, timezone)
               VALUES ($1, $2, $3)
               RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, a.GuildID, a.Name, a.Timezone).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		// Basic check for unique violation on guild_id.
		if strings.Contains(err.Error(), "unique constraint") && strings.Contains(err.Error(), "alliances_guild_id_key") {
			return ErrDuplicateGuildID
		}
		return fmt.Errorf("error creating alliance: %w", err)
	}
	return nil
}

func (r *PostgresAllianceRepository) GetByID(ctx context.Context, id int64) (*alliance.Alliance, error) {
	query := `SELECT id, guild_id, name, timezone, created_at, updated_at
               FROM alliances WHERE id = $1`
	a := &alliance.Alliance{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.GuildID, &a.Name, &a.Timezone, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAllianceNotFound
		}
		return nil, fmt.Errorf("error getting alliance by ID: %w", err)
	}
	return a, nil
}

func (r *PostgresAllianceRepository) GetByGuildID(ctx context.Context, guildID string) (*alliance.Alliance, error) {
	query := `SELECT id, guild_id, name, timezone, created_at, updated_at
               FROM alliances WHERE guild_id = $1`
	a := &alliance.Alliance{}
	err := r.db.QueryRowContext(ctx, query, guildID).Scan(&a.ID, &a.GuildID, &a.Name, &a.Timezone, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAllianceNotFound
		}
		return nil, fmt.Errorf("error getting alliance by guild ID: %w", err)
	}
	return a, nil
}

func (r *PostgresAllianceRepository) GetReminderSettings(ctx context.Context, allianceID int64) (*alliance.ReminderSettings, error) {
	query := `SELECT alliance_id, section1_enabled, section1_time, section2_enabled, section2_time, final_enabled, final_time, updated_at
               FROM alliance_reminder_settings WHERE alliance_id = $1`
	s := &alliance.ReminderSettings{}
	err := r.db.QueryRowContext(ctx, query, allianceID).Scan(
		&s.AllianceID, &s.Section1Enabled, &s.Section1Time,
		&s.Section2Enabled, &s.Section2Time, &s.FinalEnabled, &s.FinalTime,
		&s.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrReminderSettingsNotFound
		}
		return nil, fmt.Errorf("error getting reminder settings: %w", err)
	}
	return s, nil
}

func (r *PostgresAllianceRepository) UpsertReminderSettings(ctx context.Context, s *alliance.ReminderSettings) error {
	query := `INSERT INTO alliance_reminder_settings
                 (alliance_id, section1_enabled, section1_time, section2_enabled, section2_time, final_enabled, final_time)
               VALUES ($1, $2, $3, $4, $5, $6, $7)
               ON CONFLICT (alliance_id)
               DO UPDATE SET section1_enabled = EXCLUDED.section1_enabled, section1_time = EXCLUDED.section1_time,
                             section2_enabled = EXCLUDED.section2_enabled, section2_time = EXCLUDED.section2_time,
                             final_enabled = EXCLUDED.final_enabled, final_time = EXCLUDED.final_time,
                             updated_at = NOW()
               RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		s.AllianceID, s.Section1Enabled, s.Section1Time,
		s.Section2Enabled, s.Section2Time, s.FinalEnabled, s.FinalTime,
	).Scan(&s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error upserting reminder settings: %w", err)
	}
	return nil
}

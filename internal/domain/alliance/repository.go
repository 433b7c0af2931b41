package alliance

import (
	"context"
)

// Repository defines the operations for persisting and retrieving
// Alliance entities and their reminder settings.
type Repository interface {
	Create(ctx context.Context, a *Alliance) error
	GetByID(ctx context.Context, id int64) (*Alliance, error)
	GetByGuildID(ctx context.Context, guildID string) (*Alliance, error)
	GetReminderSettings(ctx context.Context, allianceID int64) (*ReminderSettings, error)
	UpsertReminderSettings(ctx context.Context, s *ReminderSettings) error
}

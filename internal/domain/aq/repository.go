// internal/domain/aq/repository.go
package aq

import "context"

// Repository defines the persistence contract for tracked runs: one
// document per channel, last-writer-wins. Mutations follow a load, modify
// in memory, save-whole-document discipline; there are no partial updates.
type Repository interface {
	// Get returns the run tracked in the given channel.
	Get(ctx context.Context, channelID string) (*Run, error)
	// Save upserts the run document keyed by its channel id.
	Save(ctx context.Context, run *Run) error
	// Clear removes the run for a channel. Clearing an untracked channel
	// is not an error.
	Clear(ctx context.Context, channelID string) error
	// ListAll returns every persisted run. Used by the reminder poll.
	ListAll(ctx context.Context) ([]*Run, error)
}

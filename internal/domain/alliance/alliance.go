package alliance

import (
	"time"
)

// Alliance represents one registered alliance, bound to a Discord guild.
type Alliance struct {
	ID        int64
	GuildID   string
	Name      string
	Timezone  string // IANA zone name, e.g. "America/New_York"
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReminderSettings holds the alliance's per-tier reminder configuration.
// Times are wall-clock "HH:MM" in the alliance's timezone. The scheduler
// consumes these read-only; they are owned by alliance configuration.
type ReminderSettings struct {
	AllianceID      int64
	Section1Enabled bool
	Section1Time    string
	Section2Enabled bool
	Section2Time    string
	FinalEnabled    bool
	FinalTime       string
	UpdatedAt       time.Time
}

package app

import (
	"context"
	"fmt"
	"time"

	"alliance_quest_bot/internal/domain/alliance"
	idb "alliance_quest_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
)

// Custom application-level errors for alliance configuration
var ErrAllianceAlreadyRegistered = fmt.Errorf("an alliance is already registered for this guild")
var ErrInvalidTimezone = fmt.Errorf("timezone is not a valid IANA zone name")
var ErrInvalidReminderTime = fmt.Errorf("reminder time must be in HH:MM format")

// ReminderConfig carries one tier's configuration update.
type ReminderConfig struct {
	Tier    string // "section1", "section2" or "final"
	Enabled bool
	Time    string // "HH:MM"; ignored when disabling
}

// AllianceService handles alliance registration and reminder-settings
// configuration, the alliance state read by the quest tracker's
// preconditions and the reminder scheduler.
type AllianceService struct {
	allianceRepo alliance.Repository
	logger       *logrus.Entry
}

func NewAllianceService(ar alliance.Repository, logger *logrus.Entry) *AllianceService {
	return &AllianceService{allianceRepo: ar, logger: logger}
}

// Register creates the alliance record for a guild with all reminder tiers
// disabled. A guild can hold one alliance.
func (s *AllianceService) Register(ctx context.Context, guildID, name, timezone string) (*alliance.Alliance, error) {
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, ErrInvalidTimezone
	}

	_, err := s.allianceRepo.GetByGuildID(ctx, guildID)
	if err == nil {
		return nil, ErrAllianceAlreadyRegistered
	}
	if err != idb.ErrAllianceNotFound {
		return nil, fmt.Errorf("failed to check existing alliance: %w", err)
	}

	al := &alliance.Alliance{
		GuildID:  guildID,
		Name:     name,
		Timezone: timezone,
	}
	if err := s.allianceRepo.Create(ctx, al); err != nil {
		if err == idb.ErrDuplicateGuildID {
			return nil, ErrAllianceAlreadyRegistered
		}
		return nil, fmt.Errorf("failed to create alliance: %w", err)
	}

	// Seed disabled settings so the scheduler finds a row straight away.
	settings := &alliance.ReminderSettings{
		AllianceID:   al.ID,
		Section1Time: "12:00",
		Section2Time: "18:00",
		FinalTime:    "22:00",
	}
	if err := s.allianceRepo.UpsertReminderSettings(ctx, settings); err != nil {
		s.logger.WithError(err).WithField("alliance_id", al.ID).Warn("Could not seed default reminder settings")
	}

	s.logger.WithFields(logrus.Fields{"guild_id": guildID, "alliance_id": al.ID}).Info("Alliance registered")
	return al, nil
}

// ConfigureReminder updates one reminder tier for the guild's alliance.
func (s *AllianceService) ConfigureReminder(ctx context.Context, guildID string, cfg ReminderConfig) (*alliance.ReminderSettings, error) {
	al, err := s.allianceRepo.GetByGuildID(ctx, guildID)
	if err != nil {
		if err == idb.ErrAllianceNotFound {
			return nil, ErrAllianceNotRegistered
		}
		return nil, fmt.Errorf("failed to resolve alliance for guild %s: %w", guildID, err)
	}

	settings, err := s.allianceRepo.GetReminderSettings(ctx, al.ID)
	if err != nil {
		if err != idb.ErrReminderSettingsNotFound {
			return nil, fmt.Errorf("failed to load reminder settings: %w", err)
		}
		settings = &alliance.ReminderSettings{
			AllianceID:   al.ID,
			Section1Time: "12:00",
			Section2Time: "18:00",
			FinalTime:    "22:00",
		}
	}

	fireAt := cfg.Time
	if cfg.Enabled {
		if _, err := time.Parse("15:04", fireAt); err != nil {
			return nil, ErrInvalidReminderTime
		}
	}

	switch cfg.Tier {
	case "section1":
		settings.Section1Enabled = cfg.Enabled
		if cfg.Enabled {
			settings.Section1Time = fireAt
		}
	case "section2":
		settings.Section2Enabled = cfg.Enabled
		if cfg.Enabled {
			settings.Section2Time = fireAt
		}
	case "final":
		settings.FinalEnabled = cfg.Enabled
		if cfg.Enabled {
			settings.FinalTime = fireAt
		}
	default:
		return nil, fmt.Errorf("unknown reminder tier: %s", cfg.Tier)
	}

	if err := s.allianceRepo.UpsertReminderSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save reminder settings: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"guild_id": guildID,
		"tier":     cfg.Tier,
		"enabled":  cfg.Enabled,
	}).Info("Reminder settings updated")
	return settings, nil
}

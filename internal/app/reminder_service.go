// internal/app/reminder_service.go
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"alliance_quest_bot/internal/domain/alliance"
	"alliance_quest_bot/internal/domain/aq"
	domainDiscord "alliance_quest_bot/internal/domain/discord"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// ReminderProcessor is the operation the scheduler drives. Implemented by
// ReminderService; kept as an interface so the scheduler and tests don't
// depend on the concrete service.
type ReminderProcessor interface {
	// ProcessDueReminders scans all persisted runs and fires every
	// reminder tier whose configured fire time has been reached.
	ProcessDueReminders(ctx context.Context, now time.Time) error
}

// ReminderService fires the per-run one-shot reminders. Each tier mentions
// the participants still incomplete in that tier's sections; an empty
// mention list suppresses the message but still consumes the tier.
type ReminderService struct {
	runRepo      aq.Repository
	allianceRepo alliance.Repository
	chat         domainDiscord.Client
	logger       *logrus.Entry
}

func NewReminderService(
	rr aq.Repository,
	ar alliance.Repository,
	chat domainDiscord.Client,
	logger *logrus.Entry,
) *ReminderService {
	return &ReminderService{
		runRepo:      rr,
		allianceRepo: ar,
		chat:         chat,
		logger:       logger,
	}
}

// ProcessDueReminders is one scheduler tick. Runs whose alliance or
// settings cannot be resolved are skipped silently for this tick: nobody
// is waiting on a background poll, and the next tick retries. A fired (or
// suppressed-empty) tier is persisted immediately so no later tick can
// double-fire it.
func (s *ReminderService) ProcessDueReminders(ctx context.Context, now time.Time) error {
	runs, err := s.runRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list runs for reminder poll: %w", err)
	}

	for _, run := range runs {
		if run.Lifecycle != aq.StateActive {
			continue
		}
		log := s.logger.WithField("channel_id", run.ChannelID)

		al, err := s.allianceRepo.GetByID(ctx, run.AllianceID)
		if err != nil {
			log.WithError(err).Debug("Skipping run: alliance not resolvable")
			continue
		}
		settings, err := s.allianceRepo.GetReminderSettings(ctx, run.AllianceID)
		if err != nil {
			log.WithError(err).Debug("Skipping run: reminder settings not resolvable")
			continue
		}
		loc, err := time.LoadLocation(al.Timezone)
		if err != nil {
			log.WithError(err).Warn("Skipping run: alliance timezone is invalid")
			continue
		}

		for _, tier := range aq.ReminderTiers() {
			enabled, fireAt := tierSetting(settings, tier)
			if !enabled || run.ReminderSent(tier) {
				continue
			}

			due, err := fireTimeReached(now, loc, fireAt)
			if err != nil {
				log.WithError(err).WithField("tier", tier).Warn("Invalid reminder time in settings")
				continue
			}
			if !due {
				continue
			}

			slackers := run.Slackers(tier)
			if len(slackers) > 0 {
				msg := &discordgo.MessageSend{Content: reminderMessage(tier, slackers)}
				target := run.ChannelID
				if run.UpdateThreadID != "" {
					target = run.UpdateThreadID
				}
				if _, err := s.chat.PostMessage(target, msg); err != nil {
					// Leave the flag unset so the next tick retries the send.
					log.WithError(err).WithField("tier", tier).Error("Failed to send reminder")
					continue
				}
			}

			run.MarkReminderSent(tier)
			if err := s.runRepo.Save(ctx, run); err != nil {
				log.WithError(err).WithField("tier", tier).Error("Failed to persist reminder flag")
				break
			}
			log.WithFields(logrus.Fields{"tier": tier, "slackers": len(slackers)}).Info("Reminder tier processed")
		}
	}
	return nil
}

func tierSetting(settings *alliance.ReminderSettings, tier aq.ReminderTier) (bool, string) {
	switch tier {
	case aq.TierSection1:
		return settings.Section1Enabled, settings.Section1Time
	case aq.TierSection2:
		return settings.Section2Enabled, settings.Section2Time
	case aq.TierFinal:
		return settings.FinalEnabled, settings.FinalTime
	default:
		return false, ""
	}
}

// fireTimeReached reports whether the tick's wall-clock time has reached
// today's configured "HH:MM" fire time in the alliance's zone.
func fireTimeReached(now time.Time, loc *time.Location, fireAt string) (bool, error) {
	parsed, err := time.Parse("15:04", fireAt)
	if err != nil {
		return false, fmt.Errorf("invalid reminder time %q: %w", fireAt, err)
	}
	local := now.In(loc)
	fire := time.Date(local.Year(), local.Month(), local.Day(), parsed.Hour(), parsed.Minute(), 0, 0, loc)
	return !local.Before(fire), nil
}

func reminderMessage(tier aq.ReminderTier, slackers []string) string {
	mentions := make([]string, len(slackers))
	for i, id := range slackers {
		mentions[i] = fmt.Sprintf("<@%s>", id)
	}
	joined := strings.Join(mentions, " ")

	switch tier {
	case aq.TierSection1:
		return fmt.Sprintf("Section 1 check-in: %s — please finish your section 1 paths!", joined)
	case aq.TierSection2:
		return fmt.Sprintf("Section 2 check-in: %s — sections 1 and 2 need to be wrapped up!", joined)
	default:
		return fmt.Sprintf("Final call: %s — the quest closes soon, clear your remaining paths!", joined)
	}
}

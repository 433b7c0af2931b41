// internal/app/quest_service.go
package app

import (
	"context"
	"fmt"
	"time"

	"alliance_quest_bot/internal/domain/alliance"
	"alliance_quest_bot/internal/domain/aq"
	domainDiscord "alliance_quest_bot/internal/domain/discord"
	idb "alliance_quest_bot/internal/infra/database" // Alias for DB sentinel errors

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// Custom application-level errors for the quest tracker
var ErrAllianceNotRegistered = fmt.Errorf("no alliance is registered for this guild")
var ErrRunAlreadyActive = fmt.Errorf("an alliance quest run is already active in this channel")
var ErrNoActiveRun = fmt.Errorf("no alliance quest run is active in this channel")
var ErrNotParticipant = fmt.Errorf("user is not a tracked participant of this run")
var ErrRoleHasNoMembers = fmt.Errorf("participant role has no members")
var ErrInvalidSection = fmt.Errorf("section number must be 1 or 2")

// StartParams carries the inputs of a start operation.
type StartParams struct {
	GuildID      string
	ChannelID    string
	Day          int
	RoleID       string
	CreateThread bool
}

// QuestService owns the lifecycle of tracked alliance quest runs: start,
// player progress toggles, officer clear announcements and ending.
type QuestService struct {
	runRepo      aq.Repository
	allianceRepo alliance.Repository
	chat         domainDiscord.Client
	renderer     domainDiscord.BoardRenderer
	logger       *logrus.Entry
}

func NewQuestService(
	rr aq.Repository,
	ar alliance.Repository,
	chat domainDiscord.Client,
	renderer domainDiscord.BoardRenderer,
	logger *logrus.Entry,
) *QuestService {
	return &QuestService{
		runRepo:      rr,
		allianceRepo: ar,
		chat:         chat,
		renderer:     renderer,
		logger:       logger,
	}
}

// StartRun creates a new tracked run in the given channel: the participant
// roster is snapshotted from the role's current membership, the status
// board is posted, and the run is persisted as ACTIVE. At most one active
// run may exist per channel; a second start is rejected without touching
// the existing run or posting anything.
func (s *QuestService) StartRun(ctx context.Context, p StartParams) (*aq.Run, error) {
	log := s.logger.WithFields(logrus.Fields{"channel_id": p.ChannelID, "day": p.Day})

	al, err := s.allianceRepo.GetByGuildID(ctx, p.GuildID)
	if err != nil {
		if err == idb.ErrAllianceNotFound {
			return nil, ErrAllianceNotRegistered
		}
		return nil, fmt.Errorf("failed to resolve alliance for guild %s: %w", p.GuildID, err)
	}

	_, err = s.runRepo.Get(ctx, p.ChannelID)
	if err == nil {
		return nil, ErrRunAlreadyActive
	}
	if err != idb.ErrRunNotFound {
		return nil, fmt.Errorf("failed to check for existing run: %w", err)
	}

	members, err := s.chat.ResolveRoleMembers(p.GuildID, p.RoleID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve members of role %s: %w", p.RoleID, err)
	}
	if len(members) == 0 {
		return nil, ErrRoleHasNoMembers
	}

	run := aq.NewRun(p.ChannelID, al.ID, p.RoleID, p.Day, members, time.Now())

	boardID, err := s.chat.PostMessage(p.ChannelID, s.renderer.LiveBoard(run))
	if err != nil {
		return nil, fmt.Errorf("failed to post status board: %w", err)
	}
	run.AnnouncementMessageID = boardID

	if p.CreateThread {
		threadID, err := s.chat.CreateThread(p.ChannelID, boardID, fmt.Sprintf("AQ Day %d Updates", p.Day))
		if err != nil {
			// Thread creation is best effort: a permission failure degrades
			// to a warning in the channel instead of failing the start.
			log.WithError(err).Warn("Could not create companion thread")
			warn := &discordgo.MessageSend{Content: "Couldn't create an update thread (missing permission?). Progress updates will be posted in this channel."}
			if _, warnErr := s.chat.PostMessage(p.ChannelID, warn); warnErr != nil {
				log.WithError(warnErr).Warn("Could not post thread warning")
			}
		} else {
			run.UpdateThreadID = threadID
		}
	}

	if err := s.runRepo.Save(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to persist new run: %w", err)
	}

	log.WithField("participants", len(members)).Info("Alliance quest run started")
	return run, nil
}

// ToggleProgress flips the acting user's done flag for a section and
// re-renders the board in place. Only users in the creation-time role
// snapshot can toggle; the operation never posts a new message.
func (s *QuestService) ToggleProgress(ctx context.Context, channelID, userID string, section aq.SectionKey) (*aq.Run, error) {
	run, err := s.getActiveRun(ctx, channelID)
	if err != nil {
		return nil, err
	}

	done, err := run.ToggleProgress(section, userID)
	if err != nil {
		if err == aq.ErrNotTracked {
			return nil, ErrNotParticipant
		}
		return nil, err
	}

	if err := s.runRepo.Save(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to persist progress toggle: %w", err)
	}

	if err := s.chat.EditMessage(channelID, run.AnnouncementMessageID, s.renderer.LiveBoard(run)); err != nil {
		return nil, fmt.Errorf("failed to update status board: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"channel_id": channelID,
		"user_id":    userID,
		"section":    section,
		"done":       done,
	}).Debug("Participant progress toggled")
	return run, nil
}

// ClearSection announces that section 1 or 2 was defeated and advances the
// board's status label to the next section. Player-level completion
// tracking is independent of clear announcements; sectionProgress is not
// touched here.
func (s *QuestService) ClearSection(ctx context.Context, channelID string, section int, defeated string) error {
	if section != 1 && section != 2 {
		return ErrInvalidSection
	}

	run, err := s.getActiveRun(ctx, channelID)
	if err != nil {
		return err
	}

	announcement := &discordgo.MessageSend{
		Content: fmt.Sprintf("**%s** has been defeated! Section %d is now open.", defeated, section+1),
	}
	if _, err := s.chat.PostMessage(s.announceTarget(run), announcement); err != nil {
		return fmt.Errorf("failed to post section clear announcement: %w", err)
	}

	run.MapStatusLabel = fmt.Sprintf("Section %d in Progress", section+1)
	if err := s.runRepo.Save(ctx, run); err != nil {
		return fmt.Errorf("failed to persist section clear: %w", err)
	}

	if err := s.chat.EditMessage(channelID, run.AnnouncementMessageID, s.renderer.LiveBoard(run)); err != nil {
		return fmt.Errorf("failed to update status board: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"channel_id": channelID, "section": section}).Info("Section cleared")
	return nil
}

// ClearMap handles the final boss going down: the run transitions to
// COMPLETED, a celebration pinging the participant role is posted, the
// companion thread (if any) is locked, and the run record is deleted so a
// new run can be started in the channel. The completed board is rendered
// from the in-memory run; no terminal state is persisted.
func (s *QuestService) ClearMap(ctx context.Context, channelID string, defeated string) error {
	run, err := s.getActiveRun(ctx, channelID)
	if err != nil {
		return err
	}

	run.Lifecycle = aq.StateCompleted
	run.MapStatusLabel = "Map 100% Complete"

	celebration := &discordgo.MessageSend{
		Content: fmt.Sprintf("**%s** is down — the map is 100%% clear! Great work <@&%s>!", defeated, run.ParticipantRoleID),
	}
	if _, err := s.chat.PostMessage(s.announceTarget(run), celebration); err != nil {
		return fmt.Errorf("failed to post completion announcement: %w", err)
	}

	s.finishRun(ctx, run, s.renderer.CompletedBoard(run))
	s.logger.WithField("channel_id", channelID).Info("Alliance quest map completed")
	return nil
}

// EndRun retires a run on an officer's explicit end action. The board is
// replaced with a manual-end notice without interactive controls, the
// companion thread is locked, and the run record is deleted.
func (s *QuestService) EndRun(ctx context.Context, channelID string) error {
	run, err := s.getActiveRun(ctx, channelID)
	if err != nil {
		return err
	}

	run.Lifecycle = aq.StateEndedByOfficer
	s.finishRun(ctx, run, s.renderer.ManualEndBoard(run))
	s.logger.WithField("channel_id", channelID).Info("Alliance quest run ended by officer")
	return nil
}

func (s *QuestService) getActiveRun(ctx context.Context, channelID string) (*aq.Run, error) {
	run, err := s.runRepo.Get(ctx, channelID)
	if err != nil {
		if err == idb.ErrRunNotFound {
			return nil, ErrNoActiveRun
		}
		return nil, fmt.Errorf("failed to load run for channel %s: %w", channelID, err)
	}
	return run, nil
}

// announceTarget returns where officer announcements and reminders land:
// the companion thread when one exists, otherwise the board's channel.
func (s *QuestService) announceTarget(run *aq.Run) string {
	if run.UpdateThreadID != "" {
		return run.UpdateThreadID
	}
	return run.ChannelID
}

// finishRun applies the shared tail of every terminal transition: edit the
// board in place, lock the companion thread, delete the run record. The
// record is deleted even when the board edit fails; the run is then marked
// ENDED_ABNORMALLY in memory for the log.
func (s *QuestService) finishRun(ctx context.Context, run *aq.Run, board *discordgo.MessageSend) {
	log := s.logger.WithField("channel_id", run.ChannelID)

	if err := s.chat.EditMessage(run.ChannelID, run.AnnouncementMessageID, board); err != nil {
		run.Lifecycle = aq.StateEndedAbnormally
		log.WithError(err).Error("Could not update status board for terminal transition")
	}

	if run.UpdateThreadID != "" {
		if err := s.chat.LockThread(run.UpdateThreadID); err != nil {
			log.WithError(err).Warn("Could not lock companion thread")
		}
	}

	if err := s.runRepo.Clear(ctx, run.ChannelID); err != nil {
		log.WithError(err).Error("Could not delete run record")
	}
}

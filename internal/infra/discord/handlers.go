// internal/infra/discord/handlers.go
package discord

import (
	"context"
	"fmt"
	"strings"

	"alliance_quest_bot/internal/app"
	"alliance_quest_bot/internal/domain/aq"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// officerPermissions gates the officer subcommands (start, end, clear,
// register, reminders). Player toggles are open to every tracked
// participant.
const officerPermissions = discordgo.PermissionManageMessages

// InteractionHandler dispatches slash commands and board button clicks to
// the application services.
type InteractionHandler struct {
	quests          *app.QuestService
	alliances       *app.AllianceService
	defaultTimezone string // Used when /aq register omits the timezone option
	logger          *logrus.Entry
}

func NewInteractionHandler(quests *app.QuestService, alliances *app.AllianceService, defaultTimezone string, logger *logrus.Entry) *InteractionHandler {
	return &InteractionHandler{quests: quests, alliances: alliances, defaultTimezone: defaultTimezone, logger: logger}
}

// Handle is registered on the session for InteractionCreate events.
func (h *InteractionHandler) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		if data.Name != "aq" || len(data.Options) == 0 {
			return
		}
		h.handleSubcommand(s, i, data.Options[0])
	case discordgo.InteractionMessageComponent:
		customID := i.MessageComponentData().CustomID
		if strings.HasPrefix(customID, ToggleCustomIDPrefix) {
			h.handleToggle(s, i, strings.TrimPrefix(customID, ToggleCustomIDPrefix))
		}
	}
}

func (h *InteractionHandler) handleSubcommand(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	ctx := context.Background()
	log := h.logger.WithFields(logrus.Fields{
		"subcommand": sub.Name,
		"channel_id": i.ChannelID,
		"sender_id":  senderID(i),
	})
	log.Info("Command received")

	if !isOfficer(i) {
		log.Warn("Unauthorized access attempt")
		h.reply(s, i, "You need the Manage Messages permission to run AQ commands.")
		return
	}

	opts := optionMap(sub.Options)

	switch sub.Name {
	case "start":
		createThread := false
		if opt, ok := opts["thread"]; ok {
			createThread = opt.BoolValue()
		}
		run, err := h.quests.StartRun(ctx, app.StartParams{
			GuildID:      i.GuildID,
			ChannelID:    i.ChannelID,
			Day:          int(opts["day"].IntValue()),
			RoleID:       opts["role"].RoleValue(nil, "").ID,
			CreateThread: createThread,
		})
		if err != nil {
			h.replyError(s, i, log, err)
			return
		}
		h.reply(s, i, fmt.Sprintf("Tracking started for day %d with %d participants.", run.Day, len(run.SectionProgress[aq.Section1])))

	case "end":
		if err := h.quests.EndRun(ctx, i.ChannelID); err != nil {
			h.replyError(s, i, log, err)
			return
		}
		h.reply(s, i, "Run ended. The board has been closed.")

	case "clear":
		section := int(opts["section"].IntValue())
		defeated := opts["defeated"].StringValue()
		var err error
		if section == 3 {
			err = h.quests.ClearMap(ctx, i.ChannelID, defeated)
		} else {
			err = h.quests.ClearSection(ctx, i.ChannelID, section, defeated)
		}
		if err != nil {
			h.replyError(s, i, log, err)
			return
		}
		h.reply(s, i, "Clear announced.")

	case "register":
		timezone := h.defaultTimezone
		if opt, ok := opts["timezone"]; ok {
			timezone = opt.StringValue()
		}
		al, err := h.alliances.Register(ctx, i.GuildID, opts["name"].StringValue(), timezone)
		if err != nil {
			h.replyError(s, i, log, err)
			return
		}
		h.reply(s, i, fmt.Sprintf("Alliance **%s** registered (timezone %s). Configure reminders with `/aq reminders`.", al.Name, al.Timezone))

	case "reminders":
		cfg := app.ReminderConfig{
			Tier:    opts["tier"].StringValue(),
			Enabled: opts["enabled"].BoolValue(),
		}
		if opt, ok := opts["time"]; ok {
			cfg.Time = opt.StringValue()
		}
		if _, err := h.alliances.ConfigureReminder(ctx, i.GuildID, cfg); err != nil {
			h.replyError(s, i, log, err)
			return
		}
		state := "disabled"
		if cfg.Enabled {
			state = "enabled at " + cfg.Time
		}
		h.reply(s, i, fmt.Sprintf("Reminder tier `%s` %s.", cfg.Tier, state))
	}
}

func (h *InteractionHandler) handleToggle(s *discordgo.Session, i *discordgo.InteractionCreate, section string) {
	ctx := context.Background()
	log := h.logger.WithFields(logrus.Fields{
		"component":  "toggle",
		"section":    section,
		"channel_id": i.ChannelID,
		"sender_id":  senderID(i),
	})

	_, err := h.quests.ToggleProgress(ctx, i.ChannelID, senderID(i), aq.SectionKey(section))
	if err != nil {
		h.replyError(s, i, log, err)
		return
	}

	// The service already edited the board; just acknowledge the click.
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err != nil {
		log.WithError(err).Warn("Could not acknowledge toggle interaction")
	}
}

// replyError maps application errors to user-facing rejections; anything
// unexpected gets a generic reply and an error log.
func (h *InteractionHandler) replyError(s *discordgo.Session, i *discordgo.InteractionCreate, log *logrus.Entry, err error) {
	var msg string
	switch err {
	case app.ErrAllianceNotRegistered:
		msg = "No alliance is registered for this server. Run `/aq register` first."
	case app.ErrAllianceAlreadyRegistered:
		msg = "An alliance is already registered for this server."
	case app.ErrRunAlreadyActive:
		msg = "An AQ run is already being tracked in this channel. End it before starting a new one."
	case app.ErrNoActiveRun:
		msg = "No AQ run is being tracked in this channel."
	case app.ErrNotParticipant:
		msg = "You are not on this run's roster, so you can't toggle progress."
	case app.ErrRoleHasNoMembers:
		msg = "That role has no members to track."
	case app.ErrInvalidSection:
		msg = "Only sections 1 and 2 can be cleared this way; use section 3 for a map clear."
	case app.ErrInvalidTimezone:
		msg = "That timezone isn't a valid IANA zone name (e.g. `Europe/London`)."
	case app.ErrInvalidReminderTime:
		msg = "Reminder times must look like `19:30`."
	default:
		log.WithError(err).Error("Command failed")
		msg = "Something went wrong while processing that. Please try again."
	}
	h.reply(s, i, msg)
}

// reply sends an ephemeral interaction response.
func (h *InteractionHandler) reply(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		h.logger.WithError(err).Warn("Could not send interaction response")
	}
}

func senderID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func isOfficer(i *discordgo.InteractionCreate) bool {
	return i.Member != nil && i.Member.Permissions&officerPermissions != 0
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

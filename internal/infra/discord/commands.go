package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

var minDay = 1.0

// Command definitions
var commands = []*discordgo.ApplicationCommand{
	{
		Name:        "aq",
		Description: "Alliance Quest tracker",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "start",
				Description: "Start tracking an AQ run in this channel",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "day",
						Description: "Quest day number",
						Required:    true,
						MinValue:    &minDay,
					},
					{
						Type:        discordgo.ApplicationCommandOptionRole,
						Name:        "role",
						Description: "Role whose members form the battlegroup roster",
						Required:    true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionBoolean,
						Name:        "thread",
						Description: "Create a companion thread for progress chatter",
						Required:    false,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "end",
				Description: "End the run tracked in this channel",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "clear",
				Description: "Announce a section or map clear",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "section",
						Description: "Section that was cleared (3 = map complete)",
						Required:    true,
						Choices: []*discordgo.ApplicationCommandOptionChoice{
							{Name: "Section 1", Value: 1},
							{Name: "Section 2", Value: 2},
							{Name: "Section 3 (map clear)", Value: 3},
						},
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "defeated",
						Description: "What was defeated (e.g. 'Sentinel miniboss')",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "register",
				Description: "Register this guild's alliance",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "name",
						Description: "Alliance name",
						Required:    true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "timezone",
						Description: "IANA timezone, e.g. America/New_York (defaults to the bot's configured zone)",
						Required:    false,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "reminders",
				Description: "Configure a reminder tier",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "tier",
						Description: "Which reminder tier to configure",
						Required:    true,
						Choices: []*discordgo.ApplicationCommandOptionChoice{
							{Name: "Section 1", Value: "section1"},
							{Name: "Section 2", Value: "section2"},
							{Name: "Final", Value: "final"},
						},
					},
					{
						Type:        discordgo.ApplicationCommandOptionBoolean,
						Name:        "enabled",
						Description: "Enable or disable this tier",
						Required:    true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "time",
						Description: "Fire time as HH:MM in the alliance timezone",
						Required:    false,
					},
				},
			},
		},
	},
}

// RegisterCommands registers the defined slash commands. An empty guildID
// registers them globally.
func RegisterCommands(s *discordgo.Session, guildID string) ([]*discordgo.ApplicationCommand, error) {
	registeredCommands := make([]*discordgo.ApplicationCommand, len(commands))

	for i, cmd := range commands {
		registered, err := s.ApplicationCommandCreate(s.State.User.ID, guildID, cmd)
		if err != nil {
			return nil, fmt.Errorf("error creating command '%s': %w", cmd.Name, err)
		}
		registeredCommands[i] = registered
	}

	return registeredCommands, nil
}

// RemoveCommands deletes previously registered commands on shutdown.
func RemoveCommands(s *discordgo.Session, guildID string, registered []*discordgo.ApplicationCommand, logger *logrus.Entry) {
	for _, cmd := range registered {
		if err := s.ApplicationCommandDelete(s.State.User.ID, guildID, cmd.ID); err != nil {
			logger.WithError(err).WithField("command", cmd.Name).Error("Could not remove command")
		}
	}
}

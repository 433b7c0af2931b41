// internal/infra/discord/client.go
package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

const memberPageSize = 1000

// SessionAdapter implements the domain chat client interface on top of a
// live discordgo session.
type SessionAdapter struct {
	session *discordgo.Session
}

func NewSessionAdapter(s *discordgo.Session) *SessionAdapter {
	return &SessionAdapter{session: s}
}

// PostMessage posts to a channel or thread and returns the new message id.
func (a *SessionAdapter) PostMessage(channelID string, msg *discordgo.MessageSend) (string, error) {
	m, err := a.session.ChannelMessageSendComplex(channelID, msg)
	if err != nil {
		return "", fmt.Errorf("send message to channel %s: %w", channelID, err)
	}
	return m.ID, nil
}

// EditMessage replaces a message's content, embeds and components in place.
func (a *SessionAdapter) EditMessage(channelID, messageID string, msg *discordgo.MessageSend) error {
	edit := &discordgo.MessageEdit{
		Channel:    channelID,
		ID:         messageID,
		Content:    &msg.Content,
		Embeds:     &msg.Embeds,
		Components: &msg.Components,
	}
	if _, err := a.session.ChannelMessageEditComplex(edit); err != nil {
		return fmt.Errorf("edit message %s in channel %s: %w", messageID, channelID, err)
	}
	return nil
}

// CreateThread starts a public thread off the given message.
func (a *SessionAdapter) CreateThread(channelID, messageID, name string) (string, error) {
	thread, err := a.session.MessageThreadStartComplex(channelID, messageID, &discordgo.ThreadStart{
		Name:                name,
		AutoArchiveDuration: 1440, // minutes; one day, matching the quest length
	})
	if err != nil {
		return "", fmt.Errorf("create thread on message %s: %w", messageID, err)
	}
	return thread.ID, nil
}

// LockThread locks a thread so only moderators can post further replies.
func (a *SessionAdapter) LockThread(threadID string) error {
	locked := true
	if _, err := a.session.ChannelEdit(threadID, &discordgo.ChannelEdit{Locked: &locked}); err != nil {
		return fmt.Errorf("lock thread %s: %w", threadID, err)
	}
	return nil
}

// ResolveRoleMembers pages through the guild member list and returns the
// ids of everyone currently holding the role.
func (a *SessionAdapter) ResolveRoleMembers(guildID, roleID string) ([]string, error) {
	var memberIDs []string
	after := ""
	for {
		members, err := a.session.GuildMembers(guildID, after, memberPageSize)
		if err != nil {
			return nil, fmt.Errorf("list members of guild %s: %w", guildID, err)
		}
		for _, m := range members {
			for _, r := range m.Roles {
				if r == roleID {
					memberIDs = append(memberIDs, m.User.ID)
					break
				}
			}
		}
		if len(members) < memberPageSize {
			break
		}
		after = members[len(members)-1].User.ID
	}
	return memberIDs, nil
}

package discord

import "github.com/bwmarrin/discordgo"

// Client defines the chat delivery surface the tracker depends on. It
// decouples the application logic from the concrete bot library; the
// production implementation wraps a discordgo session.
type Client interface {
	// PostMessage posts to a channel or thread and returns the message id.
	PostMessage(channelID string, msg *discordgo.MessageSend) (string, error)
	// EditMessage replaces an existing message's content, embeds and
	// components in place.
	EditMessage(channelID, messageID string, msg *discordgo.MessageSend) error
	// CreateThread starts a thread off an existing message. Permission
	// failures are returned to the caller, which may degrade gracefully.
	CreateThread(channelID, messageID, name string) (string, error)
	// LockThread locks a companion thread so no further replies land in it.
	LockThread(threadID string) error
	// ResolveRoleMembers returns the user ids currently holding a role.
	// Used only when a run is started; membership is a snapshot.
	ResolveRoleMembers(guildID, roleID string) ([]string, error)
}

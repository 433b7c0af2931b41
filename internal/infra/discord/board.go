// internal/infra/discord/board.go
package discord

import (
	"fmt"
	"sort"
	"strings"

	"alliance_quest_bot/internal/domain/aq"

	"github.com/bwmarrin/discordgo"
)

const (
	colorActive    = 0x2ecc71 // green
	colorCompleted = 0xf1c40f // gold
	colorEnded     = 0x95a5a6 // grey
)

// Button custom ids for the player progress toggles. The interaction
// handler parses the section key back off this prefix.
const ToggleCustomIDPrefix = "aq_toggle_"

// EmbedBoardRenderer renders the live status board and its terminal
// variants as a single embed. Participant lines use mention markup so
// Discord resolves display names client-side.
type EmbedBoardRenderer struct{}

func NewEmbedBoardRenderer() *EmbedBoardRenderer {
	return &EmbedBoardRenderer{}
}

func (r *EmbedBoardRenderer) LiveBoard(run *aq.Run) *discordgo.MessageSend {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Alliance Quest — Day %d", run.Day),
		Description: fmt.Sprintf("**%s**\nEnds <t:%d:R>", run.MapStatusLabel, run.ScheduledEndAt.Unix()),
		Color:       colorActive,
		Fields:      sectionFields(run),
	}

	return &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{toggleRow()},
	}
}

func (r *EmbedBoardRenderer) ManualEndBoard(run *aq.Run) *discordgo.MessageSend {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Alliance Quest — Day %d", run.Day),
		Description: "This run was ended by an officer. Progress tracking is closed.",
		Color:       colorEnded,
		Fields:      sectionFields(run),
	}
	// No components: a retired board carries no interactive controls.
	return &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}
}

func (r *EmbedBoardRenderer) CompletedBoard(run *aq.Run) *discordgo.MessageSend {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Alliance Quest — Day %d", run.Day),
		Description: fmt.Sprintf("**%s** — well done!", run.MapStatusLabel),
		Color:       colorCompleted,
		Fields:      sectionFields(run),
	}
	return &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}
}

func sectionFields(run *aq.Run) []*discordgo.MessageEmbedField {
	fields := make([]*discordgo.MessageEmbedField, 0, len(aq.Sections()))
	for i, key := range aq.Sections() {
		participants := run.SectionProgress[key]

		ids := make([]string, 0, len(participants))
		for id := range participants {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		done := 0
		lines := make([]string, 0, len(ids))
		for _, id := range ids {
			mark := "⬜"
			if participants[id].Done {
				mark = "✅"
				done++
			}
			lines = append(lines, fmt.Sprintf("%s <@%s>", mark, id))
		}

		value := strings.Join(lines, "\n")
		if value == "" {
			value = "—"
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   fmt.Sprintf("Section %d (%d/%d)", i+1, done, len(ids)),
			Value:  value,
			Inline: true,
		})
	}
	return fields
}

func toggleRow() discordgo.ActionsRow {
	buttons := make([]discordgo.MessageComponent, 0, len(aq.Sections()))
	for i, key := range aq.Sections() {
		buttons = append(buttons, discordgo.Button{
			Label:    fmt.Sprintf("Section %d done", i+1),
			Style:    discordgo.SecondaryButton,
			CustomID: ToggleCustomIDPrefix + string(key),
		})
	}
	return discordgo.ActionsRow{Components: buttons}
}

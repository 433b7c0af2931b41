package discord

import (
	"github.com/bwmarrin/discordgo"

	"alliance_quest_bot/internal/domain/aq"
)

// BoardRenderer produces the status board message for a run. The board is
// rendered on every state-changing transition that affects it (start,
// toggle, section clear, map clear) but never on reminder fires.
type BoardRenderer interface {
	// LiveBoard renders the interactive board for an ACTIVE run.
	LiveBoard(run *aq.Run) *discordgo.MessageSend
	// ManualEndBoard renders the static notice left when an officer ends
	// a run early. It carries no interactive controls.
	ManualEndBoard(run *aq.Run) *discordgo.MessageSend
	// CompletedBoard renders the final board for a fully cleared map.
	CompletedBoard(run *aq.Run) *discordgo.MessageSend
}

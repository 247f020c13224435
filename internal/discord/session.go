package discord

import (
	"github.com/bwmarrin/discordgo"
)

// RespondEphemeral sends a short reply only the interacting user sees.
func RespondEphemeral(session *discordgo.Session, interaction *discordgo.Interaction, content string) error {
	return session.InteractionRespond(interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// AcknowledgeUpdate acknowledges a component click without posting anything;
// the message itself is edited out of band.
func AcknowledgeUpdate(session *discordgo.Session, interaction *discordgo.Interaction) error {
	return session.InteractionRespond(interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
}

// RespondModal opens a modal in response to a component click.
func RespondModal(session *discordgo.Session, interaction *discordgo.Interaction, data *discordgo.InteractionResponseData) error {
	return session.InteractionRespond(interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: data,
	})
}

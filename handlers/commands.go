package handlers

import (
	"log"

	"discord-vanish/utils"

	"github.com/bwmarrin/discordgo"
)

// CommandDispatcher is the central handler for all application command
// interactions. It performs permission checks and then dispatches the
// interaction to the appropriate handler.
func CommandDispatcher(s *discordgo.Session, i *discordgo.InteractionCreate) {
	auth, err := utils.NewAuth()
	if err != nil {
		log.Printf("Failed to create auth instance: %v", err)
		return
	}

	commandPermissions := map[string]string{
		"vanish":  "guest", // mutating subcommands are checked in HandleVanish
		"topword": "guest",
		"ping":    "guest",
	}

	commandName := i.ApplicationCommandData().Name
	requiredLevel, ok := commandPermissions[commandName]

	if ok {
		if !auth.CheckPermission(s, i, requiredLevel) {
			respondEphemeral(s, i, "🚫 You don't have permission to use this command.")
			return
		}
	}

	switch commandName {
	case "vanish":
		HandleVanish(s, i, auth)
	case "topword":
		HandleTopword(s, i)
	case "ping":
		HandlePing(s, i)
	default:
		respondEphemeral(s, i, "🚫 Internal error: unknown command.")
	}
}

// respondEphemeral sends an immediate ephemeral response to an interaction.
func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// respond sends an immediate visible response to an interaction.
func respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	})
}

// followup sends a follow-up message after the initial response.
func followup(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
	})
	if err != nil {
		log.Printf("Failed to send follow-up message: %v", err)
	}
}

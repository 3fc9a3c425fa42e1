package handlers

import (
	"errors"
	"fmt"
	"log"

	"discord-vanish/utils"
	"discord-vanish/vanish"

	"github.com/bwmarrin/discordgo"
)

// HandleVanish handles the /vanish command group. The status subcommand is
// open to everyone; start, cancel and resume require admin.
func HandleVanish(s *discordgo.Session, i *discordgo.InteractionCreate, auth *utils.Auth) {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		respondEphemeral(s, i, "🚫 Missing subcommand.")
		return
	}
	sub := data.Options[0]

	switch sub.Name {
	case "start", "cancel", "resume":
		if !auth.CheckPermission(s, i, "admin") {
			respondEphemeral(s, i, "🚫 You don't have permission to manage vanish jobs.")
			return
		}
	}

	switch sub.Name {
	case "start":
		handleVanishStart(s, i, sub)
	case "status":
		handleVanishStatus(s, i)
	case "cancel":
		handleVanishCancel(s, i)
	case "resume":
		handleVanishResume(s, i)
	default:
		respondEphemeral(s, i, "🚫 Unknown subcommand.")
	}
}

// handleVanishStart kicks off a new vanish job for this channel.
func handleVanishStart(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	if len(sub.Options) == 0 {
		respondEphemeral(s, i, "🚫 Missing user option.")
		return
	}
	user := sub.Options[0].UserValue(s)
	if user == nil {
		respondEphemeral(s, i, "🚫 Could not resolve the target user.")
		return
	}
	displayName := user.GlobalName
	if displayName == "" {
		displayName = user.Username
	}

	respond(s, i, fmt.Sprintf("🔍 Counting messages from **%s**...", displayName))

	// Estimation hits the search API, so do the actual start off the
	// interaction path and report via a follow-up.
	go func() {
		snap, err := engine.Start(i.GuildID, i.ChannelID, vanish.Target{
			UserID:   user.ID,
			UserName: displayName,
		})
		switch {
		case errors.Is(err, vanish.ErrAlreadyRunning):
			followup(s, i, "❌ A vanish job is already running in this channel.\nUse `/vanish status` or `/vanish cancel`.")
		case errors.Is(err, vanish.ErrNoMatches):
			followup(s, i, fmt.Sprintf("❌ No messages found from **%s**.", displayName))
		case err != nil:
			log.Printf("Vanish start error: %v", err)
			followup(s, i, fmt.Sprintf("❌ Error: %v", err))
		default:
			utils.Info("vanish", "start", fmt.Sprintf("channel %s, target %s (~%d messages)", i.ChannelID, displayName, snap.TotalEstimated))
			followup(s, i, fmt.Sprintf(
				"🗑️ **Starting vanish of %s**\nFound: ~%d messages\nEstimated time: %s\n\nUse `/vanish status` or `/vanish cancel`",
				displayName, snap.TotalEstimated, snap.ETA))
		}
	}()
}

// handleVanishStatus renders the current job's progress into an embed.
func handleVanishStatus(s *discordgo.Session, i *discordgo.InteractionCreate) {
	snap, err := engine.Status(i.ChannelID)
	if errors.Is(err, vanish.ErrNotFound) {
		respondEphemeral(s, i, "❌ No active vanish in this channel.")
		return
	}

	color := 0x00ff00 // green: paused
	statusText := "Paused ⏸️"
	if snap.Running {
		color = 0xffa500 // orange: running
		statusText = "Running ⏳"
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🗑️ Vanish: %s", snap.TargetUserName),
		Color: color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Deleted", Value: fmt.Sprintf("%d", snap.DeletedCount), Inline: true},
			{Name: "Failed", Value: fmt.Sprintf("%d", snap.FailedCount), Inline: true},
			{Name: "Estimated Total", Value: fmt.Sprintf("%d", snap.TotalEstimated), Inline: true},
			{Name: "Progress", Value: fmt.Sprintf("%.1f%%", snap.ProgressPercent), Inline: true},
			{Name: "Chunks Done", Value: fmt.Sprintf("%d", snap.ChunksCompleted), Inline: true},
			{Name: "Current Chunk", Value: fmt.Sprintf("%d/%d", snap.ChunkIndex, snap.ChunkLength), Inline: true},
			{Name: "ETA", Value: snap.ETA, Inline: true},
			{Name: "Status", Value: statusText, Inline: true},
		},
	}

	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

// handleVanishCancel requests cancellation of the current job.
func handleVanishCancel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := engine.Cancel(i.ChannelID); errors.Is(err, vanish.ErrNotFound) {
		respondEphemeral(s, i, "❌ No active vanish in this channel.")
		return
	}
	utils.Info("vanish", "cancel", fmt.Sprintf("channel %s", i.ChannelID))
	respond(s, i, "⚠️ Cancelling vanish...")
}

// handleVanishResume restarts a paused job where it left off.
func handleVanishResume(s *discordgo.Session, i *discordgo.InteractionCreate) {
	snap, err := engine.Resume(i.ChannelID)
	switch {
	case errors.Is(err, vanish.ErrNotFound):
		respondEphemeral(s, i, "❌ No saved vanish to resume in this channel.")
	case errors.Is(err, vanish.ErrAlreadyRunning):
		respondEphemeral(s, i, "❌ Vanish is already running.")
	default:
		utils.Info("vanish", "resume", fmt.Sprintf("channel %s at %d/%d of chunk %d", i.ChannelID, snap.ChunkIndex, snap.ChunkLength, snap.ChunksCompleted))
		respond(s, i, fmt.Sprintf("▶️ Resuming vanish of **%s**...", snap.TargetUserName))
	}
}

// HandlePing handles the logic for the /ping command.
func HandlePing(s *discordgo.Session, i *discordgo.InteractionCreate) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Pong!",
		},
	})
}

package handlers

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// topwordMaxMessages bounds how many matches a single /topword scan reads.
const topwordMaxMessages = 1000

// HandleTopword handles the /topword command: a paginated search counting
// which authors said a word the most.
func HandleTopword(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		respondEphemeral(s, i, "🚫 Missing word option.")
		return
	}
	word := data.Options[0].StringValue()

	respond(s, i, fmt.Sprintf("🔍 Searching for top users saying `%s`... This may take a moment.", word))

	go func() {
		result := fetcher.TopAuthors(i.GuildID, word, topwordMaxMessages, 10)

		if result.TotalResults == 0 {
			followup(s, i, fmt.Sprintf("No one has said `%s` yet (or no results found).", word))
			return
		}

		embed := &discordgo.MessageEmbed{
			Title:       fmt.Sprintf("🏆 Top Users saying '%s'", word),
			Description: fmt.Sprintf("Total messages found: %d\nAnalyzed: %d messages", result.TotalResults, result.Analyzed),
			Color:       0xffd700,
		}
		for rank, author := range result.Authors {
			name := author.AuthorName
			if name == "" {
				name = fmt.Sprintf("User %s", author.AuthorID)
			}
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:  fmt.Sprintf("#%d %s", rank+1, name),
				Value: fmt.Sprintf("%d times", author.Count),
			})
		}
		if result.Analyzed < result.TotalResults {
			embed.Footer = &discordgo.MessageEmbedFooter{
				Text: fmt.Sprintf("Note: only the most recent %d occurrences were analyzed.", result.Analyzed),
			}
		}

		if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
			Embeds: []*discordgo.MessageEmbed{embed},
		}); err != nil {
			followup(s, i, fmt.Sprintf("❌ Failed to send results: %v", err))
		}
	}()
}

package handlers

import (
	"log"

	"discord-vanish/bot"
	"discord-vanish/search"
	"discord-vanish/vanish"

	"github.com/bwmarrin/discordgo"
)

var (
	engine  *vanish.Engine
	fetcher *search.Fetcher
)

// Register wires all event handlers to the bot.
func Register(b *bot.Bot) {
	engine = b.Engine
	fetcher = b.Fetcher

	b.Session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type == discordgo.InteractionApplicationCommand {
			CommandDispatcher(s, i)
		}
	})

	// Log when the bot is connected.
	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Printf("Logged in as: %v#%v", s.State.User.Username, s.State.User.Discriminator)
	})
}

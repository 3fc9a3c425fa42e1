package command

import "github.com/bwmarrin/discordgo"

// VanishCommand defines the structure for the /vanish command group.
type VanishCommand struct{}

// Definition returns the application command definition.
func (c *VanishCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "vanish",
		Description: "Bulk delete a user's messages in this channel",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "start",
				Description: "Start deleting all messages from a user in this channel",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionUser,
						Name:        "user",
						Description: "The user whose messages should be deleted",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "status",
				Description: "Check the progress of the current vanish job",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "cancel",
				Description: "Cancel the current vanish job",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "resume",
				Description: "Resume a paused or interrupted vanish job",
			},
		},
	}
}

// TopwordCommand defines the structure for the /topword command.
type TopwordCommand struct{}

// Definition returns the application command definition.
func (c *TopwordCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "topword",
		Description: "Find the top users who have said a specific word",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "word",
				Description: "The word to search for",
				Required:    true,
			},
		},
	}
}

// PingCommand defines the structure for the /ping command.
type PingCommand struct{}

// Definition returns the application command definition.
func (c *PingCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "ping",
		Description: "Responds with Pong!",
	}
}

package discord

import "github.com/bwmarrin/discordgo"

const (
	cmdVerify = "verify"
	cmdCheck  = "check"
	cmdReset  = "reset"
	cmdInfo   = "info"
	cmdInit   = "init"
)

// Commands are the guild slash commands the bot registers on startup.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        cmdVerify,
			Description: "Verify your account",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "username",
				Description: "The name of your Habbo",
				Required:    true,
			}},
		},
		{
			Name:        cmdCheck,
			Description: "Check the verification of a user",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "Select the user to check",
				Required:    true,
			}},
		},
		{
			Name:        cmdReset,
			Description: "Delete all your data from our database and remove all roles",
		},
		{
			Name:        cmdInfo,
			Description: "Get informations about a Habbo",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "username",
				Description: "The name of the Habbo",
				Required:    true,
			}},
		},
		{
			Name:        cmdInit,
			Description: "Initialize this bot",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionRole,
				Name:        "role",
				Description: "Select or create a role",
				Required:    true,
			}},
		},
	}
}

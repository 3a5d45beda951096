package discord

import "github.com/bwmarrin/discordgo"

var adminPerm int64 = discordgo.PermissionAdministrator

// commandDefinitions returns the guild slash commands the bot registers on
// startup.
func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:                     "ticket",
			Description:              "Post the ticket topic-selection prompt in a channel",
			DefaultMemberPermissions: &adminPerm,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "channel",
					Description: "Text channel to post the prompt in",
					Required:    true,
				},
			},
		},
		{
			Name:                     "setup",
			Description:              "Seed the stock ticket categories and the support role",
			DefaultMemberPermissions: &adminPerm,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "exchange_category",
					Description: "Category for Exchange tickets",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "staff_category",
					Description: "Category for Staff Apply tickets",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "winners_category",
					Description: "Category for Winners tickets",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "other_category",
					Description: "Category for Other tickets",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionRole,
					Name:        "support_role",
					Description: "Role granted access to all tickets",
					Required:    true,
				},
			},
		},
		{
			Name:                     "addcategory",
			Description:              "Add a ticket category",
			DefaultMemberPermissions: &adminPerm,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "name",
					Description: "Short identifier (lowercase letters, digits, underscores)",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "label",
					Description: "Display name",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "description",
					Description: "Short description shown in the menu",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "emoji",
					Description: "Emoji shown in the menu",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "category_channel",
					Description: "Category to create ticket channels under",
					Required:    true,
				},
			},
		},
		{
			Name:                     "deletecategory",
			Description:              "Delete a ticket category",
			DefaultMemberPermissions: &adminPerm,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "name",
					Description: "Identifier of the category to delete",
					Required:    true,
				},
			},
		},
	}
}

func optionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, opt := range opts {
		out[opt.Name] = opt
	}
	return out
}

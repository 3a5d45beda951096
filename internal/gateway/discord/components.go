package discord

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/registry"
)

const (
	colorNeutral = 0x2B2D31
	colorClosed  = 0xFF0000
)

func componentEmoji(emoji string) *discordgo.ComponentEmoji {
	if emoji == "" {
		return nil
	}
	return &discordgo.ComponentEmoji{Name: emoji}
}

// promptMessage builds the topic-selection prompt posted by /ticket.
func promptMessage(entries []registry.MenuEntry) *discordgo.MessageSend {
	options := make([]discordgo.SelectMenuOption, 0, len(entries))
	for _, entry := range entries {
		options = append(options, discordgo.SelectMenuOption{
			Label:       entry.Category.Label,
			Value:       entry.Key,
			Description: entry.Category.Description,
			Emoji:       componentEmoji(entry.Category.Emoji),
		})
	}

	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{
			{
				Title:       "🎫 Support Tickets",
				Description: "Select a topic below to open a ticket.",
				Color:       colorNeutral,
			},
		},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.SelectMenu{
						MenuType:    discordgo.StringSelectMenu,
						CustomID:    TopicSelectID,
						Placeholder: "Select a ticket topic",
						Options:     options,
					},
				},
			},
		},
	}
}

// welcomeMessage builds the first message in a freshly provisioned ticket
// channel, carrying the close control.
func welcomeMessage(ticket domain.Ticket, supportRoleID string) *discordgo.MessageSend {
	content := fmt.Sprintf("<@%s> welcome to your ticket!", ticket.UserID)
	if supportRoleID != "" {
		content += fmt.Sprintf(" <@&%s>", supportRoleID)
	}

	closeAction := ComponentAction{Kind: ActionClose, UserID: ticket.UserID, TicketID: ticket.ID}
	return &discordgo.MessageSend{
		Content: content,
		Embeds: []*discordgo.MessageEmbed{
			{
				Title:       fmt.Sprintf("%s Ticket", ticket.Topic),
				Description: fmt.Sprintf("<@%s>, the support team will be with you shortly.\n\nPlease describe your issue in full.", ticket.UserID),
				Color:       colorNeutral,
				Fields: []*discordgo.MessageEmbedField{
					{Name: "Topic", Value: ticket.Topic, Inline: true},
					{Name: "Created by", Value: fmt.Sprintf("<@%s>", ticket.UserID), Inline: true},
					{Name: "Ticket ID", Value: ticket.ID, Inline: true},
				},
				Timestamp: ticket.CreatedAt.Format(time.RFC3339),
			},
		},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Close Ticket",
						Style:    discordgo.DangerButton,
						CustomID: closeAction.CustomID(),
						Emoji:    componentEmoji("🔒"),
					},
				},
			},
		},
	}
}

// closedControlsRow is the replacement for the welcome message's controls
// after closing: a disabled closed indicator plus the delete control.
func closedControlsRow(ticket domain.Ticket) []discordgo.MessageComponent {
	closedAction := ComponentAction{Kind: ActionClosedIndicator, UserID: ticket.UserID, TicketID: ticket.ID}
	deleteAction := ComponentAction{Kind: ActionDelete, UserID: ticket.UserID, TicketID: ticket.ID}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Ticket Closed",
					Style:    discordgo.SecondaryButton,
					CustomID: closedAction.CustomID(),
					Emoji:    componentEmoji("🔒"),
					Disabled: true,
				},
				discordgo.Button{
					Label:    "Delete Ticket",
					Style:    discordgo.DangerButton,
					CustomID: deleteAction.CustomID(),
					Emoji:    componentEmoji("🗑️"),
				},
			},
		},
	}
}

// closureNotice builds the in-channel closure embed with a delete control.
func closureNotice(ticket domain.Ticket, closedBy domain.Actor) *discordgo.MessageSend {
	deleteAction := ComponentAction{Kind: ActionDelete, UserID: ticket.UserID, TicketID: ticket.ID}
	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{
			{
				Title:       "Ticket Closed",
				Description: "This ticket has been closed and archived.",
				Color:       colorClosed,
				Fields: []*discordgo.MessageEmbedField{
					{Name: "Closed by", Value: fmt.Sprintf("<@%s>", closedBy.ID), Inline: true},
					{Name: "Created by", Value: fmt.Sprintf("<@%s>", ticket.UserID), Inline: true},
				},
				Timestamp: time.Now().Format(time.RFC3339),
			},
		},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Delete Ticket",
						Style:    discordgo.DangerButton,
						CustomID: deleteAction.CustomID(),
						Emoji:    componentEmoji("🗑️"),
					},
				},
			},
		},
	}
}

// confirmPromptData builds the ephemeral confirm/cancel prompt shown before
// a ticket is deleted.
func confirmPromptData(ticket domain.Ticket) *discordgo.InteractionResponseData {
	confirmAction := ComponentAction{Kind: ActionConfirmDelete, UserID: ticket.UserID, TicketID: ticket.ID}
	cancelAction := ComponentAction{Kind: ActionCancelDelete, UserID: ticket.UserID, TicketID: ticket.ID}
	return &discordgo.InteractionResponseData{
		Flags: discordgo.MessageFlagsEphemeral,
		Embeds: []*discordgo.MessageEmbed{
			{
				Title:       "Confirm Ticket Deletion",
				Description: "Are you sure you want to delete this ticket? This cannot be undone.",
				Color:       colorClosed,
			},
		},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Yes, delete it",
						Style:    discordgo.DangerButton,
						CustomID: confirmAction.CustomID(),
						Emoji:    componentEmoji("✅"),
					},
					discordgo.Button{
						Label:    "Cancel",
						Style:    discordgo.SecondaryButton,
						CustomID: cancelAction.CustomID(),
						Emoji:    componentEmoji("❌"),
					},
				},
			},
		},
	}
}

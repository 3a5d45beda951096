package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/service"
)

const memberAccess = discordgo.PermissionViewChannel |
	discordgo.PermissionSendMessages |
	discordgo.PermissionReadMessageHistory

// Surface implements service.Surface over a discordgo session.
type Surface struct {
	session *discordgo.Session
	guildID string
	logger  *zap.Logger
}

// NewSurface constructs the surface for one guild.
func NewSurface(session *discordgo.Session, guildID string, logger *zap.Logger) *Surface {
	return &Surface{session: session, guildID: guildID, logger: logger}
}

// CreateTicketChannel provisions a private text channel under the category's
// container, visible to the requesting user and the support role.
func (s *Surface) CreateTicketChannel(ctx context.Context, req service.ProvisionRequest) (string, error) {
	overwrites := []*discordgo.PermissionOverwrite{
		{
			ID:   s.guildID, // @everyone
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		{
			ID:    req.UserID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: memberAccess,
		},
	}
	if req.SupportRoleID != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    req.SupportRoleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: memberAccess,
		})
	}

	channel, err := s.session.GuildChannelCreateComplex(s.guildID, discordgo.GuildChannelCreateData{
		Name:                 ticketChannelName(req.Category.Label, req.Username),
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             req.Category.ChannelID,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		return "", fmt.Errorf("create channel: %w", err)
	}
	return channel.ID, nil
}

// SendWelcome posts the welcome message and returns its id.
func (s *Surface) SendWelcome(ctx context.Context, ticket domain.Ticket, supportRoleID string) (string, error) {
	msg, err := s.session.ChannelMessageSendComplex(ticket.ChannelID, welcomeMessage(ticket, supportRoleID))
	if err != nil {
		return "", fmt.Errorf("send welcome: %w", err)
	}
	return msg.ID, nil
}

// LockChannel renames the channel as closed and revokes the creator's and
// everyone's access, preserving support-role read access when configured.
func (s *Surface) LockChannel(ctx context.Context, req service.LockRequest) error {
	channel, err := s.session.Channel(req.ChannelID)
	if err != nil {
		return fmt.Errorf("fetch channel: %w", err)
	}
	if !strings.HasPrefix(channel.Name, "closed-") {
		if _, err := s.session.ChannelEdit(req.ChannelID, &discordgo.ChannelEdit{Name: "closed-" + channel.Name}); err != nil {
			s.logger.Warn("channel rename failed", zap.String("channel_id", req.ChannelID), zap.Error(err))
		}
	}

	if err := s.session.ChannelPermissionSet(req.ChannelID, req.UserID,
		discordgo.PermissionOverwriteTypeMember, 0, memberAccess); err != nil {
		return fmt.Errorf("revoke creator access: %w", err)
	}
	if err := s.session.ChannelPermissionSet(req.ChannelID, s.guildID,
		discordgo.PermissionOverwriteTypeRole, 0, discordgo.PermissionViewChannel|discordgo.PermissionSendMessages); err != nil {
		return fmt.Errorf("revoke everyone access: %w", err)
	}
	if req.SupportRoleID != "" {
		if err := s.session.ChannelPermissionSet(req.ChannelID, req.SupportRoleID,
			discordgo.PermissionOverwriteTypeRole,
			discordgo.PermissionViewChannel|discordgo.PermissionReadMessageHistory, 0); err != nil {
			return fmt.Errorf("preserve support access: %w", err)
		}
	}
	return nil
}

// SwapWelcomeControls edits the welcome message into its closed form.
func (s *Surface) SwapWelcomeControls(ctx context.Context, ticket domain.Ticket) error {
	components := closedControlsRow(ticket)
	_, err := s.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    ticket.ChannelID,
		ID:         ticket.MessageID,
		Components: &components,
	})
	if err != nil {
		return fmt.Errorf("edit welcome message: %w", err)
	}
	return nil
}

// PostClosureNotice posts the closure embed with a delete control.
func (s *Surface) PostClosureNotice(ctx context.Context, ticket domain.Ticket, closedBy domain.Actor) error {
	if _, err := s.session.ChannelMessageSendComplex(ticket.ChannelID, closureNotice(ticket, closedBy)); err != nil {
		return fmt.Errorf("post closure notice: %w", err)
	}
	return nil
}

// DeleteChannel destroys the channel. A channel that is already gone counts
// as deleted.
func (s *Surface) DeleteChannel(ctx context.Context, channelID string) error {
	if _, err := s.session.ChannelDelete(channelID); err != nil {
		if isUnknownChannel(err) {
			s.logger.Debug("channel already gone", zap.String("channel_id", channelID))
			return nil
		}
		return fmt.Errorf("delete channel: %w", err)
	}
	return nil
}

// NotifyUser sends a direct message. Users with DMs disabled make this fail;
// callers treat it as fire-and-forget.
func (s *Surface) NotifyUser(ctx context.Context, userID string, notice service.Notice) error {
	dm, err := s.session.UserChannelCreate(userID)
	if err != nil {
		return fmt.Errorf("open dm: %w", err)
	}
	_, err = s.session.ChannelMessageSendEmbed(dm.ID, &discordgo.MessageEmbed{
		Title:       notice.Title,
		Description: notice.Body,
		Color:       colorClosed,
	})
	if err != nil {
		return fmt.Errorf("send dm: %w", err)
	}
	return nil
}

func isUnknownChannel(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		return restErr.Message.Code == discordgo.ErrCodeUnknownChannel
	}
	return false
}

func ticketChannelName(topicLabel, username string) string {
	name := fmt.Sprintf("ticket-%s-%s", sanitizeNamePart(topicLabel), sanitizeNamePart(username))
	if len(name) > 100 {
		name = name[:100]
	}
	return name
}

func sanitizeNamePart(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		out = "ticket"
	}
	return out
}

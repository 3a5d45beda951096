package service

import (
	"context"

	"github.com/spec-kit/ticket-bot/internal/domain"
)

// ProvisionRequest describes the private channel to create for a new ticket.
type ProvisionRequest struct {
	UserID   string
	Username string
	TopicKey string
	Category domain.Category
	// SupportRoleID grants the support role read access when configured.
	SupportRoleID string
}

// LockRequest describes the access revocation applied when a ticket closes.
type LockRequest struct {
	ChannelID string
	UserID    string
	// SupportRoleID keeps support read access on the locked channel.
	SupportRoleID string
}

// Notice is a short user-facing notification.
type Notice struct {
	Title string
	Body  string
}

// Surface is what the lifecycle needs from the messaging platform. The
// Discord gateway implements it; tests use a fake.
type Surface interface {
	// CreateTicketChannel provisions the private channel and returns its id.
	CreateTicketChannel(ctx context.Context, req ProvisionRequest) (string, error)
	// SendWelcome posts the welcome message with the close control and
	// returns its message id.
	SendWelcome(ctx context.Context, ticket domain.Ticket, supportRoleID string) (string, error)
	// LockChannel revokes the creator's and everyone's access, preserving
	// support-role read access, and renames the channel as closed.
	LockChannel(ctx context.Context, req LockRequest) error
	// SwapWelcomeControls replaces the welcome message's close button with a
	// disabled closed indicator plus a delete control.
	SwapWelcomeControls(ctx context.Context, ticket domain.Ticket) error
	// PostClosureNotice posts the closure embed with a delete control.
	PostClosureNotice(ctx context.Context, ticket domain.Ticket, closedBy domain.Actor) error
	// DeleteChannel destroys the channel. An already-deleted channel is not
	// an error.
	DeleteChannel(ctx context.Context, channelID string) error
	// NotifyUser sends a direct notification to the user.
	NotifyUser(ctx context.Context, userID string, notice Notice) error
}

// Store is the persistence boundary the services write through after every
// registry mutation.
type Store interface {
	SaveTickets(ctx context.Context, tickets map[string]domain.Ticket) error
	SaveCategories(ctx context.Context, categories map[string]domain.Category) error
	SaveSupportRole(ctx context.Context, roleID string) error
}

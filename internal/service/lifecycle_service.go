package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/auth"
	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/observability"
	"github.com/spec-kit/ticket-bot/internal/registry"
	"github.com/spec-kit/ticket-bot/pkg/util"
)

// LifecycleService coordinates the ticket state machine: create, close,
// delete. Registry mutations happen before the corresponding platform
// effects; persistence follows every mutation.
type LifecycleService struct {
	tickets     *registry.TicketRegistry
	categories  *registry.CategoryRegistry
	supportRole *registry.SupportRole
	policy      *auth.Policy
	store       Store
	surface     Surface
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// LifecycleDependencies bundles collaborators for the lifecycle service.
type LifecycleDependencies struct {
	Tickets     *registry.TicketRegistry
	Categories  *registry.CategoryRegistry
	SupportRole *registry.SupportRole
	Policy      *auth.Policy
	Store       Store
	Surface     Surface
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewLifecycleService constructs the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	return &LifecycleService{
		tickets:     deps.Tickets,
		categories:  deps.Categories,
		supportRole: deps.SupportRole,
		policy:      deps.Policy,
		store:       deps.Store,
		surface:     deps.Surface,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
	}
}

// OpenTicket handles a topic selection: resolves the category, provisions
// the private channel, and records the ticket. Both rejection paths (unknown
// topic, existing open ticket) short-circuit before any channel is created,
// so rejected requests never leave an orphan behind.
func (s *LifecycleService) OpenTicket(ctx context.Context, actor domain.Actor, topicKey string) (domain.Ticket, error) {
	category, ok := s.categories.Resolve(topicKey)
	if !ok {
		return domain.Ticket{}, util.NewNotFound("ticket category", map[string]any{"topic": topicKey})
	}

	// The reservation is taken before the provisioning call so a second
	// request from the same user cannot pass the open-ticket check while
	// this one is waiting on Discord.
	if err := s.tickets.Reserve(actor.ID); err != nil {
		return domain.Ticket{}, err
	}

	channelID, err := s.surface.CreateTicketChannel(ctx, ProvisionRequest{
		UserID:        actor.ID,
		Username:      actor.Username,
		TopicKey:      topicKey,
		Category:      category,
		SupportRoleID: s.supportRole.ID(),
	})
	if err != nil {
		s.tickets.Release(actor.ID)
		return domain.Ticket{}, util.NewExternalCallError("could not create the ticket channel", err)
	}

	ticket, err := s.tickets.Create(actor.ID, channelID, category.Label)
	if err != nil {
		s.logger.Error("ticket record lost after provisioning", zap.String("channel_id", channelID), zap.Error(err))
		return domain.Ticket{}, err
	}
	s.persistTickets(ctx)

	messageID, err := s.surface.SendWelcome(ctx, ticket, s.supportRole.ID())
	if err != nil {
		// The ticket still works without the welcome message; closing will
		// skip the control swap.
		s.logger.Warn("welcome message failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	} else if messageID != "" {
		if err := s.tickets.AttachWelcomeMessage(ticket.ID, messageID); err == nil {
			ticket.MessageID = messageID
			s.persistTickets(ctx)
		}
	}

	s.publish(ctx, events.Event{
		Type:    events.EventTicketOpened,
		ActorID: actor.ID,
		Payload: events.TicketOpenedPayload{
			TicketID:  ticket.ID,
			UserID:    ticket.UserID,
			ChannelID: ticket.ChannelID,
			Topic:     ticket.Topic,
		},
	})
	return ticket, nil
}

// CloseTicket flips an open ticket to closed and applies the channel
// lockdown. The registry mutation and its persistence commit first; the
// platform effects afterwards are best-effort and logged on failure.
func (s *LifecycleService) CloseTicket(ctx context.Context, actor domain.Actor, ticketID string) (domain.Ticket, error) {
	ticket, ok := s.tickets.Get(ticketID)
	if !ok {
		return domain.Ticket{}, util.NewNotFound("ticket", map[string]any{"ticketId": ticketID})
	}
	if ticket.Closed {
		return domain.Ticket{}, util.NewAlreadyClosed("ticket is already closed")
	}
	if !s.policy.CanClose(actor, ticket) {
		return domain.Ticket{}, util.NewForbidden("you are not allowed to close this ticket")
	}

	ticket, err := s.tickets.MarkClosed(ticketID)
	if err != nil {
		return domain.Ticket{}, err
	}
	s.persistTickets(ctx)

	if err := s.surface.LockChannel(ctx, LockRequest{
		ChannelID:     ticket.ChannelID,
		UserID:        ticket.UserID,
		SupportRoleID: s.supportRole.ID(),
	}); err != nil {
		s.logger.Warn("channel lockdown failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}

	if ticket.MessageID == "" {
		s.logger.Debug("no welcome message recorded, skipping control swap", zap.String("ticket_id", ticket.ID))
	} else if err := s.surface.SwapWelcomeControls(ctx, ticket); err != nil {
		s.logger.Warn("control swap failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}

	if err := s.surface.PostClosureNotice(ctx, ticket, actor); err != nil {
		s.logger.Warn("closure notice failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}

	s.publish(ctx, events.Event{
		Type:    events.EventTicketClosed,
		ActorID: actor.ID,
		Payload: events.TicketClosedPayload{
			TicketID: ticket.ID,
			UserID:   ticket.UserID,
			ClosedBy: actor.ID,
		},
	})
	return ticket, nil
}

// RequestDelete validates a deletion request without mutating anything. The
// gateway shows the confirm/cancel prompt only after this passes; the
// pending confirmation lives in the UI, never in the registry.
func (s *LifecycleService) RequestDelete(ctx context.Context, actor domain.Actor, ticketID string) (domain.Ticket, error) {
	ticket, ok := s.tickets.Get(ticketID)
	if !ok {
		return domain.Ticket{}, util.NewNotFound("ticket", map[string]any{"ticketId": ticketID})
	}
	if !ticket.Closed {
		return domain.Ticket{}, util.NewValidationError("close the ticket before deleting it", nil)
	}
	if !s.policy.CanDelete(actor, ticket) {
		return domain.Ticket{}, util.NewForbidden("you are not allowed to delete tickets")
	}
	return ticket, nil
}

// ConfirmDelete destroys the channel and removes the record. A ticket that
// vanished between the prompt and the confirmation (a racing deletion)
// reports not-found rather than failing harder.
func (s *LifecycleService) ConfirmDelete(ctx context.Context, actor domain.Actor, ticketID string) error {
	ticket, ok := s.tickets.Get(ticketID)
	if !ok {
		return util.NewNotFound("ticket", map[string]any{"ticketId": ticketID})
	}
	if !ticket.Closed {
		return util.NewValidationError("close the ticket before deleting it", nil)
	}
	if !s.policy.CanDelete(actor, ticket) {
		return util.NewForbidden("you are not allowed to delete tickets")
	}

	if err := s.surface.DeleteChannel(ctx, ticket.ChannelID); err != nil {
		return util.NewExternalCallError("could not delete the ticket channel", err)
	}

	if _, err := s.tickets.Remove(ticketID); err != nil {
		return err
	}
	s.persistTickets(ctx)

	s.publish(ctx, events.Event{
		Type:    events.EventTicketDeleted,
		ActorID: actor.ID,
		Payload: events.TicketDeletedPayload{
			TicketID:  ticket.ID,
			UserID:    ticket.UserID,
			ChannelID: ticket.ChannelID,
		},
	})
	return nil
}

// CancelDelete dismisses a pending deletion. Nothing was mutated, so there
// is nothing to undo.
func (s *LifecycleService) CancelDelete(ctx context.Context, actor domain.Actor, ticketID string) {
	s.logger.Debug("ticket deletion cancelled", zap.String("ticket_id", ticketID), zap.String("actor_id", actor.ID))
}

// Tickets exposes the registry for read-only reporting.
func (s *LifecycleService) Tickets() *registry.TicketRegistry {
	return s.tickets
}

// persistTickets re-serializes the ticket registry after a mutation. The
// in-memory state stays authoritative on failure: the write is retried by
// the next mutation, and the atomic replace in the store keeps the previous
// document intact in the meantime.
func (s *LifecycleService) persistTickets(ctx context.Context) {
	if err := s.store.SaveTickets(ctx, s.tickets.Snapshot()); err != nil {
		s.metrics.RecordSaveFailure()
		s.logger.Error("ticket persistence failed", zap.Error(err))
	}
}

func (s *LifecycleService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

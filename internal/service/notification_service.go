package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/events"
)

// NotificationService performs the best-effort side effects of lifecycle
// events: the creator's direct notification on close, plus audit logging.
// Everything here is fire-and-forget and log-only; failures never reach the
// transition that published the event.
type NotificationService struct {
	dispatcher events.Dispatcher
	surface    Surface
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, surface Surface, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		surface:    surface,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to lifecycle events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketOpened, n.handleTicketOpened)
	n.dispatcher.Subscribe(events.EventTicketClosed, n.handleTicketClosed)
	n.dispatcher.Subscribe(events.EventTicketDeleted, n.handleTicketDeleted)
	n.dispatcher.Subscribe(events.EventCategoryAdded, n.handleCategoryEvent)
	n.dispatcher.Subscribe(events.EventCategoryRemoved, n.handleCategoryEvent)
	n.dispatcher.Subscribe(events.EventSupportRoleSet, n.handleSupportRoleSet)
}

func (n *NotificationService) handleTicketOpened(ctx context.Context, event events.Event) error {
	n.logger.Info("ticket opened", zap.String("actor_id", event.ActorID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleTicketClosed(ctx context.Context, event events.Event) error {
	n.logger.Info("ticket closed", zap.String("actor_id", event.ActorID), zap.Any("payload", event.Payload))

	payload, ok := event.Payload.(events.TicketClosedPayload)
	if !ok {
		return nil
	}
	// Closing your own ticket does not warrant a DM about it.
	if payload.UserID == payload.ClosedBy {
		return nil
	}
	notice := Notice{
		Title: "Your ticket was closed",
		Body:  fmt.Sprintf("Your ticket was closed by <@%s>.", payload.ClosedBy),
	}
	if err := n.surface.NotifyUser(ctx, payload.UserID, notice); err != nil {
		n.logger.Debug("could not DM ticket creator", zap.String("user_id", payload.UserID), zap.Error(err))
	}
	return nil
}

func (n *NotificationService) handleTicketDeleted(ctx context.Context, event events.Event) error {
	n.logger.Info("ticket deleted", zap.String("actor_id", event.ActorID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleCategoryEvent(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type), zap.String("actor_id", event.ActorID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleSupportRoleSet(ctx context.Context, event events.Event) error {
	n.logger.Info("support role set", zap.String("actor_id", event.ActorID), zap.Any("payload", event.Payload))
	return nil
}

package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketOpened    EventType = "ticket_opened"
	EventTicketClosed    EventType = "ticket_closed"
	EventTicketDeleted   EventType = "ticket_deleted"
	EventCategoryAdded   EventType = "category_added"
	EventCategoryRemoved EventType = "category_removed"
	EventSupportRoleSet  EventType = "support_role_set"
)

// Event represents a lifecycle event emitted by the services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketOpenedPayload payload.
type TicketOpenedPayload struct {
	TicketID  string `json:"ticket_id"`
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id"`
	Topic     string `json:"topic"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	TicketID string `json:"ticket_id"`
	UserID   string `json:"user_id"`
	ClosedBy string `json:"closed_by"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	TicketID  string `json:"ticket_id"`
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id"`
}

// CategoryPayload payload for category mutations.
type CategoryPayload struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// SupportRolePayload payload.
type SupportRolePayload struct {
	RoleID string `json:"role_id"`
}

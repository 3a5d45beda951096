package dto

import "time"

// TicketSummary is the status API's view of a ticket.
type TicketSummary struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ChannelID string    `json:"channel_id"`
	Topic     string    `json:"topic"`
	Closed    bool      `json:"closed"`
	CreatedAt time.Time `json:"created_at"`
}

// TicketsResponse lists tickets with open/closed counts.
type TicketsResponse struct {
	Open    int             `json:"open"`
	Closed  int             `json:"closed"`
	Tickets []TicketSummary `json:"tickets"`
}

// CategorySummary is the status API's view of a category.
type CategorySummary struct {
	Key         string `json:"key"`
	ChannelID   string `json:"channel_id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Emoji       string `json:"emoji"`
}

// CategoriesResponse lists categories and the support role.
type CategoriesResponse struct {
	SupportRoleID string            `json:"support_role_id,omitempty"`
	Categories    []CategorySummary `json:"categories"`
}

// MetricsResponse exposes the in-memory counters.
type MetricsResponse struct {
	Interactions map[string]int64 `json:"interactions"`
	Errors       map[string]int64 `json:"errors"`
	SaveFailures int64            `json:"save_failures"`
}

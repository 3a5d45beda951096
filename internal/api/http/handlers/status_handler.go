package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-bot/internal/api/dto"
	"github.com/spec-kit/ticket-bot/internal/observability"
	"github.com/spec-kit/ticket-bot/internal/registry"
)

// StatusHandler exposes read-only registry snapshots to operators.
type StatusHandler struct {
	tickets     *registry.TicketRegistry
	categories  *registry.CategoryRegistry
	supportRole *registry.SupportRole
	metrics     *observability.Metrics
}

// NewStatusHandler constructs the handler.
func NewStatusHandler(tickets *registry.TicketRegistry, categories *registry.CategoryRegistry, supportRole *registry.SupportRole, metrics *observability.Metrics) *StatusHandler {
	return &StatusHandler{
		tickets:     tickets,
		categories:  categories,
		supportRole: supportRole,
		metrics:     metrics,
	}
}

// Tickets GET /status/tickets.
func (h *StatusHandler) Tickets(c *fiber.Ctx) error {
	snapshot := h.tickets.Snapshot()
	open, closed := h.tickets.Counts()

	items := make([]dto.TicketSummary, 0, len(snapshot))
	for _, ticket := range snapshot {
		items = append(items, dto.TicketSummary{
			ID:        ticket.ID,
			UserID:    ticket.UserID,
			ChannelID: ticket.ChannelID,
			Topic:     ticket.Topic,
			Closed:    ticket.Closed,
			CreatedAt: ticket.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": dto.TicketsResponse{
		Open:    open,
		Closed:  closed,
		Tickets: items,
	}})
}

// Categories GET /status/categories.
func (h *StatusHandler) Categories(c *fiber.Ctx) error {
	entries := h.categories.ListForMenu()
	items := make([]dto.CategorySummary, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.CategorySummary{
			Key:         entry.Key,
			ChannelID:   entry.Category.ChannelID,
			Label:       entry.Category.Label,
			Description: entry.Category.Description,
			Emoji:       entry.Category.Emoji,
		})
	}
	return c.JSON(fiber.Map{"data": dto.CategoriesResponse{
		SupportRoleID: h.supportRole.ID(),
		Categories:    items,
	}})
}

// Metrics GET /status/metrics.
func (h *StatusHandler) Metrics(c *fiber.Ctx) error {
	interactions, errCounts, saveFailures := h.metrics.Snapshot()
	return c.JSON(fiber.Map{"data": dto.MetricsResponse{
		Interactions: interactions,
		Errors:       errCounts,
		SaveFailures: saveFailures,
	}})
}

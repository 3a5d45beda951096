package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/pkg/util"
)

// TicketRegistry owns the in-memory ticket records and enforces the
// one-open-ticket-per-user invariant. discordgo delivers interactions on
// separate goroutines, so the registry guards itself with a mutex.
type TicketRegistry struct {
	mu      sync.RWMutex
	tickets map[string]domain.Ticket
	// reserved holds users with an in-flight creation: the reservation is
	// taken before the channel-provisioning call so a second near-simultaneous
	// request from the same user cannot slip through while the first one is
	// suspended on Discord.
	reserved map[string]struct{}
}

// NewTicketRegistry seeds the registry from a loaded snapshot. The seed map
// is copied; nil is accepted.
func NewTicketRegistry(seed map[string]domain.Ticket) *TicketRegistry {
	tickets := make(map[string]domain.Ticket, len(seed))
	for id, ticket := range seed {
		tickets[id] = ticket
	}
	return &TicketRegistry{
		tickets:  tickets,
		reserved: make(map[string]struct{}),
	}
}

// FindOpenFor returns the user's single open ticket, if any.
func (r *TicketRegistry) FindOpenFor(userID string) (domain.Ticket, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findOpenLocked(userID)
}

func (r *TicketRegistry) findOpenLocked(userID string) (domain.Ticket, bool) {
	for _, ticket := range r.tickets {
		if ticket.UserID == userID && !ticket.Closed {
			return ticket, true
		}
	}
	return domain.Ticket{}, false
}

// Reserve claims the user's creation slot. It fails with a conflict when the
// user already has an open ticket or another creation is in flight.
func (r *TicketRegistry) Reserve(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.findOpenLocked(userID); ok {
		return util.NewConflict("user already has an open ticket", map[string]any{
			"channelId": existing.ChannelID,
		})
	}
	if _, ok := r.reserved[userID]; ok {
		return util.NewConflict("ticket creation already in progress", nil)
	}
	r.reserved[userID] = struct{}{}
	return nil
}

// Release abandons a reservation after a failed provisioning attempt.
func (r *TicketRegistry) Release(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reserved, userID)
}

// Create records a new open ticket against a held reservation, generating a
// fresh id. The open-ticket invariant is re-checked under the lock.
func (r *TicketRegistry) Create(userID, channelID, topicLabel string) (domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.findOpenLocked(userID); ok {
		delete(r.reserved, userID)
		return domain.Ticket{}, util.NewConflict("user already has an open ticket", map[string]any{
			"channelId": existing.ChannelID,
		})
	}
	ticket := domain.Ticket{
		ID:        uuid.NewString(),
		UserID:    userID,
		ChannelID: channelID,
		Topic:     topicLabel,
		CreatedAt: time.Now().UTC(),
		Closed:    false,
	}
	r.tickets[ticket.ID] = ticket
	delete(r.reserved, userID)
	return ticket, nil
}

// AttachWelcomeMessage records the bot's welcome message id. Later
// operations tolerate a missing id, so callers treat failures as advisory.
func (r *TicketRegistry) AttachWelcomeMessage(ticketID, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[ticketID]
	if !ok {
		return util.NewNotFound("ticket", map[string]any{"ticketId": ticketID})
	}
	ticket.MessageID = messageID
	r.tickets[ticketID] = ticket
	return nil
}

// MarkClosed flips the closed flag, exactly once.
func (r *TicketRegistry) MarkClosed(ticketID string) (domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[ticketID]
	if !ok {
		return domain.Ticket{}, util.NewNotFound("ticket", map[string]any{"ticketId": ticketID})
	}
	if ticket.Closed {
		return domain.Ticket{}, util.NewAlreadyClosed("ticket is already closed")
	}
	ticket.Closed = true
	r.tickets[ticketID] = ticket
	return ticket, nil
}

// Remove deletes the record. The caller must have verified the ticket is
// closed; deletion of open tickets is rejected upstream.
func (r *TicketRegistry) Remove(ticketID string) (domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[ticketID]
	if !ok {
		return domain.Ticket{}, util.NewNotFound("ticket", map[string]any{"ticketId": ticketID})
	}
	delete(r.tickets, ticketID)
	return ticket, nil
}

// Get returns the ticket by id.
func (r *TicketRegistry) Get(ticketID string) (domain.Ticket, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ticket, ok := r.tickets[ticketID]
	return ticket, ok
}

// Snapshot copies the registry for persistence or reporting.
func (r *TicketRegistry) Snapshot() map[string]domain.Ticket {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]domain.Ticket, len(r.tickets))
	for id, ticket := range r.tickets {
		out[id] = ticket
	}
	return out
}

// Counts returns the number of open and closed tickets.
func (r *TicketRegistry) Counts() (open, closed int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ticket := range r.tickets {
		if ticket.Closed {
			closed++
		} else {
			open++
		}
	}
	return open, closed
}

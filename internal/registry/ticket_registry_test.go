package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/pkg/util"
)

func TestTicketRegistry_SingleOpenTicketPerUser(t *testing.T) {
	reg := NewTicketRegistry(nil)

	assert.NoError(t, reg.Reserve("user-1"))
	ticket, err := reg.Create("user-1", "chan-1", "Exchange")
	assert.NoError(t, err)
	assert.False(t, ticket.Closed)
	assert.NotEmpty(t, ticket.ID)

	// A second creation attempt conflicts while the first ticket is open.
	err = reg.Reserve("user-1")
	assert.True(t, util.IsCode(err, util.CodeConflict))

	found, ok := reg.FindOpenFor("user-1")
	assert.True(t, ok)
	assert.Equal(t, ticket.ID, found.ID)

	// After closing, the user may open a new ticket.
	_, err = reg.MarkClosed(ticket.ID)
	assert.NoError(t, err)
	assert.NoError(t, reg.Reserve("user-1"))
	second, err := reg.Create("user-1", "chan-2", "Other")
	assert.NoError(t, err)
	assert.NotEqual(t, ticket.ID, second.ID)

	open, closed := reg.Counts()
	assert.Equal(t, 1, open)
	assert.Equal(t, 1, closed)
}

func TestTicketRegistry_ReservationBlocksConcurrentCreate(t *testing.T) {
	reg := NewTicketRegistry(nil)

	assert.NoError(t, reg.Reserve("user-1"))

	// A second request from the same user while the first is provisioning.
	err := reg.Reserve("user-1")
	assert.True(t, util.IsCode(err, util.CodeConflict))

	// Releasing after a failed provisioning frees the slot.
	reg.Release("user-1")
	assert.NoError(t, reg.Reserve("user-1"))
}

func TestTicketRegistry_MarkClosedIsMonotonic(t *testing.T) {
	reg := NewTicketRegistry(nil)
	assert.NoError(t, reg.Reserve("user-1"))
	ticket, err := reg.Create("user-1", "chan-1", "Exchange")
	assert.NoError(t, err)

	closed, err := reg.MarkClosed(ticket.ID)
	assert.NoError(t, err)
	assert.True(t, closed.Closed)

	_, err = reg.MarkClosed(ticket.ID)
	assert.True(t, util.IsCode(err, util.CodeAlreadyClosed))
}

func TestTicketRegistry_MarkClosedUnknownTicket(t *testing.T) {
	reg := NewTicketRegistry(nil)
	_, err := reg.MarkClosed("ghost")
	assert.True(t, util.IsCode(err, util.CodeNotFound))
}

func TestTicketRegistry_RemoveTwiceReportsNotFound(t *testing.T) {
	reg := NewTicketRegistry(nil)
	assert.NoError(t, reg.Reserve("user-1"))
	ticket, err := reg.Create("user-1", "chan-1", "Exchange")
	assert.NoError(t, err)
	_, err = reg.MarkClosed(ticket.ID)
	assert.NoError(t, err)

	removed, err := reg.Remove(ticket.ID)
	assert.NoError(t, err)
	assert.Equal(t, ticket.ID, removed.ID)

	_, err = reg.Remove(ticket.ID)
	assert.True(t, util.IsCode(err, util.CodeNotFound))
}

func TestTicketRegistry_AttachWelcomeMessage(t *testing.T) {
	reg := NewTicketRegistry(nil)
	assert.NoError(t, reg.Reserve("user-1"))
	ticket, err := reg.Create("user-1", "chan-1", "Exchange")
	assert.NoError(t, err)

	assert.NoError(t, reg.AttachWelcomeMessage(ticket.ID, "msg-1"))
	stored, ok := reg.Get(ticket.ID)
	assert.True(t, ok)
	assert.Equal(t, "msg-1", stored.MessageID)

	err = reg.AttachWelcomeMessage("ghost", "msg-2")
	assert.True(t, util.IsCode(err, util.CodeNotFound))
}

func TestTicketRegistry_SeedAndSnapshot(t *testing.T) {
	seed := map[string]domain.Ticket{
		"t1": {ID: "t1", UserID: "user-1", ChannelID: "chan-1", Topic: "Exchange", Closed: true},
	}
	reg := NewTicketRegistry(seed)

	snapshot := reg.Snapshot()
	assert.Equal(t, seed, snapshot)

	// The snapshot is a copy, not the live map.
	delete(snapshot, "t1")
	_, ok := reg.Get("t1")
	assert.True(t, ok)
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/events"
)

func publishClosed(t *testing.T, dispatcher events.Dispatcher, userID, closedBy string) {
	t.Helper()
	err := dispatcher.Publish(context.Background(), events.Event{
		ID:      "evt-1",
		Type:    events.EventTicketClosed,
		ActorID: closedBy,
		Payload: events.TicketClosedPayload{TicketID: "t1", UserID: userID, ClosedBy: closedBy},
	})
	assert.NoError(t, err)
}

func TestNotificationService_DMsCreatorOnStaffClose(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	surface := &fakeSurface{}
	NewNotificationService(dispatcher, surface, zap.NewNop()).RegisterHandlers()

	publishClosed(t, dispatcher, "user-1", "mod-1")
	assert.Equal(t, []string{"user-1"}, surface.dms)
}

func TestNotificationService_NoDMOnSelfClose(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	surface := &fakeSurface{}
	NewNotificationService(dispatcher, surface, zap.NewNop()).RegisterHandlers()

	publishClosed(t, dispatcher, "user-1", "user-1")
	assert.Empty(t, surface.dms)
}

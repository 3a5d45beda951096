package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/auth"
	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/observability"
	"github.com/spec-kit/ticket-bot/internal/persistence"
	"github.com/spec-kit/ticket-bot/internal/registry"
	"github.com/spec-kit/ticket-bot/pkg/util"
)

// fakeSurface records platform calls instead of talking to Discord.
type fakeSurface struct {
	mu          sync.Mutex
	channelSeq  int
	created     []ProvisionRequest
	locked      []LockRequest
	swapped     []string
	notices     []string
	deleted     []string
	dms         []string
	failCreate  bool
	failWelcome bool
}

func (f *fakeSurface) CreateTicketChannel(ctx context.Context, req ProvisionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return "", errors.New("discord unavailable")
	}
	f.channelSeq++
	f.created = append(f.created, req)
	return fmt.Sprintf("chan-%d", f.channelSeq), nil
}

func (f *fakeSurface) SendWelcome(ctx context.Context, ticket domain.Ticket, supportRoleID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWelcome {
		return "", errors.New("message rejected")
	}
	return "msg-" + ticket.ID, nil
}

func (f *fakeSurface) LockChannel(ctx context.Context, req LockRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locked = append(f.locked, req)
	return nil
}

func (f *fakeSurface) SwapWelcomeControls(ctx context.Context, ticket domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.swapped = append(f.swapped, ticket.ID)
	return nil
}

func (f *fakeSurface) PostClosureNotice(ctx context.Context, ticket domain.Ticket, closedBy domain.Actor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, ticket.ID)
	return nil
}

func (f *fakeSurface) DeleteChannel(ctx context.Context, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, channelID)
	return nil
}

func (f *fakeSurface) NotifyUser(ctx context.Context, userID string, notice Notice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dms = append(f.dms, userID)
	return nil
}

type lifecycleFixture struct {
	service *LifecycleService
	surface *fakeSurface
	store   *persistence.FileStore
	tickets *registry.TicketRegistry
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()

	store, err := persistence.NewFileStore(t.TempDir(), zap.NewNop())
	assert.NoError(t, err)

	tickets := registry.NewTicketRegistry(nil)
	categories := registry.NewCategoryRegistry(nil)
	categories.Upsert("exchange", domain.Category{ChannelID: "cat-1", Label: "Exchange", Description: "Swap things", Emoji: "🔄"})
	supportRole := registry.NewSupportRole("role-support")
	surface := &fakeSurface{}

	svc := NewLifecycleService(LifecycleDependencies{
		Tickets:     tickets,
		Categories:  categories,
		SupportRole: supportRole,
		Policy:      auth.NewPolicy(supportRole),
		Store:       store,
		Surface:     surface,
		Dispatcher:  events.NewInMemoryDispatcher(),
		Metrics:     observability.NewMetrics(),
		Logger:      zap.NewNop(),
	})
	return &lifecycleFixture{service: svc, surface: surface, store: store, tickets: tickets}
}

var creator = domain.Actor{ID: "user-1", Username: "alice"}

func TestLifecycleService_OpenTicket(t *testing.T) {
	fx := newLifecycleFixture(t)
	ctx := context.Background()

	ticket, err := fx.service.OpenTicket(ctx, creator, "exchange")
	assert.NoError(t, err)
	assert.Equal(t, "user-1", ticket.UserID)
	assert.Equal(t, "chan-1", ticket.ChannelID)
	assert.Equal(t, "Exchange", ticket.Topic)
	assert.Equal(t, "msg-"+ticket.ID, ticket.MessageID)
	assert.False(t, ticket.Closed)

	// Provisioning received the category and support role.
	assert.Len(t, fx.surface.created, 1)
	assert.Equal(t, "cat-1", fx.surface.created[0].Category.ChannelID)
	assert.Equal(t, "role-support", fx.surface.created[0].SupportRoleID)

	// The ticket survives a reload.
	snapshot, err := fx.store.Load(ctx)
	assert.NoError(t, err)
	assert.Equal(t, ticket, snapshot.Tickets[ticket.ID])
}

func TestLifecycleService_OpenTicketUnknownTopic(t *testing.T) {
	fx := newLifecycleFixture(t)

	_, err := fx.service.OpenTicket(context.Background(), creator, "ghost")
	assert.True(t, util.IsCode(err, util.CodeNotFound))
	assert.Empty(t, fx.surface.created)
}

func TestLifecycleService_SecondOpenTicketRejected(t *testing.T) {
	fx := newLifecycleFixture(t)
	ctx := context.Background()

	first, err := fx.service.OpenTicket(ctx, creator, "exchange")
	assert.NoError(t, err)

	// The second request is rejected and no channel is provisioned for it.
	_, err = fx.service.OpenTicket(ctx, creator, "exchange")
	assert.True(t, util.IsCode(err, util.CodeConflict))
	assert.Len(t, fx.surface.created, 1)

	var domErr *util.DomainError
	assert.True(t, errors.As(err, &domErr))
	assert.Equal(t, first.ChannelID, domErr.Details["channelId"])
}

func TestLifecycleService_OpenTicketProvisioningFailure(t *testing.T) {
	fx := newLifecycleFixture(t)
	ctx := context.Background()

	fx.surface.failCreate = true
	_, err := fx.service.OpenTicket(ctx, creator, "exchange")
	assert.True(t, util.IsCode(err, util.CodeExternalCall))

	// The reservation is released, so a retry succeeds.
	fx.surface.failCreate = false
	_, err = fx.service.OpenTicket(ctx, creator, "exchange")
	assert.NoError(t, err)
}

func TestLifecycleService_OpenTicketWelcomeFailureIsNotFatal(t *testing.T) {
	fx := newLifecycleFixture(t)
	fx.surface.failWelcome = true

	ticket, err := fx.service.OpenTicket(context.Background(), creator, "exchange")
	assert.NoError(t, err)
	assert.Empty(t, ticket.MessageID)
}

func TestLifecycleService_CloseTicket(t *testing.T) {
	fx := newLifecycleFixture(t)
	ctx := context.Background()

	ticket, err := fx.service.OpenTicket(ctx, creator, "exchange")
	assert.NoError(t, err)

	closed, err := fx.service.CloseTicket(ctx, creator, ticket.ID)
	assert.NoError(t, err)
	assert.True(t, closed.Closed)

	assert.Len(t, fx.surface.locked, 1)
	assert.Equal(t, ticket.ChannelID, fx.surface.locked[0].ChannelID)
	assert.Equal(t, []string{ticket.ID}, fx.surface.swapped)
	assert.Equal(t, []string{ticket.ID}, fx.surface.notices)

	snapshot, err := fx.store.Load(ctx)
	assert.NoError(t, err)
	assert.True(t, snapshot.Tickets[ticket.ID].Closed)
}

func TestLifecycleService_CloseTicketTwice(t *testing.T) {
	fx := newLifecycleFixture(t)
	ctx := context.Background()

	ticket, err := fx.service.OpenTicket(ctx, creator, "exchange")
	assert.NoError(t, err)
	_, err = fx.service.CloseTicket(ctx, creator, ticket.ID)
	assert.NoError(t, err)

	_, err = fx.service.CloseTicket(ctx, creator, ticket.ID)
	assert.True(t, util.IsCode(err, util.CodeAlreadyClosed))
}

func TestLifecycleService_CloseTicketForbidden(t *testing.T) {
	fx := newLifecycleFixture(t)
	ctx := context.Background()

	ticket, err := fx.service.OpenTicket(ctx, creator, "exchange")
	assert.NoError(t, err)

	stranger := domain.Actor{ID: "user-2"}
	_, err = fx.service.CloseTicket(ctx, stranger, ticket.ID)
	assert.True(t, util.IsCode(err, util.CodeForbidden))
	assert.Empty(t, fx.surface.locked)
}

func TestLifecycleService_CloseWithoutWelcomeMessageSkipsSwap(t *testing.T) {
	fx := newLifecycleFixture(t)
	ctx := context.Background()

	fx.surface.failWelcome = true
	ticket, err := fx.service.OpenTicket(ctx, creator, "exchange")
	assert.NoError(t, err)

	_, err = fx.service.CloseTicket(ctx, creator, ticket.ID)
	assert.NoError(t, err)
	assert.Empty(t, fx.surface.swapped)
	assert.Len(t, fx.surface.locked, 1)
}

func TestLifecycleService_DeleteFlow(t *testing.T) {
	fx := newLifecycleFixture(t)
	ctx := context.Background()
	moderator := domain.Actor{ID: "mod-1", ManageChannels: true}

	ticket, err := fx.service.OpenTicket(ctx, creator, "exchange")
	assert.NoError(t, err)

	// Deleting an open ticket is rejected at the request stage.
	_, err = fx.service.RequestDelete(ctx, moderator, ticket.ID)
	assert.True(t, util.IsCode(err, util.CodeValidationFailed))

	_, err = fx.service.CloseTicket(ctx, moderator, ticket.ID)
	assert.NoError(t, err)

	// Creators cannot delete their own tickets.
	_, err = fx.service.RequestDelete(ctx, creator, ticket.ID)
	assert.True(t, util.IsCode(err, util.CodeForbidden))

	_, err = fx.service.RequestDelete(ctx, moderator, ticket.ID)
	assert.NoError(t, err)

	assert.NoError(t, fx.service.ConfirmDelete(ctx, moderator, ticket.ID))
	assert.Equal(t, []string{ticket.ChannelID}, fx.surface.deleted)

	_, ok := fx.tickets.Get(ticket.ID)
	assert.False(t, ok)

	snapshot, err := fx.store.Load(ctx)
	assert.NoError(t, err)
	assert.Empty(t, snapshot.Tickets)
}

func TestLifecycleService_ConfirmDeleteTwice(t *testing.T) {
	fx := newLifecycleFixture(t)
	ctx := context.Background()
	moderator := domain.Actor{ID: "mod-1", ManageChannels: true}

	ticket, err := fx.service.OpenTicket(ctx, creator, "exchange")
	assert.NoError(t, err)
	_, err = fx.service.CloseTicket(ctx, moderator, ticket.ID)
	assert.NoError(t, err)

	assert.NoError(t, fx.service.ConfirmDelete(ctx, moderator, ticket.ID))

	// A second confirmation finds nothing and touches nothing.
	err = fx.service.ConfirmDelete(ctx, moderator, ticket.ID)
	assert.True(t, util.IsCode(err, util.CodeNotFound))
	assert.Len(t, fx.surface.deleted, 1)
}

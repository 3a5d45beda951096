package service

import (
	"context"
	"regexp"
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

var categoryKeyPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// SetupInput carries the container ids for the four stock categories plus
// the support role.
type SetupInput struct {
	ExchangeID    string
	StaffID       string
	WinnersID     string
	OtherID       string
	SupportRoleID string
}

// stock categories seeded by setup, mirroring the four fixed topics of the
// selection menu.
var setupCategories = []struct {
	Key         string
	Label       string
	Description string
	Emoji       string
}{
	{Key: "exchange", Label: "Exchange", Description: "Create a ticket for exchanging", Emoji: "🔄"},
	{Key: "staff", Label: "Staff Apply", Description: "Apply to join the staff team", Emoji: "👥"},
	{Key: "winners", Label: "Winners", Description: "Questions about winners", Emoji: "🏆"},
	{Key: "other", Label: "Other", Description: "Any other request", Emoji: "❓"},
}

// AdminService handles the admin-only configuration surface: bulk setup,
// incremental category management, and the support role.
type AdminService struct {
	categories  *registry.CategoryRegistry
	supportRole *registry.SupportRole
	policy      *auth.Policy
	store       Store
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// AdminDependencies bundles collaborators for the admin service.
type AdminDependencies struct {
	Categories  *registry.CategoryRegistry
	SupportRole *registry.SupportRole
	Policy      *auth.Policy
	Store       Store
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewAdminService constructs the service.
func NewAdminService(deps AdminDependencies) *AdminService {
	return &AdminService{
		categories:  deps.Categories,
		supportRole: deps.SupportRole,
		policy:      deps.Policy,
		store:       deps.Store,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
	}
}

// Setup bulk-seeds the four stock categories and sets the support role.
// Existing keys are replaced; setup is the one path where that is intended.
func (s *AdminService) Setup(ctx context.Context, actor domain.Actor, input SetupInput) error {
	if !s.policy.CanConfigure(actor) {
		return util.NewForbidden("administrator permission required")
	}

	containers := map[string]string{
		"exchange": input.ExchangeID,
		"staff":    input.StaffID,
		"winners":  input.WinnersID,
		"other":    input.OtherID,
	}
	for _, stock := range setupCategories {
		s.categories.Upsert(stock.Key, domain.Category{
			ChannelID:   containers[stock.Key],
			Label:       stock.Label,
			Description: stock.Description,
			Emoji:       stock.Emoji,
		})
	}
	s.supportRole.Set(input.SupportRoleID)
	s.persistCategories(ctx)
	s.persistSupportRole(ctx)

	for _, stock := range setupCategories {
		s.publish(ctx, events.Event{
			Type:    events.EventCategoryAdded,
			ActorID: actor.ID,
			Payload: events.CategoryPayload{Key: stock.Key, Label: stock.Label},
		})
	}
	s.publish(ctx, events.Event{
		Type:    events.EventSupportRoleSet,
		ActorID: actor.ID,
		Payload: events.SupportRolePayload{RoleID: input.SupportRoleID},
	})
	return nil
}

// AddCategory registers a new topic. The key is constrained to lowercase
// letters, digits, and underscores; duplicates are rejected.
func (s *AdminService) AddCategory(ctx context.Context, actor domain.Actor, key string, cat domain.Category) (domain.Category, error) {
	if !s.policy.CanConfigure(actor) {
		return domain.Category{}, util.NewForbidden("administrator permission required")
	}
	if !categoryKeyPattern.MatchString(key) {
		return domain.Category{}, util.NewValidationError("category name must contain only lowercase letters, digits, and underscores", map[string]any{"name": key})
	}
	if err := s.categories.Add(key, cat); err != nil {
		return domain.Category{}, err
	}
	s.persistCategories(ctx)

	added, _ := s.categories.Resolve(key)
	s.publish(ctx, events.Event{
		Type:    events.EventCategoryAdded,
		ActorID: actor.ID,
		Payload: events.CategoryPayload{Key: key, Label: added.Label},
	})
	return added, nil
}

// DeleteCategory removes a topic and returns the removed record for the
// confirmation message. Existing tickets keep their snapshotted topic label.
func (s *AdminService) DeleteCategory(ctx context.Context, actor domain.Actor, key string) (domain.Category, error) {
	if !s.policy.CanConfigure(actor) {
		return domain.Category{}, util.NewForbidden("administrator permission required")
	}
	removed, err := s.categories.Remove(key)
	if err != nil {
		return domain.Category{}, err
	}
	s.persistCategories(ctx)

	s.publish(ctx, events.Event{
		Type:    events.EventCategoryRemoved,
		ActorID: actor.ID,
		Payload: events.CategoryPayload{Key: key, Label: removed.Label},
	})
	return removed, nil
}

// MenuEntries returns the categories for the selection prompt.
func (s *AdminService) MenuEntries() []registry.MenuEntry {
	return s.categories.ListForMenu()
}

// CanPostPrompt gates the /ticket command.
func (s *AdminService) CanPostPrompt(actor domain.Actor) error {
	if !s.policy.CanConfigure(actor) {
		return util.NewForbidden("administrator permission required")
	}
	return nil
}

func (s *AdminService) persistCategories(ctx context.Context) {
	if err := s.store.SaveCategories(ctx, s.categories.Snapshot()); err != nil {
		s.metrics.RecordSaveFailure()
		s.logger.Error("category persistence failed", zap.Error(err))
	}
}

func (s *AdminService) persistSupportRole(ctx context.Context) {
	if err := s.store.SaveSupportRole(ctx, s.supportRole.ID()); err != nil {
		s.metrics.RecordSaveFailure()
		s.logger.Error("support role persistence failed", zap.Error(err))
	}
}

func (s *AdminService) publish(ctx context.Context, event events.Event) {
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

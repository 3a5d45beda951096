package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/registry"
)

func TestPolicy_CanClose(t *testing.T) {
	ticket := domain.Ticket{ID: "t1", UserID: "creator"}

	tests := []struct {
		name        string
		actor       domain.Actor
		supportRole string
		want        bool
	}{
		{name: "creator", actor: domain.Actor{ID: "creator"}, want: true},
		{name: "manage channels", actor: domain.Actor{ID: "mod", ManageChannels: true}, want: true},
		{name: "support role holder", actor: domain.Actor{ID: "helper", RoleIDs: []string{"role-1"}}, supportRole: "role-1", want: true},
		{name: "support role not configured", actor: domain.Actor{ID: "helper", RoleIDs: []string{"role-1"}}, want: false},
		{name: "unrelated member", actor: domain.Actor{ID: "stranger"}, supportRole: "role-1", want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			policy := NewPolicy(registry.NewSupportRole(tc.supportRole))
			assert.Equal(t, tc.want, policy.CanClose(tc.actor, ticket))
		})
	}
}

func TestPolicy_CanDelete(t *testing.T) {
	ticket := domain.Ticket{ID: "t1", UserID: "creator", Closed: true}

	tests := []struct {
		name        string
		actor       domain.Actor
		supportRole string
		want        bool
	}{
		// Creators may close but not delete their own tickets.
		{name: "creator without privileges", actor: domain.Actor{ID: "creator"}, supportRole: "role-1", want: false},
		{name: "manage channels", actor: domain.Actor{ID: "mod", ManageChannels: true}, want: true},
		{name: "support role holder", actor: domain.Actor{ID: "helper", RoleIDs: []string{"role-1"}}, supportRole: "role-1", want: true},
		{name: "support role not configured", actor: domain.Actor{ID: "helper", RoleIDs: []string{"role-1"}}, want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			policy := NewPolicy(registry.NewSupportRole(tc.supportRole))
			assert.Equal(t, tc.want, policy.CanDelete(tc.actor, ticket))
		})
	}
}

func TestPolicy_CanConfigure(t *testing.T) {
	policy := NewPolicy(registry.NewSupportRole("role-1"))

	assert.True(t, policy.CanConfigure(domain.Actor{ID: "admin", Admin: true}))
	// Manage Channels alone is not enough for configuration.
	assert.False(t, policy.CanConfigure(domain.Actor{ID: "mod", ManageChannels: true}))
	assert.False(t, policy.CanConfigure(domain.Actor{ID: "helper", RoleIDs: []string{"role-1"}}))
}

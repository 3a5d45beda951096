package auth

import "github.com/spec-kit/ticket-bot/internal/domain"

// SupportRoleSource supplies the currently configured support role id, or
// empty when none is set.
type SupportRoleSource interface {
	ID() string
}

// Policy holds the pure authorization predicates for ticket operations.
type Policy struct {
	supportRole SupportRoleSource
}

// NewPolicy constructs the policy.
func NewPolicy(supportRole SupportRoleSource) *Policy {
	return &Policy{supportRole: supportRole}
}

// CanClose reports whether the actor may close the ticket: the creator, a
// member with Manage Channels, or a holder of the configured support role.
func (p *Policy) CanClose(actor domain.Actor, ticket domain.Ticket) bool {
	if actor.ID == ticket.UserID {
		return true
	}
	if actor.ManageChannels {
		return true
	}
	return p.holdsSupportRole(actor)
}

// CanDelete reports whether the actor may delete the ticket. Creators may
// close but not delete their own tickets.
func (p *Policy) CanDelete(actor domain.Actor, ticket domain.Ticket) bool {
	if actor.ManageChannels {
		return true
	}
	return p.holdsSupportRole(actor)
}

// CanConfigure governs all category and setup mutations.
func (p *Policy) CanConfigure(actor domain.Actor) bool {
	return actor.Admin
}

func (p *Policy) holdsSupportRole(actor domain.Actor) bool {
	if p.supportRole == nil {
		return false
	}
	roleID := p.supportRole.ID()
	return roleID != "" && actor.HasRole(roleID)
}

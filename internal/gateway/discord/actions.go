package discord

import (
	"fmt"
	"strings"

	"github.com/spec-kit/ticket-bot/pkg/util"
)

// TopicSelectID is the custom id of the topic-selection menu.
const TopicSelectID = "ticket_topic"

// ActionKind tags a button action.
type ActionKind string

const (
	ActionClose         ActionKind = "close_ticket"
	ActionDelete        ActionKind = "delete_ticket"
	ActionConfirmDelete ActionKind = "confirm_delete"
	ActionCancelDelete  ActionKind = "cancel_delete"
	// ActionClosedIndicator marks the inert, disabled control left on the
	// welcome message after closing. It is never dispatched.
	ActionClosedIndicator ActionKind = "closed"
)

var knownActions = map[ActionKind]bool{
	ActionClose:           true,
	ActionDelete:          true,
	ActionConfirmDelete:   true,
	ActionCancelDelete:    true,
	ActionClosedIndicator: true,
}

// ComponentAction is the decoded form of a button custom id. The wire format
// is `action:userID:ticketID`; it is parsed and validated here, at the
// boundary, so the services only ever see the structured form.
type ComponentAction struct {
	Kind     ActionKind
	UserID   string
	TicketID string
}

// ParseComponentID decodes and validates a button custom id.
func ParseComponentID(customID string) (ComponentAction, error) {
	parts := strings.Split(customID, ":")
	if len(parts) != 3 {
		return ComponentAction{}, util.NewValidationError("malformed component id", map[string]any{"customId": customID})
	}
	action := ComponentAction{
		Kind:     ActionKind(parts[0]),
		UserID:   parts[1],
		TicketID: parts[2],
	}
	if !knownActions[action.Kind] {
		return ComponentAction{}, util.NewValidationError("unknown component action", map[string]any{"action": parts[0]})
	}
	if action.UserID == "" || action.TicketID == "" {
		return ComponentAction{}, util.NewValidationError("incomplete component id", map[string]any{"customId": customID})
	}
	return action, nil
}

// CustomID encodes the action for a component.
func (a ComponentAction) CustomID() string {
	return fmt.Sprintf("%s:%s:%s", a.Kind, a.UserID, a.TicketID)
}

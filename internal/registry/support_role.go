package registry

import "sync"

// SupportRole holds the optional process-wide support role id. Absence
// disables support-role-based authorization and notifications.
type SupportRole struct {
	mu sync.RWMutex
	id string
}

// NewSupportRole seeds the holder; an empty id means not configured.
func NewSupportRole(id string) *SupportRole {
	return &SupportRole{id: id}
}

// ID returns the configured role id, or empty.
func (s *SupportRole) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// Set replaces the configured role id.
func (s *SupportRole) Set(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
}

// Configured reports whether a support role is set.
func (s *SupportRole) Configured() bool {
	return s.ID() != ""
}

package domain

// Actor is the guild member behind an interaction, reduced to the identity
// and capability bits the authorization policy consults.
type Actor struct {
	ID             string
	Username       string
	Admin          bool
	ManageChannels bool
	RoleIDs        []string
}

// HasRole reports whether the actor holds the given role.
func (a Actor) HasRole(roleID string) bool {
	if roleID == "" {
		return false
	}
	for _, id := range a.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

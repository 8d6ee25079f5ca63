package domain

import "slices"

// Identity is the authenticated principal attached to a single request:
// the resolved user and the capabilities of its role at resolution time.
type Identity struct {
	User         *User
	Capabilities []string
}

// NewIdentity binds a user to the capability set of its role. A nil or empty
// capability set yields an identity that is denied everything.
func NewIdentity(user *User, capabilities []string) *Identity {
	return &Identity{User: user, Capabilities: slices.Clone(capabilities)}
}

// Can reports whether the identity holds capability. It fails closed on a nil
// identity, a missing user or an unresolved role.
func (i *Identity) Can(capability string) bool {
	if i == nil || i.User == nil {
		return false
	}
	return slices.Contains(i.Capabilities, capability)
}

// Role returns the user's role name, or "" for a nil identity.
func (i *Identity) Role() string {
	if i == nil || i.User == nil {
		return ""
	}
	return i.User.Role
}

package domain

import "slices"

const (
	CapabilityRead   = "read"
	CapabilityCreate = "create"
	CapabilityUpdate = "update"
	CapabilityDelete = "delete"
)

// Role maps a role name to the capabilities it grants.
type Role struct {
	Name         string   `json:"role"`
	Capabilities []string `json:"capabilities"`
}

// Grants reports whether the role carries capability.
func (r Role) Grants(capability string) bool {
	return slices.Contains(r.Capabilities, capability)
}

// DefaultRoles is the role table installed by the seed-roles command.
func DefaultRoles() []Role {
	return []Role{
		{Name: RoleAdmin, Capabilities: []string{CapabilityRead, CapabilityCreate, CapabilityUpdate, CapabilityDelete}},
		{Name: RoleEditor, Capabilities: []string{CapabilityRead, CapabilityCreate, CapabilityUpdate}},
		{Name: RoleUser, Capabilities: []string{CapabilityRead}},
	}
}

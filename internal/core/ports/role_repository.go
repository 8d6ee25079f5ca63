package ports

import (
	"context"

	"github.com/bookshelf/bookshelf-api/internal/core/domain"
)

// RoleRepository persists the role to capability mapping.
type RoleRepository interface {
	// Get returns domain.ErrRoleNotFound when no role is named name.
	Get(ctx context.Context, name string) (*domain.Role, error)
	List(ctx context.Context) ([]domain.Role, error)
	Upsert(ctx context.Context, role domain.Role) error
	Delete(ctx context.Context, name string) error
}

// RoleCache is a shared, expiring store of role capabilities.
type RoleCache interface {
	// Get reports false when the role is not cached.
	Get(ctx context.Context, name string) ([]string, bool, error)
	Set(ctx context.Context, name string, capabilities []string) error
	Invalidate(ctx context.Context, name string) error
}

// CapabilityResolver maps a role name to its capability set.
type CapabilityResolver interface {
	Capabilities(ctx context.Context, role string) ([]string, error)
}

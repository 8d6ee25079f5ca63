package ports

import (
	"context"

	"github.com/bookshelf/bookshelf-api/internal/core/domain"
)

// UserRepository persists user accounts.
type UserRepository interface {
	// Get returns domain.ErrNotFound when no user has id and
	// domain.ErrInvalidID when id is not a valid identifier for the backend.
	Get(ctx context.Context, id string) (*domain.User, error)
	// Find returns every user matching filter. Usernames are expected to be
	// unique, but callers must tolerate more than one match.
	Find(ctx context.Context, filter domain.UserFilter) ([]*domain.User, error)
	// Create stores user and returns it with its assigned ID.
	// A username collision yields domain.ErrDuplicateKey.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, id string, patch domain.UserPatch) error
	Delete(ctx context.Context, id string) error
}

package ports

import (
	"context"

	"github.com/bookshelf/bookshelf-api/internal/core/domain"
)

// CreateBookInput carries the fields of a new book.
type CreateBookInput struct {
	Title  string
	Author string
	Auth   []string
}

// BookService implements the books use cases for an already authorised identity.
type BookService interface {
	// List returns the books visible to the identity's role.
	List(ctx context.Context, identity *domain.Identity) ([]*domain.Book, error)
	Get(ctx context.Context, identity *domain.Identity, id string) (*domain.Book, error)
	Create(ctx context.Context, input CreateBookInput) (*domain.Book, error)
	Update(ctx context.Context, id string, patch domain.BookPatch) error
	Delete(ctx context.Context, id string) error
}

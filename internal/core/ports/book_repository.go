package ports

import (
	"context"

	"github.com/bookshelf/bookshelf-api/internal/core/domain"
)

// BookRepository persists the books collection.
type BookRepository interface {
	Get(ctx context.Context, id string) (*domain.Book, error)
	Find(ctx context.Context, filter domain.BookFilter) ([]*domain.Book, error)
	Create(ctx context.Context, book *domain.Book) (*domain.Book, error)
	// Update applies patch; domain.ErrNotFound when no book has id.
	Update(ctx context.Context, id string, patch domain.BookPatch) error
	Delete(ctx context.Context, id string) error
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bookshelf/bookshelf-api/internal/api/metrics"
	"github.com/bookshelf/bookshelf-api/internal/core/domain"
	"github.com/bookshelf/bookshelf-api/internal/core/ports"
)

type BookService struct {
	repo   ports.BookRepository
	logger zerolog.Logger
}

func NewBookService(repo ports.BookRepository, logger zerolog.Logger) *BookService {
	return &BookService{repo: repo, logger: logger.With().Str("component", "book_service").Logger()}
}

// List returns the books whose authorized roles include the identity's role.
func (s *BookService) List(ctx context.Context, identity *domain.Identity) ([]*domain.Book, error) {
	role := identity.Role()
	if role == "" {
		return []*domain.Book{}, nil
	}

	books, err := s.repo.Find(ctx, domain.BookFilter{AuthorizedRole: role})
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	// The store filter is authoritative; this guards backends with looser matching.
	visible := books[:0]
	for _, b := range books {
		if b.VisibleTo(role) {
			visible = append(visible, b)
		}
	}
	return visible, nil
}

// Get returns a single book. Books hidden from the identity's role are
// reported as not found.
func (s *BookService) Get(ctx context.Context, identity *domain.Identity, id string) (*domain.Book, error) {
	book, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !book.VisibleTo(identity.Role()) {
		return nil, domain.ErrNotFound
	}
	return book, nil
}

func (s *BookService) Create(ctx context.Context, in ports.CreateBookInput) (*domain.Book, error) {
	book := &domain.Book{
		Title:  strings.TrimSpace(in.Title),
		Author: strings.TrimSpace(in.Author),
		Auth:   in.Auth,
	}
	if err := book.Validate(); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, book)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create book")
		return nil, err
	}

	metrics.BooksWrittenTotal.WithLabelValues("create").Inc()
	s.logger.Info().Str("book_id", created.ID).Strs("auth", created.Auth).Msg("book created")
	return created, nil
}

func (s *BookService) Update(ctx context.Context, id string, patch domain.BookPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	if patch.Empty() {
		return nil
	}

	if err := s.repo.Update(ctx, id, patch); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error().Err(err).Str("book_id", id).Msg("failed to update book")
		}
		return err
	}

	metrics.BooksWrittenTotal.WithLabelValues("update").Inc()
	s.logger.Info().Str("book_id", id).Msg("book updated")
	return nil
}

func (s *BookService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	metrics.BooksWrittenTotal.WithLabelValues("delete").Inc()
	s.logger.Info().Str("book_id", id).Msg("book deleted")
	return nil
}

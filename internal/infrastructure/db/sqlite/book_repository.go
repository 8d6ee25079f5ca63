package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	"github.com/bookshelf/bookshelf-api/internal/core/domain"
	"github.com/bookshelf/bookshelf-api/internal/core/ports"
)

type BookRepository struct {
	db        *sql.DB
	writeLock *sync.Mutex
}

var _ ports.BookRepository = (*BookRepository)(nil)

func scanBook(row interface{ Scan(...any) error }) (*domain.Book, error) {
	var (
		b   domain.Book
		raw string
	)
	if err := row.Scan(&b.ID, &b.Title, &b.Author, &raw); err != nil {
		return nil, err
	}
	auth, err := decodeList(raw)
	if err != nil {
		return nil, err
	}
	b.Auth = auth
	return &b, nil
}

func (r *BookRepository) Get(ctx context.Context, id string) (*domain.Book, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	b, err := scanBook(r.db.QueryRowContext(ctx, "SELECT id, title, author, auth FROM books WHERE id = ?", id))
	if err != nil {
		return nil, translate("query book", err, domain.ErrNotFound)
	}
	return b, nil
}

// Find returns the books matching f. AuthorizedRole matches by exact
// membership in the auth list.
func (r *BookRepository) Find(ctx context.Context, f domain.BookFilter) ([]*domain.Book, error) {
	var (
		where []string
		args  []any
	)
	if f.AuthorizedRole != "" {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(books.auth) WHERE json_each.value = ?)")
		args = append(args, f.AuthorizedRole)
	}
	if f.Author != "" {
		where = append(where, "author = ?")
		args = append(args, f.Author)
	}

	query := "SELECT id, title, author, auth FROM books"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY rowid"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate("query books", err, domain.ErrNotFound)
	}
	defer rows.Close()

	books := []*domain.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, translate("scan book", err, domain.ErrNotFound)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("iterate books", err, domain.ErrNotFound)
	}
	return books, nil
}

func (r *BookRepository) Create(ctx context.Context, b *domain.Book) (*domain.Book, error) {
	auth, err := encodeList(b.Auth)
	if err != nil {
		return nil, translate("encode book", err, domain.ErrNotFound)
	}

	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	created := *b
	created.ID = newID()
	_, err = r.db.ExecContext(ctx,
		"INSERT INTO books (id, title, author, auth) VALUES (?, ?, ?, ?)",
		created.ID, created.Title, created.Author, auth,
	)
	if err != nil {
		return nil, translate("insert book", err, domain.ErrNotFound)
	}
	return &created, nil
}

func (r *BookRepository) Update(ctx context.Context, id string, p domain.BookPatch) error {
	if err := checkID(id); err != nil {
		return err
	}

	var set assignments
	if p.Title != nil {
		set.add("title", *p.Title)
	}
	if p.Author != nil {
		set.add("author", *p.Author)
	}
	if p.Auth != nil {
		auth, err := encodeList(*p.Auth)
		if err != nil {
			return translate("encode book", err, domain.ErrNotFound)
		}
		set.add("auth", auth)
	}
	if set.empty() {
		return nil
	}

	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	res, err := r.db.ExecContext(ctx,
		"UPDATE books SET "+strings.Join(set.cols, ", ")+" WHERE id = ?",
		append(set.args, id)...,
	)
	if err != nil {
		return translate("update book", err, domain.ErrNotFound)
	}
	return requireAffected(res, domain.ErrNotFound)
}

func (r *BookRepository) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}

	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	res, err := r.db.ExecContext(ctx, "DELETE FROM books WHERE id = ?", id)
	if err != nil {
		return translate("delete book", err, domain.ErrNotFound)
	}
	return requireAffected(res, domain.ErrNotFound)
}

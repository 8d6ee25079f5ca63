package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/bookshelf/bookshelf-api/internal/core/domain"
	"github.com/bookshelf/bookshelf-api/internal/core/ports"
)

type UserRepository struct {
	db        *sql.DB
	writeLock *sync.Mutex
	now       func() time.Time
}

var _ ports.UserRepository = (*UserRepository)(nil)

const userColumns = "id, username, password, email, role, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var (
		u                domain.User
		created, updated int64
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.Role, &created, &updated); err != nil {
		return nil, err
	}
	u.CreatedAt = unixToTime(created)
	u.UpdatedAt = unixToTime(updated)
	return &u, nil
}

func (r *UserRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	u, err := scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if err != nil {
		return nil, translate("query user", err, domain.ErrNotFound)
	}
	return u, nil
}

// Find returns every user matching f, oldest first.
func (r *UserRepository) Find(ctx context.Context, f domain.UserFilter) ([]*domain.User, error) {
	var (
		where []string
		args  []any
	)
	if f.Username != "" {
		where = append(where, "username = ?")
		args = append(args, f.Username)
	}
	if f.Email != "" {
		where = append(where, "email = ?")
		args = append(args, f.Email)
	}
	if f.Role != "" {
		where = append(where, "role = ?")
		args = append(args, f.Role)
	}

	query := "SELECT " + userColumns + " FROM users"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, rowid"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate("query users", err, domain.ErrNotFound)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, translate("scan user", err, domain.ErrNotFound)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("iterate users", err, domain.ErrNotFound)
	}
	return users, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	now := r.now().UTC().Truncate(time.Second)
	created := *user
	created.ID = newID()
	created.CreatedAt = now
	created.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		created.ID, created.Username, created.PasswordHash, created.Email, created.Role, now.Unix(), now.Unix(),
	)
	if err != nil {
		return nil, translate("insert user", err, domain.ErrNotFound)
	}
	return &created, nil
}

func (r *UserRepository) Update(ctx context.Context, id string, p domain.UserPatch) error {
	if err := checkID(id); err != nil {
		return err
	}

	var set assignments
	if p.PasswordHash != nil {
		set.add("password", *p.PasswordHash)
	}
	if p.Email != nil {
		set.add("email", *p.Email)
	}
	if p.Role != nil {
		set.add("role", *p.Role)
	}
	set.add("updated_at", r.now().Unix())

	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(set.cols, ", ")+" WHERE id = ?",
		append(set.args, id)...,
	)
	if err != nil {
		return translate("update user", err, domain.ErrNotFound)
	}
	return requireAffected(res, domain.ErrNotFound)
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}

	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return translate("delete user", err, domain.ErrNotFound)
	}
	return requireAffected(res, domain.ErrNotFound)
}

// requireAffected reports notFound when a write touched no rows.
func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return translate("rows affected", err, notFound)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

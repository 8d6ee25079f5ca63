package sqlite

import (
	"context"
	"database/sql"
	"sync"

	"github.com/bookshelf/bookshelf-api/internal/core/domain"
	"github.com/bookshelf/bookshelf-api/internal/core/ports"
)

type RoleRepository struct {
	db        *sql.DB
	writeLock *sync.Mutex
}

var _ ports.RoleRepository = (*RoleRepository)(nil)

func (r *RoleRepository) Get(ctx context.Context, name string) (*domain.Role, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, "SELECT capabilities FROM roles WHERE role = ?", name).Scan(&raw)
	if err != nil {
		return nil, translate("query role", err, domain.ErrRoleNotFound)
	}
	caps, err := decodeList(raw)
	if err != nil {
		return nil, translate("decode role "+name, err, domain.ErrRoleNotFound)
	}
	return &domain.Role{Name: name, Capabilities: caps}, nil
}

func (r *RoleRepository) List(ctx context.Context) ([]domain.Role, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT role, capabilities FROM roles ORDER BY role")
	if err != nil {
		return nil, translate("query roles", err, domain.ErrRoleNotFound)
	}
	defer rows.Close()

	roles := []domain.Role{}
	for rows.Next() {
		var name, raw string
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, translate("scan role", err, domain.ErrRoleNotFound)
		}
		caps, err := decodeList(raw)
		if err != nil {
			return nil, translate("decode role "+name, err, domain.ErrRoleNotFound)
		}
		roles = append(roles, domain.Role{Name: name, Capabilities: caps})
	}
	if err := rows.Err(); err != nil {
		return nil, translate("iterate roles", err, domain.ErrRoleNotFound)
	}
	return roles, nil
}

// Upsert creates the role or replaces its capability list.
func (r *RoleRepository) Upsert(ctx context.Context, role domain.Role) error {
	raw, err := encodeList(role.Capabilities)
	if err != nil {
		return translate("encode role "+role.Name, err, domain.ErrRoleNotFound)
	}

	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO roles (role, capabilities) VALUES (?, ?)
		ON CONFLICT(role) DO UPDATE SET capabilities = excluded.capabilities`,
		role.Name, raw,
	)
	if err != nil {
		return translate("upsert role", err, domain.ErrRoleNotFound)
	}
	return nil
}

func (r *RoleRepository) Delete(ctx context.Context, name string) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	res, err := r.db.ExecContext(ctx, "DELETE FROM roles WHERE role = ?", name)
	if err != nil {
		return translate("delete role", err, domain.ErrRoleNotFound)
	}
	return requireAffected(res, domain.ErrRoleNotFound)
}

// Package db selects and opens the configured credential store backend.
package db

import (
	"context"
	"fmt"

	"github.com/bookshelf/bookshelf-api/internal/core/ports"
	"github.com/bookshelf/bookshelf-api/internal/infrastructure/config"
	"github.com/bookshelf/bookshelf-api/internal/infrastructure/db/mongo"
	"github.com/bookshelf/bookshelf-api/internal/infrastructure/db/sqlite"
)

// Store exposes the repositories of whichever backend is configured.
type Store struct {
	Users ports.UserRepository
	Roles ports.RoleRepository
	Books ports.BookRepository

	name  string
	ping  func(context.Context) error
	close func(context.Context) error
}

// Open connects to the backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (*Store, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		s, err := mongo.Open(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		return &Store{
			Users: s.Users, Roles: s.Roles, Books: s.Books,
			name: "mongodb", ping: s.Ping, close: s.Close,
		}, nil

	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, sqlite.Config{Path: cfg.SQLite.Path})
		if err != nil {
			return nil, err
		}
		return &Store{
			Users: s.Users, Roles: s.Roles, Books: s.Books,
			name: "sqlite", ping: s.Ping, close: s.Close,
		}, nil
	}
	return nil, fmt.Errorf("db: unknown driver %q", cfg.Driver)
}

// Name identifies the backend in readiness reports.
func (s *Store) Name() string { return s.name }

func (s *Store) Ping(ctx context.Context) error { return s.ping(ctx) }

func (s *Store) Close(ctx context.Context) error { return s.close(ctx) }

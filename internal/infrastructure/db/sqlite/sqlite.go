package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/bookshelf/bookshelf-api/internal/core/domain"
)

// MemoryPath opens a private in-process database.
const MemoryPath = ":memory:"

// Config holds configuration for the SQLite store.
type Config struct {
	// Path is the database file, or MemoryPath.
	Path string
}

// Store bundles the repositories backed by one SQLite database.
type Store struct {
	db        *sql.DB
	writeLock *sync.Mutex // go-sqlite does not support concurrent writes

	Users *UserRepository
	Roles *RoleRepository
	Books *BookRepository
}

// Open opens (creating when needed) the database at cfg.Path and its schema.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if cfg.Path == MemoryPath {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if err := initializeDB(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize db: %w", err)
	}

	lock := new(sync.Mutex)
	return &Store{
		db:        db,
		writeLock: lock,
		Users:     &UserRepository{db: db, writeLock: lock, now: time.Now},
		Roles:     &RoleRepository{db: db, writeLock: lock},
		Books:     &BookRepository{db: db, writeLock: lock},
	}, nil
}

func initializeDB(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT    PRIMARY KEY,
			username   TEXT    UNIQUE NOT NULL,
			password   TEXT    NOT NULL,
			email      TEXT    NOT NULL DEFAULT '',
			role       TEXT    NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS roles (
			role         TEXT PRIMARY KEY,
			capabilities TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS books (
			id     TEXT PRIMARY KEY,
			title  TEXT NOT NULL,
			author TEXT NOT NULL DEFAULT '',
			auth   TEXT NOT NULL
		);
	`); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close(context.Context) error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// newID returns a random document id.
func newID() string {
	return uuid.NewString()
}

// checkID rejects ids this store could never have issued.
func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", domain.ErrInvalidID, id)
	}
	return nil
}

// translate maps driver errors onto domain sentinels.
func translate(op string, err error, notFound error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			err = errors.Join(domain.ErrDuplicateKey, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// encodeList stores a string list as a JSON array column.
func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeList(raw string) ([]string, error) {
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, err
	}
	return list, nil
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}

// assignments accumulates the SET clause of a partial update.
type assignments struct {
	cols []string
	args []any
}

func (a *assignments) add(col string, v any) {
	a.cols = append(a.cols, col+" = ?")
	a.args = append(a.args, v)
}

func (a *assignments) empty() bool {
	return len(a.cols) == 0
}

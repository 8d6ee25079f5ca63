package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookshelf/bookshelf-api/internal/core/domain"
	"github.com/bookshelf/bookshelf-api/internal/infrastructure/config"
)

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, config.StoreConfig{
		Driver: config.DriverSQLite,
		SQLite: config.SQLiteConfig{Path: ":memory:"},
	})
	require.NoError(t, err)
	defer s.Close(ctx)

	assert.Equal(t, "sqlite", s.Name())
	assert.NoError(t, s.Ping(ctx))

	require.NoError(t, s.Roles.Upsert(ctx, domain.Role{Name: "user", Capabilities: []string{"read"}}))
	role, err := s.Roles.Get(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, []string{"read"}, role.Capabilities)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "postgres"})
	assert.Error(t, err)
}

package mongo

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bookshelf/bookshelf-api/internal/core/domain"
)

func TestObjectID(t *testing.T) {
	oid := primitive.NewObjectID()

	got, err := objectID(oid.Hex())
	require.NoError(t, err)
	assert.Equal(t, oid, got)

	for _, bad := range []string{"", "123", "zzzzzzzzzzzzzzzzzzzzzzzz"} {
		_, err := objectID(bad)
		assert.ErrorIs(t, err, domain.ErrInvalidID, "input %q", bad)
		assert.Equal(t, "CastError", domain.Category(err))
	}
}

func TestTranslate(t *testing.T) {
	assert.ErrorIs(t, translate("find user", mongo.ErrNoDocuments, domain.ErrNotFound), domain.ErrNotFound)
	assert.ErrorIs(t, translate("find role", mongo.ErrNoDocuments, domain.ErrRoleNotFound), domain.ErrRoleNotFound)

	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	err := translate("insert user", dup, domain.ErrNotFound)
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)
	assert.Equal(t, "DuplicateKeyError", domain.Category(err))

	other := errors.New("server selection timeout")
	err = translate("insert user", other, domain.ErrNotFound)
	assert.ErrorIs(t, err, other)
	assert.Empty(t, domain.Category(err))
}

func TestUserDoc_RoundTrip(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	doc := userDoc{
		ID:        primitive.NewObjectID(),
		Username:  "alice",
		Password:  "$2a$10$hash",
		Email:     "alice@example.com",
		Role:      domain.RoleEditor,
		CreatedAt: created,
		UpdatedAt: created,
	}

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var fields bson.M
	require.NoError(t, bson.Unmarshal(raw, &fields))
	assert.Equal(t, "$2a$10$hash", fields["password"], "hash is stored under the password field")

	var decoded userDoc
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	user := decoded.toDomain()
	assert.Equal(t, doc.ID.Hex(), user.ID)
	assert.Equal(t, "$2a$10$hash", user.PasswordHash)
	assert.Equal(t, domain.RoleEditor, user.Role)
	assert.True(t, created.Equal(user.CreatedAt))
}

func TestBookDoc_OmitsEmptyID(t *testing.T) {
	raw, err := bson.Marshal(bookDoc{Title: "Dune", Auth: []string{"user"}})
	require.NoError(t, err)

	var fields bson.M
	require.NoError(t, bson.Unmarshal(raw, &fields))
	_, hasID := fields["_id"]
	assert.False(t, hasID, "driver must assign the id")
	assert.Equal(t, "Dune", fields["title"])
}

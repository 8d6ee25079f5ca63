package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bookshelf/bookshelf-api/internal/core/domain"
	"github.com/bookshelf/bookshelf-api/internal/core/ports"
)

const collectionRoles = "roles"

type RoleRepository struct {
	coll *mongo.Collection
}

var _ ports.RoleRepository = (*RoleRepository)(nil)

func NewRoleRepository(db *mongo.Database) *RoleRepository {
	return &RoleRepository{coll: db.Collection(collectionRoles)}
}

type roleDoc struct {
	Role         string   `bson:"role"`
	Capabilities []string `bson:"capabilities"`
}

func (r *RoleRepository) Get(ctx context.Context, name string) (*domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc roleDoc
	if err := r.coll.FindOne(ctx, bson.M{"role": name}).Decode(&doc); err != nil {
		return nil, translate("find role", err, domain.ErrRoleNotFound)
	}
	return &domain.Role{Name: doc.Role, Capabilities: doc.Capabilities}, nil
}

func (r *RoleRepository) List(ctx context.Context) ([]domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, translate("list roles", err, domain.ErrRoleNotFound)
	}
	var docs []roleDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate("decode roles", err, domain.ErrRoleNotFound)
	}

	roles := make([]domain.Role, 0, len(docs))
	for _, d := range docs {
		roles = append(roles, domain.Role{Name: d.Role, Capabilities: d.Capabilities})
	}
	return roles, nil
}

// Upsert creates the role or replaces its capability list.
func (r *RoleRepository) Upsert(ctx context.Context, role domain.Role) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	caps := role.Capabilities
	if caps == nil {
		caps = []string{}
	}
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"role": role.Name},
		bson.M{"$set": bson.M{"capabilities": caps}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return translate("upsert role", err, domain.ErrRoleNotFound)
	}
	return nil
}

func (r *RoleRepository) Delete(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"role": name})
	if err != nil {
		return translate("delete role", err, domain.ErrRoleNotFound)
	}
	if res.DeletedCount == 0 {
		return domain.ErrRoleNotFound
	}
	return nil
}

// EnsureIndexes creates the unique role name index.
func (r *RoleRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "role", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return translate("ensure role indexes", err, domain.ErrRoleNotFound)
	}
	return nil
}

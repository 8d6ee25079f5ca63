package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bookshelf/bookshelf-api/internal/core/domain"
	"github.com/bookshelf/bookshelf-api/internal/core/ports"
)

const collectionBooks = "books"

type BookRepository struct {
	coll *mongo.Collection
}

var _ ports.BookRepository = (*BookRepository)(nil)

func NewBookRepository(db *mongo.Database) *BookRepository {
	return &BookRepository{coll: db.Collection(collectionBooks)}
}

type bookDoc struct {
	ID     primitive.ObjectID `bson:"_id,omitempty"`
	Title  string             `bson:"title"`
	Author string             `bson:"author,omitempty"`
	Auth   []string           `bson:"auth"`
}

func (d bookDoc) toDomain() *domain.Book {
	return &domain.Book{ID: d.ID.Hex(), Title: d.Title, Author: d.Author, Auth: d.Auth}
}

func (r *BookRepository) Get(ctx context.Context, id string) (*domain.Book, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc bookDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translate("find book", err, domain.ErrNotFound)
	}
	return doc.toDomain(), nil
}

// Find returns the books matching f. AuthorizedRole matches by exact
// membership in the auth array.
func (r *BookRepository) Find(ctx context.Context, f domain.BookFilter) ([]*domain.Book, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.AuthorizedRole != "" {
		filter["auth"] = f.AuthorizedRole
	}
	if f.Author != "" {
		filter["author"] = f.Author
	}

	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, translate("find books", err, domain.ErrNotFound)
	}
	var docs []bookDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate("decode books", err, domain.ErrNotFound)
	}

	books := make([]*domain.Book, 0, len(docs))
	for _, d := range docs {
		books = append(books, d.toDomain())
	}
	return books, nil
}

func (r *BookRepository) Create(ctx context.Context, b *domain.Book) (*domain.Book, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bookDoc{Title: b.Title, Author: b.Author, Auth: b.Auth}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, translate("insert book", err, domain.ErrNotFound)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toDomain(), nil
}

func (r *BookRepository) Update(ctx context.Context, id string, p domain.BookPatch) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	set := bson.M{}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Author != nil {
		set["author"] = *p.Author
	}
	if p.Auth != nil {
		set["auth"] = *p.Auth
	}
	if len(set) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateByID(ctx, oid, bson.M{"$set": set})
	if err != nil {
		return translate("update book", err, domain.ErrNotFound)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *BookRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return translate("delete book", err, domain.ErrNotFound)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

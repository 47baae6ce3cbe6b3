package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/docflow/docflow/internal/apperr"
	"github.com/docflow/docflow/internal/document"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements Store on a MongoDB collection. Documents are keyed by
// their string id in _id; the version field backs the conditional save.
type MongoRepo struct {
	col *mongo.Collection
	now func() time.Time
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col, now: time.Now}
}

// EnsureIndexes creates the listing index. Safe to call on every start.
func (m *MongoRepo) EnsureIndexes(ctx context.Context) error {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "created", Value: 1}, {Key: "_id", Value: 1}}}
	if _, err := m.col.Indexes().CreateOne(ctx, idx); err != nil {
		return apperr.Store("create documents index", err)
	}
	return nil
}

func (m *MongoRepo) Insert(ctx context.Context, doc *document.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	doc.Version = 0
	doc.CreatedAt = m.now().UTC().Truncate(time.Millisecond)
	doc.UpdatedAt = doc.CreatedAt
	if _, err := m.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: document %s already exists", apperr.ErrConflict, doc.ID)
		}
		return apperr.Store("insert document", err)
	}
	return nil
}

func (m *MongoRepo) FindByID(ctx context.Context, id string) (*document.Document, bool, error) {
	var d document.Document
	if err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, apperr.Store("find document", err)
	}
	return &d, true, nil
}

func (m *MongoRepo) Save(ctx context.Context, doc *document.Document, expected int64) (*document.Document, error) {
	filter := bson.M{"_id": doc.ID, "version": expected}
	update := bson.M{
		"$set": bson.M{
			"title":   doc.Title,
			"body":    doc.Body,
			"editor":  doc.Editor,
			"status":  doc.Status,
			"updated": m.now().UTC().Truncate(time.Millisecond),
		},
		"$inc": bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var saved document.Document
	err := m.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved)
	if err == nil {
		return &saved, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.Store("save document", err)
	}
	// the filter missed: tell a stale version apart from a vanished document
	n, cerr := m.col.CountDocuments(ctx, bson.M{"_id": doc.ID})
	if cerr != nil {
		return nil, apperr.Store("count document", cerr)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: document %s", apperr.ErrNotFound, doc.ID)
	}
	return nil, fmt.Errorf("%w: document %s changed since version %d", apperr.ErrConflict, doc.ID, expected)
}

func (m *MongoRepo) FindPage(ctx context.Context, number, size int) ([]*document.Document, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(number) * int64(size)).
		SetLimit(int64(size))
	cur, err := m.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, apperr.Store("list documents", err)
	}
	defer cur.Close(ctx)
	out := []*document.Document{}
	for cur.Next(ctx) {
		var d document.Document
		if err := cur.Decode(&d); err != nil {
			return nil, apperr.Store("decode document", err)
		}
		out = append(out, &d)
	}
	if err := cur.Err(); err != nil {
		return nil, apperr.Store("list documents", err)
	}
	return out, nil
}

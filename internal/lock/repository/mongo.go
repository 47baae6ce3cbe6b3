package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/docflow/docflow/internal/apperr"
	"github.com/docflow/docflow/internal/lock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoRepo stores locks keyed by document id in _id, so the primary key
// index enforces one lock per document.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

func (r *MongoRepo) FindByDocumentID(ctx context.Context, documentID string) (*lock.Lock, bool, error) {
	var l lock.Lock
	if err := r.col.FindOne(ctx, bson.M{"_id": documentID}).Decode(&l); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, apperr.Store("find lock", err)
	}
	return &l, true, nil
}

func (r *MongoRepo) Insert(ctx context.Context, l *lock.Lock) (*lock.Lock, bool, error) {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	for i := 0; i < insertAttempts; i++ {
		_, err := r.col.InsertOne(ctx, l)
		if err == nil {
			out := *l
			return &out, true, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return nil, false, apperr.Store("insert lock", err)
		}
		cur, found, err := r.FindByDocumentID(ctx, l.DocumentID)
		if err != nil {
			return nil, false, err
		}
		if found {
			return cur, false, nil
		}
	}
	return nil, false, fmt.Errorf("%w: lock on %s is changing concurrently", apperr.ErrConflict, l.DocumentID)
}

func (r *MongoRepo) DeleteByDocumentID(ctx context.Context, documentID, owner string) (bool, error) {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": documentID, "owner": owner})
	if err != nil {
		return false, apperr.Store("delete lock", err)
	}
	return res.DeletedCount > 0, nil
}

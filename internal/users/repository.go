package users

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/docflow/docflow/internal/apperr"
	"github.com/docflow/docflow/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository defines persistence operations for users
type UserRepository interface {
	UpsertBySub(ctx context.Context, u *models.User) (*models.User, error)
	GetBySub(ctx context.Context, sub string) (*models.User, bool, error)
}

// MongoUserRepository implements UserRepository using MongoDB
type MongoUserRepository struct {
	col *mongo.Collection
}

func NewMongoUserRepository(col *mongo.Collection) *MongoUserRepository {
	return &MongoUserRepository{col: col}
}

func (r *MongoUserRepository) UpsertBySub(ctx context.Context, u *models.User) (*models.User, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"username": u.Username,
			"email":    u.Email,
			"name":     u.Name,
			"lastSeen": now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var updated models.User
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": u.Sub}, update, opts).Decode(&updated); err != nil {
		return nil, apperr.Store("upsert user", err)
	}
	return &updated, nil
}

func (r *MongoUserRepository) GetBySub(ctx context.Context, sub string) (*models.User, bool, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"_id": sub}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, apperr.Store("find user", err)
	}
	return &u, true, nil
}

// MemoryUserRepository keeps users in process; used when MongoDB is not configured.
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[string]models.User
	now   func() time.Time
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: map[string]models.User{}, now: func() time.Time { return time.Now().UTC() }}
}

func (r *MemoryUserRepository) UpsertBySub(_ context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	cur, ok := r.users[u.Sub]
	if !ok {
		cur = models.User{Sub: u.Sub, CreatedAt: now}
	}
	cur.Username, cur.Email, cur.Name, cur.LastSeen = u.Username, u.Email, u.Name, now
	r.users[u.Sub] = cur
	out := cur
	return &out, nil
}

func (r *MemoryUserRepository) GetBySub(_ context.Context, sub string) (*models.User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[sub]
	if !ok {
		return nil, false, nil
	}
	return &u, true, nil
}

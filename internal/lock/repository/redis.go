package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/docflow/docflow/internal/apperr"
	"github.com/docflow/docflow/internal/lock"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock key only when the stored owner matches.
var releaseScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then
  return 0
end
local l = cjson.decode(v)
if l['owner'] ~= ARGV[1] then
  return 0
end
redis.call('DEL', KEYS[1])
return 1
`)

// RedisRepo stores each lock as JSON under "<prefix><documentId>" with no
// TTL; locks live until released.
type RedisRepo struct {
	client *redis.Client
	prefix string
}

// NewRedisRepo creates a Redis-backed lock store. Prefix may be empty.
func NewRedisRepo(client *redis.Client, prefix string) *RedisRepo {
	if prefix == "" {
		prefix = "lock:"
	}
	return &RedisRepo{client: client, prefix: prefix}
}

func (r *RedisRepo) key(documentID string) string {
	return r.prefix + documentID
}

func (r *RedisRepo) FindByDocumentID(ctx context.Context, documentID string) (*lock.Lock, bool, error) {
	b, err := r.client.Get(ctx, r.key(documentID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, apperr.Store("get lock", err)
	}
	var l lock.Lock
	if err := json.Unmarshal(b, &l); err != nil {
		return nil, false, apperr.Store("decode lock", err)
	}
	return &l, true, nil
}

func (r *RedisRepo) Insert(ctx context.Context, l *lock.Lock) (*lock.Lock, bool, error) {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, false, err
	}
	for i := 0; i < insertAttempts; i++ {
		ok, err := r.client.SetNX(ctx, r.key(l.DocumentID), b, 0).Result()
		if err != nil {
			return nil, false, apperr.Store("set lock", err)
		}
		if ok {
			out := *l
			return &out, true, nil
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

func (r *RedisRepo) DeleteByDocumentID(ctx context.Context, documentID, owner string) (bool, error) {
	n, err := releaseScript.Run(ctx, r.client, []string{r.key(documentID)}, owner).Int()
	if err != nil {
		return false, apperr.Store("release lock", err)
	}
	return n == 1, nil
}

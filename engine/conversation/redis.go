package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces conversation keys in Redis.
const KeyPrefix = "sales:conversation:"

// RedisStore keeps each conversation as one JSON value. A zero TTL keeps
// values forever.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisStore returns a store using client.
func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Load(ctx context.Context, userID string) (*State, error) {
	raw, err := r.client.Get(ctx, KeyPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis store: load %s: %w", userID, err)
	}
	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("redis store: decode %s: %w", userID, err)
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *State) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("redis store: encode %s: %w", s.UserID, err)
	}
	if err := r.client.Set(ctx, KeyPrefix+s.UserID, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis store: save %s: %w", s.UserID, err)
	}
	return nil
}

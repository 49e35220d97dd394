package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisEnvelope carries the write timestamp alongside the payload so Get can
// enforce a reader-side maxAge window on top of the Redis-native TTL.
type redisEnvelope struct {
	At   int64  `json:"at"` // unix millis
	Data []byte `json:"d"`
}

type redisStore struct {
	client    *redis.Client
	namespace string
}

// NewRedisStore wraps a Redis client as a Store. All keys are namespaced so
// Clear and prefix invalidation never touch unrelated keys in the same DB.
func NewRedisStore(client *redis.Client, namespace string) Store {
	if namespace == "" {
		namespace = "cache"
	}
	return &redisStore{client: client, namespace: namespace + ":"}
}

func (s *redisStore) Get(ctx context.Context, key string, maxAge time.Duration) ([]byte, bool) {
	raw, err := s.client.Get(ctx, s.namespace+key).Bytes()
	if err != nil {
		return nil, false
	}
	var env redisEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, false
	}
	if maxAge > 0 && time.Since(time.UnixMilli(env.At)) >= maxAge {
		return nil, false
	}
	return env.Data, true
}

func (s *redisStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	raw, err := json.Marshal(redisEnvelope{At: time.Now().UnixMilli(), Data: data})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.namespace+key, raw, ttl).Err()
}

func (s *redisStore) Invalidate(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.namespace+key).Err()
}

func (s *redisStore) InvalidateByPrefix(ctx context.Context, prefix string) error {
	return s.deleteByPattern(ctx, s.namespace+prefix+"*")
}

func (s *redisStore) Clear(ctx context.Context) error {
	return s.deleteByPattern(ctx, s.namespace+"*")
}

func (s *redisStore) deleteByPattern(ctx context.Context, pattern string) error {
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= 100 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) > 0 {
		return s.client.Del(ctx, keys...).Err()
	}
	return nil
}

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-table-booking/internal/redisx"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one namespace per device so several clients can share a
// Redis instance.
type RedisStore struct {
	rdb    *redis.Client
	device string
	ttl    time.Duration // 0 = no expiry
}

func NewRedisStore(rdb *redis.Client, deviceID string, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, device: deviceID, ttl: ttl}
}

func (s *RedisStore) key(k string) string {
	return fmt.Sprintf(redisx.KeySession, s.device, k)
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return v, err
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	return s.rdb.Set(ctx, s.key(key), value, s.ttl).Err()
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.key(key)).Err()
}

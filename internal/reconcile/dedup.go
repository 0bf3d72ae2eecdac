package reconcile

import (
	"context"
	"fmt"

	"github.com/ariefcatur/go-table-booking/internal/redisx"
	"github.com/redis/go-redis/v9"
)

// Deduper remembers processed event ids. It is a fast path only; the
// snapshot table is keyed by event id as well.
type Deduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

type RedisDeduper struct {
	rdb     *redis.Client
	service string
}

func NewRedisDeduper(rdb *redis.Client, service string) *RedisDeduper {
	return &RedisDeduper{rdb: rdb, service: service}
}

func (d *RedisDeduper) key(eventID string) string {
	return fmt.Sprintf(redisx.KeyDedup, d.service, eventID)
}

func (d *RedisDeduper) Seen(ctx context.Context, eventID string) (bool, error) {
	return redisx.Exists(ctx, d.rdb, d.key(eventID))
}

func (d *RedisDeduper) Mark(ctx context.Context, eventID string) error {
	return d.rdb.Set(ctx, d.key(eventID), "1", redisx.TTLDedup).Err()
}

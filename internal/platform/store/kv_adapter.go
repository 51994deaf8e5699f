package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// KV is the key value seam backing shared caches
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// redisKV adapts a go-redis client to KV
type redisKV struct {
	c redis.UniversalClient
}

// NewRedisKV wraps c as a KV
func NewRedisKV(c redis.UniversalClient) KV { return &redisKV{c: c} }

var _ KV = (*redisKV)(nil)

func (r *redisKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *redisKV) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return r.c.Set(ctx, key, val, ttl).Err()
}

func (r *redisKV) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.c.Del(ctx, keys...).Err()
}

func (r *redisKV) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }

func (r *redisKV) Close() error { return r.c.Close() }

// Package cache provides keyed caches with an injectable eviction policy
// A cache is an explicit object handed to whoever needs it, never package state
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	perr "uwhatgov/internal/platform/errors"
	"uwhatgov/internal/platform/store"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache is the read through surface services depend on
type Cache[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool, error)
	Set(ctx context.Context, key K, val V) error
	Delete(ctx context.Context, key K) error
}

// Policy decides what an in memory cache keeps
// lru.Cache and expirable.LRU both satisfy it
type Policy[K comparable, V any] interface {
	Get(key K) (V, bool)
	Add(key K, val V) bool
	Remove(key K) bool
	Len() int
}

// LRU evicts the least recently used entry past size
func LRU[K comparable, V any](size int) (Policy[K, V], error) {
	c, err := lru.New[K, V](size)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "lru cache")
	}
	return c, nil
}

// TTL expires entries ttl after they were set and caps the cache at size
// size zero means no cap
func TTL[K comparable, V any](size int, ttl time.Duration) (Policy[K, V], error) {
	if ttl <= 0 {
		return nil, perr.InvalidArgf("ttl must be positive")
	}
	return expirable.NewLRU[K, V](size, nil, ttl), nil
}

// Memory is a process local cache driven by a Policy
type Memory[K comparable, V any] struct {
	p Policy[K, V]
}

// NewMemory wraps a policy
func NewMemory[K comparable, V any](p Policy[K, V]) *Memory[K, V] {
	return &Memory[K, V]{p: p}
}

func (m *Memory[K, V]) Get(_ context.Context, key K) (V, bool, error) {
	v, ok := m.p.Get(key)
	return v, ok, nil
}

func (m *Memory[K, V]) Set(_ context.Context, key K, val V) error {
	m.p.Add(key, val)
	return nil
}

func (m *Memory[K, V]) Delete(_ context.Context, key K) error {
	m.p.Remove(key)
	return nil
}

// Len reports the live entry count
func (m *Memory[K, V]) Len() int { return m.p.Len() }

// Redis stores JSON encoded values in a shared key value store
type Redis[V any] struct {
	kv     store.KV
	prefix string
	ttl    time.Duration
}

// NewRedis builds a redis backed cache, keys are namespaced by prefix
func NewRedis[V any](kv store.KV, prefix string, ttl time.Duration) *Redis[V] {
	return &Redis[V]{kv: kv, prefix: prefix, ttl: ttl}
}

func (r *Redis[V]) key(k string) string { return r.prefix + k }

func (r *Redis[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	b, ok, err := r.kv.Get(ctx, r.key(key))
	if err != nil || !ok {
		return zero, false, err
	}
	var v V
	if err := json.Unmarshal(b, &v); err != nil {
		// a stale or foreign value is a miss, the caller reloads and overwrites it
		return zero, false, nil
	}
	return v, true, nil
}

func (r *Redis[V]) Set(ctx context.Context, key string, val V) error {
	b, err := json.Marshal(val)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "encode cache value")
	}
	return r.kv.Set(ctx, r.key(key), b, r.ttl)
}

func (r *Redis[V]) Delete(ctx context.Context, key string) error {
	return r.kv.Del(ctx, r.key(key))
}

// Config selects a backend
type Config struct {
	Backend  string // memory or redis
	Capacity int
	TTL      time.Duration
	Prefix   string
}

// New builds a string keyed cache from cfg
// a zero ttl with the memory backend means pure LRU
func New[V any](cfg Config, kv store.KV) (Cache[string, V], error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		size := cfg.Capacity
		if size <= 0 {
			size = 256
		}
		if cfg.TTL > 0 {
			p, err := TTL[string, V](size, cfg.TTL)
			if err != nil {
				return nil, err
			}
			return NewMemory(p), nil
		}
		p, err := LRU[string, V](size)
		if err != nil {
			return nil, err
		}
		return NewMemory(p), nil
	case "redis":
		if kv == nil {
			return nil, perr.InvalidArgf("redis cache needs a redis store")
		}
		return NewRedis[V](kv, cfg.Prefix, cfg.TTL), nil
	}
	return nil, perr.InvalidArgf("unknown cache backend %q", cfg.Backend)
}

// GetOrLoad reads key from c and falls back to load on a miss
// loaded values are written back, load errors are not cached
// a failing cache read is treated as a miss
func GetOrLoad[K comparable, V any](ctx context.Context, c Cache[K, V], key K, load func(context.Context, K) (V, error)) (V, error) {
	if v, ok, err := c.Get(ctx, key); err == nil && ok {
		return v, nil
	}
	v, err := load(ctx, key)
	if err != nil {
		return v, err
	}
	_ = c.Set(ctx, key, v)
	return v, nil
}

package store

import (
	"context"
	"fmt"
	"time"

	chx "uwhatgov/internal/platform/store/ch"
	"uwhatgov/internal/platform/store/pg"
	"uwhatgov/internal/platform/store/rds"
)

// openPG opens the pool and hands out the adapter once the pool answers a ping
func openPG(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	var logged pg.QueryTracer
	if cfg.PG.LogSQL {
		logged = pg.Tracer(s.Log)
	}

	p, err := pg.Open(ctx, pg.Config{
		URL:      cfg.PG.URL,
		AppName:  cfg.AppName,
		MaxConns: cfg.PG.MaxConns,
		SlowMs:   cfg.PG.SlowQueryMs,
	}, pg.Chain(pg.Spans(), logged), nil)
	if err != nil {
		return nil, err
	}

	if err := pingUntilReady(ctx, p, cfg.PG); err != nil {
		p.Close()
		return nil, err
	}
	a := newPGAdapter(p)
	s.PG = a
	return a, nil
}

// pingUntilReady pings the pool directly so boot pings stay out of the query trace
func pingUntilReady(ctx context.Context, p *pg.PG, cfg PGConfig) error {
	const (
		backoffStart   = 150 * time.Millisecond
		backoffCeiling = 2 * time.Second
	)
	attempts := cfg.ConnectRetries
	if attempts <= 0 {
		attempts = 20
	}
	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	var last error
	wait := backoffStart
	for range attempts {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		last = p.Pool.Ping(pctx)
		cancel()
		if last == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait = min(wait*2, backoffCeiling)
	}
	return fmt.Errorf("postgres ping failed after %d attempts: %w", attempts, last)
}

func openCH(ctx context.Context, cfg Config, s *Store) (Clickhouse, error) {
	role := cfg.CH.Role
	if role == "" {
		role = cfg.AppName
	}
	c, err := chx.Open(ctx, chx.Config{URL: cfg.CH.URL, Role: role, Tag: cfg.CH.Tag})
	if err != nil {
		return nil, err
	}
	s.Log.Info().Str("role", role).Msg("clickhouse connected")
	return newCHAdapter(c), nil
}

func openRedis(ctx context.Context, cfg Config, s *Store) (KV, error) {
	c, err := rds.Open(ctx, rds.Config{
		URL:      cfg.Redis.URL,
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info().Int("db", c.Options().DB).Msg("redis connected")
	return NewRedisKV(c), nil
}

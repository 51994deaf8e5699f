// Package rds opens a redis client
package rds

import (
	"context"
	"time"

	perr "uwhatgov/internal/platform/errors"

	"github.com/redis/go-redis/v9"
)

// Config configures the redis client
// URL wins over Addr when both are set
type Config struct {
	URL      string
	Addr     string
	Password string
	DB       int
}

// Options turns Config into go-redis options
func Options(cfg Config) (*redis.Options, error) {
	if cfg.URL != "" {
		o, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "parse redis url")
		}
		return o, nil
	}
	if cfg.Addr == "" {
		return nil, perr.InvalidArgf("redis addr or url is required")
	}
	return &redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}, nil
}

// Open connects and pings
func Open(ctx context.Context, cfg Config) (*redis.Client, error) {
	o, err := Options(cfg)
	if err != nil {
		return nil, err
	}
	c := redis.NewClient(o)
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Ping(pctx).Err(); err != nil {
		_ = c.Close()
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "ping redis")
	}
	return c, nil
}

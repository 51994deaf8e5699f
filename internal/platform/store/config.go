package store

import (
	"time"

	"uwhatgov/internal/platform/logger"
)

// Config selects and configures the backends Open connects to
// postgres is required by the API, clickhouse analytics and the redis cache are optional
type Config struct {
	AppName string

	PG    PGConfig
	CH    CHConfig
	Redis RedisConfig
}

// PGConfig configures the debates and rewrites database
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	// ConnectRetries and PingTimeout bound the boot ping loop, 20 and 3s when zero
	ConnectRetries int
	PingTimeout    time.Duration
}

// CHConfig configures the rewrite_runs analytics sink
type CHConfig struct {
	Enabled bool
	URL     string
	Role    string
	Tag     string
}

// RedisConfig configures the shared debate cache, URL wins over Addr
type RedisConfig struct {
	Enabled  bool
	URL      string
	Addr     string
	Password string
	DB       int
}

// Option mutates Store during Open
type Option func(*Store) error

// WithLogger sets the logger handed to the postgres tracer and the backends
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.Log = log
		return nil
	}
}

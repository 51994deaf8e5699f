// Package logger holds the process root zerolog logger and the context fields
// every request and stream log line carries
package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"uwhatgov/internal/platform/config/raw"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Options configures the root logger
type Options struct {
	Level      string
	Format     string
	Service    string
	Writer     io.Writer
	WithCaller bool
}

// FromEnv reads LOG_LEVEL, LOG_FORMAT, LOG_SERVICE and LOG_CALLER through raw, config itself logs
func FromEnv() Options {
	rc := raw.New().Prefix("LOG_")
	return Options{
		Level:      rc.Get("LEVEL", "debug"),
		Format:     strings.ToLower(rc.Get("FORMAT", "console")),
		Service:    rc.Get("SERVICE", ""),
		WithCaller: rc.GetBool("CALLER", false),
	}
}

var (
	once sync.Once
	root atomic.Pointer[zerolog.Logger]
)

// Logger is the logging type used across the module
type Logger = zerolog.Logger

// Get returns the root logger, built from the environment on first use
func Get() *Logger {
	Init(FromEnv())
	return root.Load()
}

// Init builds the root logger, only the first call has any effect
func Init(opt Options) {
	once.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano

		var w io.Writer = os.Stdout
		if opt.Writer != nil {
			w = opt.Writer
		}
		if opt.Format == "console" {
			w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		}

		ctx := zerolog.New(w).Level(parseLevel(opt.Level)).With().Timestamp()
		if bi, ok := debug.ReadBuildInfo(); ok {
			ctx = ctx.Str("go_version", bi.GoVersion)
		}
		if opt.Service != "" {
			ctx = ctx.Str("service", opt.Service)
		}
		if opt.WithCaller {
			ctx = ctx.Caller()
		}
		log := ctx.Logger()
		root.Store(&log)
	})
}

// parseLevel falls back to debug for blank or unknown names
func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.DebugLevel
	}
	return lvl
}

type ctxKey struct{ name string }

var (
	keyRequestID = ctxKey{"req_id"}
	keySessionID = ctxKey{"session_id"}
	keyStreamID  = ctxKey{"stream_id"}
	keyDebateID  = ctxKey{"debate_id"}
)

// WithRequest annotates ctx with common request-scoped fields
// sessionID is the client supplied watch session, empty for ordinary API calls
func WithRequest(ctx context.Context, reqID, sessionID string) context.Context {
	ctx = with(ctx, keyRequestID, reqID)
	return with(ctx, keySessionID, sessionID)
}

// WithStream annotates ctx with the rewrite stream being served
func WithStream(ctx context.Context, streamID, debateID string) context.Context {
	ctx = with(ctx, keyStreamID, streamID)
	return with(ctx, keyDebateID, debateID)
}

func with(ctx context.Context, k ctxKey, v string) context.Context {
	if v == "" {
		return ctx
	}
	return context.WithValue(ctx, k, v)
}

var ctxFields = []struct {
	key   ctxKey
	field string
}{
	{keyRequestID, "request_id"},
	{keySessionID, "session_id"},
	{keyStreamID, "stream_id"},
	{keyDebateID, "debate_id"},
}

// C returns a child logger enriched from ctx (request, session, stream and debate ids)
func C(ctx context.Context) *Logger {
	builder := Get().With()
	for _, f := range ctxFields {
		if s, ok := ctx.Value(f.key).(string); ok && s != "" {
			builder = builder.Str(f.field, s)
		}
	}
	ll := builder.Logger()
	return &ll
}

// Named returns a child logger with a component field
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	ll := Get().With().Str("component", component).Logger()
	return &ll
}

// @title         uwhatgov API
// @version       0.1.0
// @description   Debate sittings, rewrite streams and stored rewrites
// @BasePath      /api/v1

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"uwhatgov/internal/core/version"
	"uwhatgov/internal/platform/config"
	"uwhatgov/internal/platform/logger"
	phttp "uwhatgov/internal/platform/net/http"
	"uwhatgov/internal/platform/store"
	"uwhatgov/internal/platform/telemetry"

	"uwhatgov/internal/services/api"

	"github.com/go-chi/chi/v5"
)

const shutdownGrace = 10 * time.Second

func main() {
	// .env first so LOG_* and everything below can come from it
	dotenvErr := config.LoadDotenv()
	l := logger.Get()
	if dotenvErr != nil {
		l.Warn().Err(dotenvErr).Msg("ignoring unreadable .env")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := config.New()
	apiCfg := root.Prefix("CORE_API_")
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")
	kvCfg := root.Prefix("SERVICE_REDIS_")
	otelCfg := root.Prefix("OTEL_")

	tel, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:       otelCfg.MayString("ENDPOINT", ""),
		Headers:        otelCfg.MayString("HEADERS", ""),
		ServiceName:    otelCfg.MayString("SERVICE_NAME", "uwhatgov-api"),
		ServiceVersion: version.Info().Version,
	})
	if err != nil {
		l.Panic().Err(err).Msg("telemetry setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := tel.Shutdown(sctx); err != nil {
			l.Error().Err(err).Msg("telemetry shutdown")
		}
	}()

	// open the platform store; clickhouse analytics and the redis cache are optional
	st, err := store.Open(
		ctx,
		store.Config{
			AppName: "uwhatgov-api",
			PG: store.PGConfig{
				Enabled:     true,
				URL:         pgCfg.MustString("DBURL"),
				MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 8)),
				SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
				LogSQL:      pgCfg.MayBool("LOG_SQL", false),
			},
			CH: store.CHConfig{
				Enabled: chCfg.MayBool("ENABLED", false),
				URL:     chCfg.MayString("DBURL", ""),
				Role:    "api",
				Tag:     "stream",
			},
			Redis: store.RedisConfig{
				Enabled:  kvCfg.MayBool("ENABLED", false),
				URL:      kvCfg.MayString("URL", ""),
				Addr:     kvCfg.MayString("ADDR", ""),
				Password: kvCfg.MayString("PASSWORD", ""),
				DB:       kvCfg.MayInt("DB", 0),
			},
		},
		store.WithLogger(*logger.Get()),
	)
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	if err := st.Guard(ctx); err != nil {
		l.Panic().Err(err).Msg("store guard failed")
	}

	if apiCfg.MayBool("BOOTSTRAP_SCHEMA", true) {
		if err := api.Bootstrap(ctx, st); err != nil {
			l.Panic().Err(err).Msg("schema bootstrap failed")
		}
	}

	// http server (reads CORE_API_API_PORT), traced when OTEL_ENDPOINT is set
	srv := phttp.NewServer(apiCfg, func(m *chi.Mux) {
		m.Use(telemetry.Middleware("uwhatgov-api"))
	})

	err = api.Mount(ctx, srv.Router(), api.Options{
		Config:         root,
		Store:          st,
		Logger:         l,
		EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
		EnableProfiler: apiCfg.MayBool("PROFILER", false),
	})
	if err != nil {
		l.Panic().Err(err).Msg("api mount failed")
	}

	if err := srv.Run(ctx); err != nil {
		l.Error().Err(err).Msg("http server stopped")
	}
	l.Info().Msg("shut down")
}

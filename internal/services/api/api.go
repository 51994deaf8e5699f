// Package api provides the HTTP API for the application
package api

import (
	"context"

	"uwhatgov/internal/core/version"
	"uwhatgov/internal/platform/config"
	perr "uwhatgov/internal/platform/errors"
	"uwhatgov/internal/platform/logger"
	phttp "uwhatgov/internal/platform/net/http"
	"uwhatgov/internal/platform/store"

	"uwhatgov/internal/modkit"
	"uwhatgov/internal/modkit/httpkit"
	"uwhatgov/internal/modkit/module"
	"uwhatgov/internal/modkit/swaggerkit"

	debatesmod "uwhatgov/internal/services/api/debates/module"
	metahttp "uwhatgov/internal/services/api/meta/http"
	metamod "uwhatgov/internal/services/api/meta/module"
	rewritesmod "uwhatgov/internal/services/api/rewrites/module"
	streammod "uwhatgov/internal/services/api/stream/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool
}

// Mount mounts the API service onto the given router
// request/response modules share CommonStack; the stream module gets StreamStack in its own group
func Mount(ctx context.Context, r phttp.Router, opt Options) error {
	if opt.Store == nil || opt.Store.PG == nil {
		return perr.InvalidArgf("api requires postgres (SERVICE_PGSQL_ENABLED)")
	}

	// shared deps for modules
	deps := modkit.Deps{
		Log: opt.Logger,
		Cfg: opt.Config,
		PG:  opt.Store.PG,
		CH:  opt.Store.CH,
		KV:  opt.Store.KV,
	}

	debates, err := debatesmod.New(deps)
	if err != nil {
		return err
	}
	debatesPorts := module.MustPortsOf[debatesmod.Ports](debates)

	streamOpts := streammod.FromConfig(deps.Cfg)
	stream, err := streammod.New(ctx, deps, streamOpts,
		modkit.WithPorts(streammod.Ports{Debates: debatesPorts.Debates}),
	)
	if err != nil {
		return err
	}

	meta := metamod.New(deps, modkit.WithPorts(metamod.Ports{Stream: metahttp.StreamInfo{
		Provider:  streamOpts.Upstream.Provider,
		Model:     streamOpts.Upstream.Model,
		Narrator:  streamOpts.Narrator,
		Heartbeat: int64(streamOpts.Heartbeat.Seconds()),
	}}))

	mods := []module.Module{
		meta,
		debates,
		rewritesmod.New(deps),
	}
	streams := []module.Module{stream}

	swaggerkit.Mount(r, opt.EnableSwagger, "uwhatgov API", version.Info().Version)
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

	httpkit.MountAPIV1(r, nil, func(api httpkit.Router) {
		api.Group(func(g httpkit.Router) {
			g.Use(httpkit.CommonStack()...)
			for _, m := range mods {
				// register each module's ports under its own name (for cross-module lookups)
				module.Register(m.Name(), m.Ports())
				m.MountRoutes(g)
			}
		})
		api.Group(func(g httpkit.Router) {
			g.Use(httpkit.StreamStack(streamOpts.MaxStreams)...)
			for _, m := range streams {
				module.Register(m.Name(), m.Ports())
				m.MountRoutes(g)
			}
		})
	})
	return nil
}

// Package module wires rewrites into the API using modkit
package module

import (
	"time"

	modkit "uwhatgov/internal/modkit"
	"uwhatgov/internal/modkit/httpkit"
	"uwhatgov/internal/modkit/repokit"
	"uwhatgov/internal/services/api/rewrites/domain"
	rewriteshttp "uwhatgov/internal/services/api/rewrites/http"
	rewritesrepo "uwhatgov/internal/services/api/rewrites/repo"
	rewritessvc "uwhatgov/internal/services/api/rewrites/service"
)

// Ports is what other modules may use from rewrites
type Ports struct {
	Rewrites domain.ServicePort
}

// New constructs the rewrites module
// every write transaction is labelled and capped by CORE_REWRITES_WRITE_TIMEOUT
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build("rewrites", "/rewrites", opts...)
	db := repokit.WithBeginHooks(deps.PG,
		repokit.ApplicationName("uwhatgov-rewrites"),
		repokit.StatementTimeout(deps.Cfg.Prefix("CORE_REWRITES_").MayDuration("WRITE_TIMEOUT", 5*time.Second)),
	)
	svc := rewritessvc.New(db, rewritesrepo.NewPG())

	return b.Module(Ports{Rewrites: svc}, func(r httpkit.Router) {
		rewriteshttp.Register(r, svc)
	})
}

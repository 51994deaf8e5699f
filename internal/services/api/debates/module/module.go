// Package module wires debates into the API using modkit
package module

import (
	modkit "uwhatgov/internal/modkit"
	"uwhatgov/internal/modkit/httpkit"
	"uwhatgov/internal/platform/cache"
	"uwhatgov/internal/services/api/debates/domain"
	debateshttp "uwhatgov/internal/services/api/debates/http"
	debatesrepo "uwhatgov/internal/services/api/debates/repo"
	debatessvc "uwhatgov/internal/services/api/debates/service"
)

// Ports is what other modules may use from debates
type Ports struct {
	Debates domain.ServicePort
}

// New constructs the debates module
// the cache is built from CORE_CACHE_ settings and shared with the stream module through Ports
func New(deps modkit.Deps, opts ...modkit.Option) (modkit.Module, error) {
	b := modkit.Build("debates", "/debates", opts...)

	c, err := cache.New[domain.Debate](FromConfig(deps.Cfg), deps.KV)
	if err != nil {
		return nil, err
	}
	svc := debatessvc.New(deps.PG, debatesrepo.NewPG(), c)

	return b.Module(Ports{Debates: svc}, func(r httpkit.Router) {
		debateshttp.Register(r, svc)
	}), nil
}

// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"time"

	modkit "uwhatgov/internal/modkit"
	"uwhatgov/internal/modkit/httpkit"
	registry "uwhatgov/internal/modkit/module"

	metahttp "uwhatgov/internal/services/api/meta/http"
)

// ServiceName is reported by the health and service endpoints
const ServiceName = "uwhatgov-api"

// Ports carries optional injected info
type Ports struct {
	Stream metahttp.StreamInfo
}

// New constructs the meta module, Ports may carry the stream settings to report
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build("meta", "/meta", opts...)
	d := metahttp.Deps{
		ServiceName: ServiceName,
		StartedAt:   time.Now(),
		Checks:      Checks(deps),
		Stream:      modkit.Injected[Ports](b).Stream,
		Modules:     registry.Names,
	}
	return b.Module(nil, func(r httpkit.Router) { metahttp.Register(r, d) })
}

// Checks lists the readiness checks for every store seam in deps
// seams that are nil or cannot ping are reported as skipped
func Checks(deps modkit.Deps) []metahttp.Check {
	seams := []struct {
		name string
		seam any
	}{
		{"pg", deps.PG},
		{"ch", deps.CH},
		{"redis", deps.KV},
	}
	out := make([]metahttp.Check, 0, len(seams))
	for _, s := range seams {
		c := metahttp.Check{Name: s.name}
		if p, ok := s.seam.(metahttp.Pinger); ok {
			c.Pinger = p
		}
		out = append(out, c)
	}
	return out
}

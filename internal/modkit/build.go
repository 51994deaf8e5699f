package modkit

import (
	"net/http"

	"uwhatgov/internal/modkit/httpkit"
	str "uwhatgov/internal/platform/strings"
)

// Built is the resolved configuration of one module
type Built struct {
	Name   string
	Prefix string
	Mw     []func(http.Handler) http.Handler
	Ports  any
	Group  bool

	extra []func(httpkit.Router)
}

// Build resolves opts over the module's own name and prefix
func Build(name, prefix string, opts ...Option) Built {
	c := buildCfg{name: name, prefix: prefix}
	for _, o := range opts {
		o(&c)
	}
	return Built{
		Name:   c.name,
		Prefix: c.prefix,
		Mw:     append([]func(http.Handler) http.Handler(nil), c.mw...),
		Ports:  c.ports,
		Group:  c.group,
		extra:  c.extra,
	}
}

// Injected returns the ports handed in with WithPorts when they are a T
func Injected[T any](b Built) T {
	v, _ := b.Ports.(T)
	return v
}

// Module pairs b with the ports the module exports and the routes it registers
func (b Built) Module(ports any, routes func(httpkit.Router)) *Base {
	return &Base{b: b, ports: ports, routes: routes}
}

// Base implements Module, concrete modules embed it
type Base struct {
	b      Built
	ports  any
	routes func(httpkit.Router)
}

// MountRoutes mounts the module under its prefix, or in a group when built WithGroup
func (m *Base) MountRoutes(r httpkit.Router) {
	mount := func(rr httpkit.Router) {
		if len(m.b.Mw) > 0 {
			rr.Use(m.b.Mw...)
		}
		if m.routes != nil {
			m.routes(rr)
		}
		for _, fn := range m.b.extra {
			fn(rr)
		}
	}
	if m.b.Group {
		r.Group(mount)
		return
	}
	r.Route(m.Prefix(), mount)
}

// Name returns the module name, panicking when it was never set
func (m *Base) Name() string { return str.MustString(m.b.Name, "module name") }

// Prefix returns the normalized mount path
func (m *Base) Prefix() string { return str.MustPrefix(m.b.Prefix) }

// Ports returns the exported port set
func (m *Base) Ports() any { return m.ports }

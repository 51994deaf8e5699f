package modkit

import (
	"net/http"

	"uwhatgov/internal/modkit/httpkit"
)

// Option mutates build configuration for a module
type Option func(*buildCfg)

type buildCfg struct {
	name   string
	prefix string
	mw     []func(http.Handler) http.Handler
	ports  any
	group  bool
	extra  []func(httpkit.Router)
}

// WithName overrides the module name used in logs and the registry
func WithName(name string) Option {
	return func(c *buildCfg) { c.name = name }
}

// WithPrefix overrides the path the module mounts under
func WithPrefix(prefix string) Option {
	return func(c *buildCfg) { c.prefix = prefix }
}

// WithMiddlewares attaches per module middleware in order
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(c *buildCfg) { c.mw = append(c.mw, mw...) }
}

// WithPorts injects ports the module needs from elsewhere
// the concrete type is owned by the receiving module
func WithPorts[T any](p T) Option {
	return func(c *buildCfg) { c.ports = p }
}

// WithGroup mounts the module in a group on the parent router instead of a prefixed subrouter
// routes then spell out the prefix, letting two modules share one path segment
func WithGroup() Option {
	return func(c *buildCfg) { c.group = true }
}

// WithRoutes registers additional routes next to the module's own
func WithRoutes(fn func(httpkit.Router)) Option {
	return func(c *buildCfg) { c.extra = append(c.extra, fn) }
}

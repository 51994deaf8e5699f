// Package module defines what the meta, debates, rewrites and stream modules satisfy,
// and the registry that lets one module look up another's ports by name.
// It sits apart from modkit so port types can import it without a cycle.
package module

import (
	phttp "uwhatgov/internal/platform/net/http"
)

// Module is one mounted slice of the API
type Module interface {
	// MountRoutes registers the module's handlers under its prefix or group
	MountRoutes(r phttp.Router)
	// Ports is the value PortsOf hands to other modules, the stream module reads the debates service through it
	Ports() any
	// Name keys the registry and is listed by the meta service endpoint
	Name() string
}

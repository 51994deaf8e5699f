// Package httpkit re-exports the platform router types with helpers for mounting module routes
// modules import it instead of internal/platform/net/http
package httpkit

import phttp "uwhatgov/internal/platform/net/http"

type (
	// Handler is the platform handler type
	Handler = phttp.Handler

	// Router is the platform router seam
	Router = phttp.Router

	// Response is what return-style handlers produce
	Response = phttp.Response
)

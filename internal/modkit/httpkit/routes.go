package httpkit

import (
	"net/http"
	"strings"

	phttp "uwhatgov/internal/platform/net/http"
)

// Get mounts a body-less handler whose result is wrapped in the envelope
func Get(r Router, path string, h func(*http.Request) (any, error)) {
	r.Get(path, phttp.Call(h))
}

// PutJSON mounts a handler taking a validated T body under PUT
func PutJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Put(path, phttp.JSONHandler(h))
}

// MountAPI mounts a subrouter under /api/{version} with per scope middleware
//
//	httpkit.MountAPI(r, "v1", nil, func(api httpkit.Router) {
//	  debates.MountRoutes(api)
//	})
func MountAPI(r Router, version string, mw []func(http.Handler) http.Handler, mount func(Router)) {
	r.Route("/api/"+strings.Trim(version, "/"), func(api Router) {
		if len(mw) > 0 {
			api.Use(mw...)
		}
		mount(api)
	})
}

// MountAPIV1 is MountAPI for v1
func MountAPIV1(r Router, mw []func(http.Handler) http.Handler, mount func(Router)) {
	MountAPI(r, "v1", mw, mount)
}

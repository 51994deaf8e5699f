// Package swaggerkit serves Swagger UI over an OpenAPI document built from the routes modules register
package swaggerkit

import (
	"net/http"

	phttp "uwhatgov/internal/platform/net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// Mount serves the UI at /api/docs/ and the document at /api/docs/doc.json when enabled
func Mount(r phttp.Router, enabled bool, title, version string) {
	if !enabled {
		return
	}
	r.Get("/api/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/docs/", http.StatusPermanentRedirect)
	})
	r.Get("/api/docs/doc.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		phttp.JSON(w, http.StatusOK, Doc(title, version))
	})
	r.Handle("/api/docs/*", httpSwagger.Handler(
		httpSwagger.InstanceName("api"),
		httpSwagger.URL("/api/docs/doc.json"),
	))
}

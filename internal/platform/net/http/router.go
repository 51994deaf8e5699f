package http

import "net/http"

// Handler is a plain handler func, JSON endpoints wrap theirs with JSONHandler first
type Handler = func(http.ResponseWriter, *http.Request)

// Router is what api modules mount against
// the API only reads with GET and upserts rewrites with PUT; streams and docs go through Handle
type Router interface {
	Get(path string, h Handler)
	Put(path string, h Handler)

	Handle(path string, h http.Handler)
	Use(mw ...func(http.Handler) http.Handler)
	// Group shares the path but not the middleware, the stream route uses it to skip compression
	Group(fn func(Router))
	Route(pattern string, fn func(Router))

	// Mux is the root handler given to the server
	Mux() http.Handler
}

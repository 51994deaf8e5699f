package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	phttp "uwhatgov/internal/platform/net/http"
	"uwhatgov/internal/platform/net/middleware"
)

// CommonStack returns a baseline per module middleware slice for request/response routes
func CommonStack() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		// tracing / correlation
		middleware.RequestID(),
		middleware.RealIP(),

		// safety
		middleware.RecoverJSON,

		// cache / freshness
		middleware.NoCache(),

		// observability
		middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: 500 * time.Millisecond}),

		middleware.CORS(middleware.CORSOptions{}),
		middleware.Compress(flate.BestSpeed),
		middleware.Heartbeat("/health"),
		middleware.RedirectSlashes(),
		middleware.StripSlashes(),
		Session(false),
		middleware.Timeout(30 * time.Second),
	}
}

// StreamStack is the stack for long lived event streams
// no compression and no request timeout, both would break incremental flushing
// maxStreams > 0 caps concurrent streams
func StreamStack(maxStreams int) []func(http.Handler) http.Handler {
	mw := []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.RecoverJSON,
		middleware.AccessLogZerolog(middleware.AccessLogOptions{}),
		middleware.CORS(middleware.CORSOptions{}),
		middleware.StripSlashes(),
		Session(false),
	}
	if maxStreams > 0 {
		mw = append(mw, middleware.Throttle(maxStreams, 5*time.Second))
	}
	return mw
}

// Session wires the session middleware to the platform JSON writer
func Session(required bool) func(http.Handler) http.Handler {
	return middleware.Session(required, phttp.JSON)
}

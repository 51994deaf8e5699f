// Package middleware holds adapters and in house middlewares
package middleware

import (
	"net/http"
	"strings"
	"time"

	"uwhatgov/internal/platform/logger"
)

// AccessLogOptions configures the zerolog access log
type AccessLogOptions struct {
	// Slow marks requests taking >= Slow as warn level, 0 disables slow marking
	// event streams are never marked slow since their lifetime is the viewer's
	Slow time.Duration
}

// captureWriter records status, bytes and flushes while passing writes through
type captureWriter struct {
	http.ResponseWriter
	status  int
	bytes   int
	flushes int
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	n, err := cw.ResponseWriter.Write(b)
	cw.bytes += n
	return n, err
}

// Flush passes through so event streams still reach the client incrementally
func (cw *captureWriter) Flush() {
	cw.flushes++
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the inner writer to http.ResponseController
func (cw *captureWriter) Unwrap() http.ResponseWriter { return cw.ResponseWriter }

func (cw *captureWriter) streaming() bool {
	return strings.HasPrefix(cw.Header().Get("Content-Type"), "text/event-stream")
}

// AccessLogZerolog logs one line per request from the request scoped logger
// event streams log "stream done" with the number of flushes
func AccessLogZerolog(opt AccessLogOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(cw, r)

			elapsed := time.Since(start)
			log := logger.C(r.Context())
			evt := log.Info()
			msg := "request done"
			if cw.streaming() {
				msg = "stream done"
				evt = evt.Int("flushes", cw.flushes)
			} else if opt.Slow > 0 && elapsed >= opt.Slow {
				evt = log.Warn()
			}
			evt.Int("status", cw.status).
				Dur("elapsed", elapsed).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("bytes", cw.bytes).
				Msg(msg)
		})
	}
}

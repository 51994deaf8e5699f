package middleware

import (
	"net/http"
	"strings"

	perr "uwhatgov/internal/platform/errors"
	"uwhatgov/internal/platform/logger"
	pnet "uwhatgov/internal/platform/net"

	"github.com/google/uuid"
)

// Session reads the viewer session header and puts it on the request context
// a malformed id is rejected, a missing one passes through unless required
func Session(required bool, write func(w http.ResponseWriter, status int, body any)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(pnet.SessionHeader))
			if raw == "" {
				if required {
					status, body := pnet.Error(perr.Unauthorizedf("missing %s header", pnet.SessionHeader), pnet.RequestID(r.Context()))
					write(w, status, body)
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			id, err := uuid.Parse(raw)
			if err != nil {
				err = perr.WithField(perr.InvalidArgf("session id must be a uuid"), pnet.SessionHeader)
				status, body := pnet.Error(err, pnet.RequestID(r.Context()))
				write(w, status, body)
				return
			}
			ctx := pnet.WithRequest(r.Context(), "", id.String())
			ctx = logger.WithRequest(ctx, pnet.RequestID(ctx), id.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

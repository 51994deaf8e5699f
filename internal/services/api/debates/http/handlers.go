// Package http provides http transport for debates
package http

import (
	stdhttp "net/http"

	"uwhatgov/internal/modkit/httpkit"
	"uwhatgov/internal/modkit/swaggerkit"
	"uwhatgov/internal/services/api/debates/domain"
	svc "uwhatgov/internal/services/api/debates/service"
)

// Register mounts debate endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}
	httpkit.Get(r, "/{id}", h.get)
	swaggerkit.Register(swaggerkit.Op{
		Method:   "GET",
		Path:     "/debates/{id}",
		Tag:      "Debates",
		Summary:  "Debate with ordered segments",
		Response: domain.Debate{},
	})
}

type handlers struct{ svc svc.Service }

func (h *handlers) get(r *stdhttp.Request) (any, error) {
	id, err := httpkit.Param(r, "id")
	if err != nil {
		return nil, err
	}
	return h.svc.Get(r.Context(), id)
}

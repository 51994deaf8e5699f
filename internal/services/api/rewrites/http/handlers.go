// Package http provides http transport for rewrites
package http

import (
	stdhttp "net/http"

	"uwhatgov/internal/modkit/httpkit"
	"uwhatgov/internal/modkit/swaggerkit"
	pnet "uwhatgov/internal/platform/net"
	"uwhatgov/internal/services/api/rewrites/domain"
	svc "uwhatgov/internal/services/api/rewrites/service"
)

// Register mounts rewrite endpoints on the given router
// writes require a viewer session so stored rewrites can be traced back to a watch
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}
	httpkit.Get(r, "/{id}", h.get)
	r.Group(func(w httpkit.Router) {
		w.Use(httpkit.Session(true))
		httpkit.PutJSON[domain.PutInput](w, "/{id}", h.put)
	})
	swaggerkit.Register(
		swaggerkit.Op{
			Method:   "GET",
			Path:     "/rewrites/{id}",
			Tag:      "Rewrites",
			Summary:  "Stored rewrite of a debate",
			Response: domain.Rewrite{},
		},
		swaggerkit.Op{
			Method:   "PUT",
			Path:     "/rewrites/{id}",
			Tag:      "Rewrites",
			Summary:  "Store the finished rewrite of a debate",
			Header:   []swaggerkit.Param{{Name: pnet.SessionHeader, Required: true, About: "viewer session"}},
			Body:     domain.PutInput{},
			Response: domain.Rewrite{},
		},
	)
}

type handlers struct{ svc svc.Service }

func (h *handlers) put(r *stdhttp.Request, in domain.PutInput) (any, error) {
	id, err := httpkit.Param(r, "id")
	if err != nil {
		return nil, err
	}
	return h.svc.Put(r.Context(), id, pnet.SessionID(r.Context()), in)
}

func (h *handlers) get(r *stdhttp.Request) (any, error) {
	id, err := httpkit.Param(r, "id")
	if err != nil {
		return nil, err
	}
	return h.svc.Get(r.Context(), id)
}

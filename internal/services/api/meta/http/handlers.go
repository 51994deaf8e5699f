// Package http provides meta endpoints
package http

import (
	stdctx "context"
	"net/http"
	"time"

	"uwhatgov/internal/core/version"
	"uwhatgov/internal/modkit/httpkit"
	"uwhatgov/internal/modkit/swaggerkit"
)

// readyTimeout bounds all dependency pings of one readiness probe
const readyTimeout = 2 * time.Second

// Pinger is satisfied by adapters that expose Ping
type Pinger interface {
	Ping(stdctx.Context) error
}

// Check is one named dependency, a nil Pinger is reported as skipped
type Check struct {
	Name   string
	Pinger Pinger
}

// StreamInfo describes how rewrite streams are produced
type StreamInfo struct {
	Provider  string `json:"provider"           example:"openai"`
	Model     string `json:"model,omitempty"    example:"gpt-4o-mini"`
	Narrator  string `json:"narrator"           example:"Narrator"`
	Heartbeat int64  `json:"heartbeat_seconds"  example:"20"`
}

// Deps are the handler dependencies
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	Checks      []Check
	Stream      StreamInfo
	Modules     func() []string
	now         func() time.Time
}

type handlers struct {
	deps Deps
}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	if d.now == nil {
		d.now = time.Now
	}
	h := &handlers{deps: d}

	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
	httpkit.Get(r, "/service", h.service)
	httpkit.Get(r, "/stream", h.stream)

	swaggerkit.Register(
		metaOp("/meta/health", "Health check", HealthResponse{}),
		metaOp("/meta/ready", "Readiness probe, disabled stores are skipped", ReadyResponse{}),
		metaOp("/meta/version", "Build and version info", version.BuildInfo{}),
		metaOp("/meta/service", "Service info, uptime and mounted modules", ServiceResponse{}),
		metaOp("/meta/stream", "Upstream provider and heartbeat used for rewrite streams", StreamInfo{}),
	)
}

func metaOp(path, summary string, resp any) swaggerkit.Op {
	return swaggerkit.Op{Method: "GET", Path: path, Tag: "Meta", Summary: summary, Response: resp}
}

// HealthResponse is the health payload
type HealthResponse struct {
	OK      bool   `json:"ok"       example:"true"`
	Service string `json:"service"  example:"uwhatgov-api"`
	Started string `json:"started"  example:"2025-09-03T13:00:00Z"`
	Now     string `json:"now"      example:"2025-09-03T13:05:00Z"`
}

// ReadyCheck describes a single dependency check
type ReadyCheck struct {
	Name   string `json:"name"   example:"pg"`
	Status string `json:"status" example:"ok"` // ok fail skipped
	Error  string `json:"error,omitempty" example:"dial tcp 127.0.0.1:5432 connect: connection refused"`
}

// ReadyResponse summarizes readiness
type ReadyResponse struct {
	Status string       `json:"status" example:"ok"` // ok fail
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"    example:"2025-09-03T13:05:00Z"`
}

// ServiceResponse describes service info
type ServiceResponse struct {
	Name    string   `json:"name"    example:"uwhatgov-api"`
	Started string   `json:"started" example:"2025-09-03T13:00:00Z"`
	Uptime  int64    `json:"uptime"  example:"300"`
	Modules []string `json:"modules"`
}

func (h *handlers) health(_ *http.Request) (any, error) {
	return HealthResponse{
		OK:      true,
		Service: h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Now:     h.deps.now().UTC().Format(time.RFC3339),
	}, nil
}

func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := stdctx.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	out := ReadyResponse{Status: "ok", Checks: make([]ReadyCheck, 0, len(h.deps.Checks))}
	for _, c := range h.deps.Checks {
		rc := ReadyCheck{Name: c.Name, Status: "skipped"}
		if c.Pinger != nil {
			rc.Status = "ok"
			if err := c.Pinger.Ping(ctx); err != nil {
				rc.Status, rc.Error = "fail", err.Error()
				out.Status = "fail"
			}
		}
		out.Checks = append(out.Checks, rc)
	}
	out.Now = h.deps.now().UTC().Format(time.RFC3339)
	return out, nil
}

func (h *handlers) version(_ *http.Request) (any, error) {
	return version.Info(), nil
}

func (h *handlers) service(_ *http.Request) (any, error) {
	uptime := h.deps.now().Sub(h.deps.StartedAt)
	out := ServiceResponse{
		Name:    h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(uptime / time.Second),
		Modules: []string{},
	}
	if h.deps.Modules != nil {
		out.Modules = h.deps.Modules()
	}
	return out, nil
}

func (h *handlers) stream(_ *http.Request) (any, error) {
	return h.deps.Stream, nil
}

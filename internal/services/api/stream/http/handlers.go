// Package http serves rewrite streams as server sent events
package http

import (
	stdhttp "net/http"
	"time"

	"uwhatgov/internal/core/envelope"
	"uwhatgov/internal/modkit/httpkit"
	"uwhatgov/internal/modkit/swaggerkit"
	phttp "uwhatgov/internal/platform/net/http"
	"uwhatgov/internal/services/api/stream/domain"
)

// StreamIDHeader carries the run id so clients can correlate logs
const StreamIDHeader = "X-Stream-ID"

// Register mounts the stream endpoint at path, which must contain {id}
func Register(r httpkit.Router, path string, s domain.ServicePort) {
	h := &handlers{svc: s}
	r.Get(path, h.stream)
	swaggerkit.Register(swaggerkit.Op{
		Method:  "GET",
		Path:    path,
		Tag:     "Stream",
		Summary: `Rewrite a debate as server sent events, each data line is {"type":"chunk"|"complete"|"error"|"ping","payload":...}`,
		Query:   []swaggerkit.Param{{Name: "from", Type: "integer", About: "first segment index to rewrite"}},
		Stream:  true,
	})
}

type handlers struct{ svc domain.ServicePort }

// stream ends with exactly one complete or error event, setup failures before the first byte are JSON errors
func (h *handlers) stream(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()
	id, err := httpkit.Param(r, "id")
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}
	from, err := httpkit.QueryInt(r, "from", 0)
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}

	st, err := h.svc.Open(ctx, domain.Request{DebateID: id, From: from})
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}

	rc := stdhttp.NewResponseController(w)
	// a stream outlives any server write timeout
	_ = rc.SetWriteDeadline(time.Time{})

	setSSEHeaders(w)
	w.Header().Set(StreamIDHeader, st.ID())
	w.WriteHeader(stdhttp.StatusOK)
	if err := rc.Flush(); err != nil {
		return
	}

	st.Publish(ctx, &sseSink{w: w, rc: rc})
}

func setSSEHeaders(w stdhttp.ResponseWriter) {
	headers := w.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
}

// sseSink writes one frame per envelope and flushes it
type sseSink struct {
	w  stdhttp.ResponseWriter
	rc *stdhttp.ResponseController
}

func (s *sseSink) Send(e envelope.Envelope) error {
	b, err := envelope.Encode(e)
	if err != nil {
		return err
	}
	if _, err := s.w.Write(b); err != nil {
		return err
	}
	return s.rc.Flush()
}

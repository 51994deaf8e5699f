package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	perr "uwhatgov/internal/platform/errors"
	pnet "uwhatgov/internal/platform/net"
	"uwhatgov/internal/platform/net/middleware"
)

func TestRecoverJSON(t *testing.T) {
	h := middleware.RequestID()(middleware.RecoverJSON(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("narrator exploded")
	})))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/debates/d-1", nil)
	req.Header.Set("X-Request-ID", "req-7")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Header().Get("X-Request-ID") != "req-7" {
		t.Fatalf("request id header = %q", rr.Header().Get("X-Request-ID"))
	}
	var w pnet.Wire
	if err := json.NewDecoder(rr.Body).Decode(&w); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if w.Code != perr.ErrorCodePanic || w.RequestID != "req-7" || w.Error != "internal error" {
		t.Fatalf("wire = %+v", w)
	}
}

func TestRecoverJSON_ReraisesAbort(t *testing.T) {
	h := middleware.RecoverJSON(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	defer func() {
		if v := recover(); v != http.ErrAbortHandler {
			t.Fatalf("recovered %v, want ErrAbortHandler", v)
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/stream/d-1", nil))
}

package swaggerkit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	phttp "uwhatgov/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

type debate struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type putBody struct {
	Status string `json:"status"`
}

// the op registry is package state so these tests run serially
func TestDoc(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register(
		Op{Method: "get", Path: "/debates/{id}", Tag: "Debates", Summary: "old", Response: debate{}},
		Op{Method: "GET", Path: "/debates/{id}", Tag: "Debates", Summary: "Debate", Response: debate{}},
		Op{Method: "PUT", Path: "/rewrites/{id}", Tag: "Rewrites", Body: putBody{},
			Header: []Param{{Name: "X-Session-ID", Required: true}}},
		Op{Method: "GET", Path: "/debates/{id:[a-z0-9.-]+}/rewrite/stream", Tag: "Stream", Stream: true,
			Query: []Param{{Name: "from", Type: "integer"}}},
		Op{Method: "GET", Path: "/meta/ready", Tag: "Meta", Response: []debate{}},
	)

	b, err := json.Marshal(Doc("uwhatgov API", "v1.2.0"))
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		OpenAPI string `json:"openapi"`
		Info    struct{ Title, Version string }
		Servers []struct{ URL string }
		Paths   map[string]map[string]struct {
			Summary     string
			Parameters  []struct{ Name, In string }
			RequestBody json.RawMessage
			Responses   map[string]json.RawMessage
		}
		Components struct{ Schemas map[string]json.RawMessage }
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatal(err)
	}

	if doc.OpenAPI != "3.0.3" || doc.Info.Version != "v1.2.0" || doc.Servers[0].URL != BasePath {
		t.Fatalf("header = %+v", doc)
	}
	if len(doc.Paths) != 4 {
		t.Fatalf("paths = %v", doc.Paths)
	}
	if got := doc.Paths["/debates/{id}"]["get"].Summary; got != "Debate" {
		t.Fatalf("later op must win, summary = %q", got)
	}
	put := doc.Paths["/rewrites/{id}"]["put"]
	if len(put.Parameters) != 2 || put.Parameters[0].In != "path" || put.Parameters[1].In != "header" {
		t.Fatalf("put params = %+v", put.Parameters)
	}
	if !strings.Contains(string(put.RequestBody), `"status"`) {
		t.Fatalf("put body = %s", put.RequestBody)
	}
	stream, ok := doc.Paths["/debates/{id}/rewrite/stream"]["get"]
	if !ok || !strings.Contains(string(stream.Responses["200"]), "text/event-stream") {
		t.Fatalf("stream op = %+v", stream)
	}
	if !strings.Contains(string(doc.Paths["/meta/ready"]["get"].Responses["200"]), `"type":"array"`) {
		t.Fatal("slice responses must be arrays")
	}
	env := string(doc.Components.Schemas["Envelope"])
	if !strings.Contains(env, "request_id") || strings.Contains(env, "$schema") {
		t.Fatalf("envelope schema = %s", env)
	}
}

func TestMount(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	Register(Op{Method: "GET", Path: "/meta/health", Tag: "Meta"})

	cases := []struct {
		name    string
		enabled bool
		path    string
		code    int
	}{
		{"doc", true, "/api/docs/doc.json", http.StatusOK},
		{"redirect", true, "/api/docs", http.StatusPermanentRedirect},
		{"disabled", false, "/api/docs/doc.json", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := phttp.AdaptChi(chi.NewRouter())
			Mount(r, tc.enabled, "uwhatgov API", "dev")
			rr := httptest.NewRecorder()
			r.Mux().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tc.path, nil))
			if rr.Code != tc.code {
				t.Fatalf("code = %d, want %d", rr.Code, tc.code)
			}
			if tc.code == http.StatusOK && !strings.Contains(rr.Body.String(), `"/meta/health"`) {
				t.Fatalf("body = %s", rr.Body.String())
			}
		})
	}
}

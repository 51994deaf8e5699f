package module

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"uwhatgov/internal/adapters/upstream"
	modkit "uwhatgov/internal/modkit"
	"uwhatgov/internal/platform/config"
	phttp "uwhatgov/internal/platform/net/http"
	kit "uwhatgov/internal/platform/testkit"
	debates "uwhatgov/internal/services/api/debates/domain"
	"uwhatgov/internal/services/api/stream/domain"

	"github.com/go-chi/chi/v5"
)

type oneDebate struct{}

func (oneDebate) Get(_ context.Context, id string) (debates.Debate, error) {
	return debates.Debate{ID: id, Segments: []debates.Segment{{Index: 0, Speaker: "A", Text: "hello"}}}, nil
}

func TestNew_RequiresDebatesPort(t *testing.T) {
	kit.MustPanic(t, func() { _, _ = New(context.Background(), modkit.Deps{}, Options{}) })
}

func TestNew_RejectsUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), modkit.Deps{}, Options{Upstream: upstream.Config{Provider: "carrier-pigeon"}},
		modkit.WithPorts(Ports{Debates: oneDebate{}}))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestFromConfig_Defaults(t *testing.T) {
	o := FromConfig(config.New())
	if o.Heartbeat != 20*time.Second || o.Narrator != "Narrator" || o.Upstream.Provider != "echo" {
		t.Fatalf("options = %+v", o)
	}
}

func TestMountRoutes_SharesDebatesPrefix(t *testing.T) {
	m, err := New(context.Background(), modkit.Deps{}, Options{Heartbeat: time.Hour},
		modkit.WithPorts(Ports{Debates: oneDebate{}, Producer: upstream.NewEcho(0)}))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m.Ports().(domain.ServicePort); !ok {
		t.Fatalf("ports = %T", m.Ports())
	}

	mux := chi.NewRouter()
	r := phttp.AdaptChi(mux)
	r.Route("/debates", func(rr phttp.Router) {
		rr.Get("/{id}", func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "debate") })
	})
	m.MountRoutes(r)

	cases := []struct {
		path string
		ct   string
	}{
		{"/debates/d-1", ""},
		{"/debates/d-1/rewrite/stream", "text/event-stream"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d", tc.path, rec.Code)
		}
		if tc.ct != "" && rec.Header().Get("Content-Type") != tc.ct {
			t.Fatalf("%s content type = %q", tc.path, rec.Header().Get("Content-Type"))
		}
	}
}

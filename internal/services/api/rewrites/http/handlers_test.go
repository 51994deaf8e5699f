package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pnet "uwhatgov/internal/platform/net"
	phttp "uwhatgov/internal/platform/net/http"
	"uwhatgov/internal/services/api/rewrites/domain"

	"github.com/go-chi/chi/v5"
)

type fakeSvc struct {
	gotID, gotSession string
	gotIn             domain.PutInput
}

func (f *fakeSvc) Put(_ context.Context, id, session string, in domain.PutInput) (domain.Rewrite, error) {
	f.gotID, f.gotSession, f.gotIn = id, session, in
	return domain.Rewrite{DebateID: id, Status: in.Status, Records: in.Records, SessionID: session}, nil
}

func (f *fakeSvc) Get(_ context.Context, id string) (domain.Rewrite, error) {
	return domain.Rewrite{DebateID: id, Status: "success"}, nil
}

func serve(t *testing.T, s *fakeSvc, req *stdhttp.Request) *httptest.ResponseRecorder {
	t.Helper()
	m := chi.NewRouter()
	phttp.AdaptChi(m).Route("/rewrites", func(r phttp.Router) { Register(r, s) })
	rr := httptest.NewRecorder()
	m.ServeHTTP(rr, req)
	return rr
}

const session = "7f1c2a0e-3b4d-4c5e-9f60-718293a4b5c6"

func TestPut(t *testing.T) {
	body := `{"records":[{"speaker":"Jane Doe","text":"hello","originalIndex":0}],"status":"success"}`

	cases := []struct {
		name    string
		body    string
		session string
		want    int
	}{
		{"stored", body, session, stdhttp.StatusOK},
		{"missing session", body, "", stdhttp.StatusUnauthorized},
		{"bad status", strings.Replace(body, "success", "partial", 1), session, stdhttp.StatusBadRequest},
		{"empty records", `{"records":[],"status":"failed"}`, session, stdhttp.StatusBadRequest},
		{"unknown field", `{"records":[],"status":"failed","extra":1}`, session, stdhttp.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &fakeSvc{}
			req := httptest.NewRequest(stdhttp.MethodPut, "/rewrites/d-10", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			if tc.session != "" {
				req.Header.Set(pnet.SessionHeader, tc.session)
			}
			rr := serve(t, s, req)
			if rr.Code != tc.want {
				t.Fatalf("status = %d want %d body=%s", rr.Code, tc.want, rr.Body)
			}
			if tc.want != stdhttp.StatusOK {
				return
			}
			if s.gotID != "d-10" || s.gotSession != session || len(s.gotIn.Records) != 1 {
				t.Fatalf("service saw id=%q session=%q in=%+v", s.gotID, s.gotSession, s.gotIn)
			}
			var env struct {
				Data domain.Rewrite `json:"data"`
			}
			if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
				t.Fatal(err)
			}
			if env.Data.DebateID != "d-10" || env.Data.Status != "success" {
				t.Fatalf("envelope = %+v", env.Data)
			}
		})
	}
}

func TestGet(t *testing.T) {
	rr := serve(t, &fakeSvc{}, httptest.NewRequest(stdhttp.MethodGet, "/rewrites/d-3", nil))
	if rr.Code != stdhttp.StatusOK || !strings.Contains(rr.Body.String(), `"debate_id":"d-3"`) {
		t.Fatalf("GET = %d %s", rr.Code, rr.Body)
	}
}

package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"uwhatgov/internal/adapters/upstream"
	"uwhatgov/internal/client"
	perr "uwhatgov/internal/platform/errors"
	phttp "uwhatgov/internal/platform/net/http"
	kit "uwhatgov/internal/platform/testkit"
	debates "uwhatgov/internal/services/api/debates/domain"
	"uwhatgov/internal/services/api/stream/service"

	"github.com/go-chi/chi/v5"
)

type fakeDebates struct {
	err error
}

func (f fakeDebates) Get(_ context.Context, id string) (debates.Debate, error) {
	if f.err != nil {
		return debates.Debate{}, f.err
	}
	return debates.Debate{ID: id, Title: "Housing Bill", Segments: []debates.Segment{
		{Index: 0, Speaker: "Jane Doe", Text: "I beg to move."},
		{Index: 1, Speaker: "John Roe", Text: "I object {strongly}."},
		{Index: 2, Speaker: "Jane Doe", Text: "So noted."},
	}}, nil
}

func newServer(t *testing.T, d debates.ServicePort, p upstream.Producer) *httptest.Server {
	t.Helper()
	svc := service.New(d, p, service.NewPublisher(service.WithHeartbeat(time.Hour)), nil)
	m := chi.NewRouter()
	phttp.AdaptChi(m).Route("/api/v1", func(api phttp.Router) {
		Register(api, "/debates/{id}/rewrite/stream", svc)
	})
	srv := httptest.NewServer(m)
	t.Cleanup(srv.Close)
	return srv
}

func TestStream_WritesEventStream(t *testing.T) {
	srv := newServer(t, fakeDebates{}, upstream.NewEcho(0))

	resp, err := stdhttp.Get(srv.URL + "/api/v1/debates/d-1/rewrite/stream?from=2")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("status = %d body = %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}
	if resp.Header.Get(StreamIDHeader) == "" || resp.Header.Get("X-Accel-Buffering") != "no" {
		t.Fatalf("headers = %v", resp.Header)
	}
	frames := strings.Split(strings.TrimSuffix(string(body), "\n\n"), "\n\n")
	if len(frames) != 2 {
		t.Fatalf("frames = %q", frames)
	}
	kit.MustContain(t, frames[0], `"type":"chunk"`)
	kit.MustContain(t, frames[0], `So noted.`)
	if frames[1] != `data: {"type":"complete"}` {
		t.Fatalf("terminal = %q", frames[1])
	}
}

func TestStream_ResumePastTheEndOnlyCompletes(t *testing.T) {
	srv := newServer(t, fakeDebates{}, upstream.NewEcho(0))

	resp, err := stdhttp.Get(srv.URL + "/api/v1/debates/d-1/rewrite/stream?from=3")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("status = %d body = %s", resp.StatusCode, body)
	}
	if string(body) != "data: {\"type\":\"complete\"}\n\n" {
		t.Fatalf("body = %q", body)
	}
}

func TestStream_ErrorsBeforeStreamingAreJSON(t *testing.T) {
	cases := []struct {
		name   string
		deb    fakeDebates
		query  string
		status int
	}{
		{"unknown debate", fakeDebates{err: perr.NotFoundf("debate not found")}, "", stdhttp.StatusNotFound},
		{"bad from", fakeDebates{}, "?from=x", stdhttp.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newServer(t, tc.deb, upstream.NewEcho(0))
			resp, err := stdhttp.Get(srv.URL + "/api/v1/debates/d-1/rewrite/stream" + tc.query)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tc.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.status)
			}
			kit.MustContain(t, resp.Header.Get("Content-Type"), "application/json")
		})
	}
}

func TestStream_ConsumerEndToEnd(t *testing.T) {
	srv := newServer(t, fakeDebates{}, upstream.NewEcho(time.Millisecond))

	var got []string
	c := client.NewConsumer(client.Options{BaseURL: srv.URL, DebateID: "d-1", MaxAttempts: 1}, func(ev client.Event) {
		if ev.Type == client.EventRecord {
			got = append(got, ev.Record.Speaker+": "+ev.Record.Text)
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.Run(ctx); err != nil {
		t.Fatal(err)
	}
	want := []string{"Jane Doe: I beg to move.", "John Roe: I object {strongly}.", "Jane Doe: So noted."}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("records = %q", got)
	}
	if c.State() != client.StateComplete {
		t.Fatalf("state = %v", c.State())
	}
}

func TestStream_ConsumerSeesUpstreamFailure(t *testing.T) {
	p := upstream.Script{
		Fragments: []string{`[{"speaker":"A","text":"one"},{"speaker":"B","text":"two"},{"spea`},
		Err:       perr.Upstreamf("provider hung up"),
	}
	srv := newServer(t, fakeDebates{}, p)

	records := 0
	c := client.NewConsumer(client.Options{BaseURL: srv.URL, DebateID: "d-1", MaxAttempts: 1}, func(ev client.Event) {
		if ev.Type == client.EventRecord {
			records++
		}
	})
	err := c.Run(context.Background())
	if err == nil || errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	kit.MustContain(t, err.Error(), "provider hung up")
	if records != 2 || c.State() != client.StateFailed {
		t.Fatalf("records = %d state = %v", records, c.State())
	}
}

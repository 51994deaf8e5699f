package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"uwhatgov/internal/core/envelope"
	"uwhatgov/internal/core/pacer"
	"uwhatgov/internal/core/record"
	perr "uwhatgov/internal/platform/errors"
)

type fakeUI struct {
	mu       sync.Mutex
	shown    []record.Record
	states   []State
	failed   error
	done     bool
	composed int
}

func (u *fakeUI) Composing(string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.composed++
}

func (u *fakeUI) Show(r record.Record) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.shown = append(u.shown, r)
}

func (u *fakeUI) Failed(err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.failed = err
}

func (u *fakeUI) Done() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.done = true
}

func (u *fakeUI) Notify(ev Event) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if ev.Type == EventState {
		u.states = append(u.states, ev.State)
	}
}

type apiStub struct {
	mu       sync.Mutex
	puts     []PersistBody
	putPaths []string
	stream   func(w http.ResponseWriter, r *http.Request)
}

func (a *apiStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/rewrite/stream"):
		a.stream(w, r)
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/api/v1/rewrites/"):
		var body PersistBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		a.mu.Lock()
		a.puts = append(a.puts, body)
		a.putPaths = append(a.putPaths, r.URL.Path)
		a.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func newStub(t *testing.T, stream func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *apiStub) {
	t.Helper()
	stub := &apiStub{stream: stream}
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)
	return srv, stub
}

func TestSession_EndToEndSuccess(t *testing.T) {
	srv, stub := newStub(t, func(w http.ResponseWriter, _ *http.Request) {
		sseHeaders(w)
		write(t, w, chunk("A", "hello", 0), envelope.Ping{}, chunk(record.Narrator, "The House divided.", 1), envelope.Complete{})
	})

	ui := &fakeUI{}
	s := NewSession(SessionOptions{
		Consumer:     Options{BaseURL: srv.URL, DebateID: "d-10"},
		DisplayDelay: time.Millisecond,
		Persist:      true,
	}, ui)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := texts(ui.shown); !equalStrings(got, []string{"hello", "The House divided."}) {
		t.Fatalf("shown = %v", got)
	}
	if !ui.done || ui.failed != nil || ui.composed != 2 {
		t.Fatalf("ui done=%v failed=%v composed=%d", ui.done, ui.failed, ui.composed)
	}
	if len(stub.puts) != 1 || stub.putPaths[0] != "/api/v1/rewrites/d-10" {
		t.Fatalf("puts = %+v paths=%v", stub.puts, stub.putPaths)
	}
	if p := stub.puts[0]; p.Status != pacer.StatusSuccess || len(p.Records) != 2 {
		t.Fatalf("put body = %+v", p)
	}
	if s.SessionID() == "" {
		t.Fatal("session id should be generated")
	}
}

func TestSession_UpstreamErrorAfterTwoRecords(t *testing.T) {
	srv, stub := newStub(t, func(w http.ResponseWriter, _ *http.Request) {
		sseHeaders(w)
		write(t, w, chunk("A", "one", 0), chunk("B", "two", 1), envelope.Error{Message: "generation failed"})
	})

	ui := &fakeUI{}
	s := NewSession(SessionOptions{
		Consumer:     Options{BaseURL: srv.URL, DebateID: "d-11"},
		DisplayDelay: time.Millisecond,
		Persist:      true,
	}, ui)

	err := s.Run(context.Background())
	if !perr.IsCode(err, perr.ErrorCodeUpstream) {
		t.Fatalf("err = %v", err)
	}
	if got := texts(ui.shown); !equalStrings(got, []string{"one", "two"}) {
		t.Fatalf("shown = %v, want exactly two records", got)
	}
	if ui.failed == nil || ui.done {
		t.Fatalf("ui failed=%v done=%v", ui.failed, ui.done)
	}
	if len(stub.puts) != 1 || stub.puts[0].Status != pacer.StatusFailed {
		t.Fatalf("puts = %+v", stub.puts)
	}
}

func TestSession_EmptyResultShowsFailure(t *testing.T) {
	srv, stub := newStub(t, func(w http.ResponseWriter, _ *http.Request) {
		sseHeaders(w)
		write(t, w, envelope.Error{Message: "no records produced"})
	})

	ui := &fakeUI{}
	s := NewSession(SessionOptions{Consumer: Options{BaseURL: srv.URL, DebateID: "d-12"}, Persist: true}, ui)
	if err := s.Run(context.Background()); err == nil {
		t.Fatal("expected failure")
	}
	if len(ui.shown) != 0 || ui.failed == nil {
		t.Fatalf("shown=%d failed=%v", len(ui.shown), ui.failed)
	}
	if len(stub.puts) != 0 {
		t.Fatalf("nothing displayed, nothing persisted: %+v", stub.puts)
	}
}

func TestSession_CancelPersistsNothing(t *testing.T) {
	started := make(chan struct{})
	srv, stub := newStub(t, func(w http.ResponseWriter, r *http.Request) {
		sseHeaders(w)
		write(t, w, chunk("A", "one", 0))
		close(started)
		<-r.Context().Done()
	})

	ui := &fakeUI{}
	s := NewSession(SessionOptions{
		Consumer:     Options{BaseURL: srv.URL, DebateID: "d-13"},
		DisplayDelay: time.Hour,
		Persist:      true,
	}, ui)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()
	<-started
	cancel()

	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if len(stub.puts) != 0 || ui.done || ui.failed != nil || len(ui.shown) != 0 {
		t.Fatalf("cancel leaked output: puts=%d done=%v failed=%v shown=%d", len(stub.puts), ui.done, ui.failed, len(ui.shown))
	}
}

func immediately(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

func TestHTTPPersister_RetriesTransientFailures(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewHTTPPersister(srv.URL, "s-1", nil)
	p.after = immediately
	err := p.Persist(context.Background(), "d-14", []record.Record{{Speaker: "A", Text: "x"}}, pacer.StatusSuccess)
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestHTTPPersister_RejectedIsNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	p := NewHTTPPersister(srv.URL, "", nil)
	p.after = immediately
	err := p.Persist(context.Background(), "d-15", nil, pacer.StatusFailed)
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) || calls != 1 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}

func TestHTTPPersister_CancelDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	p := NewHTTPPersister(srv.URL, "s-1", nil)
	p.after = func(time.Duration) <-chan time.Time {
		cancel()
		return make(chan time.Time)
	}

	errc := make(chan error, 1)
	go func() { errc <- p.Persist(ctx, "d-16", []record.Record{{Speaker: "A", Text: "x"}}, pacer.StatusSuccess) }()
	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Persist blocked in backoff after cancel")
	}
}

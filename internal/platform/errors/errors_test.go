package errors

import (
	stderrs "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code ErrorCode
		want int
	}{
		{ErrorCodeNotFound, http.StatusNotFound},
		{ErrorCodeInvalidArgument, http.StatusUnprocessableEntity},
		{ErrorCodeValidation, http.StatusBadRequest},
		{ErrorCodeJSON, http.StatusBadRequest},
		{ErrorCodeUnauthorized, http.StatusUnauthorized},
		{ErrorCodeDuplicateKey, http.StatusConflict},
		{ErrorCodeUnavailable, http.StatusServiceUnavailable},
		{ErrorCodeRetryExhausted, http.StatusServiceUnavailable},
		{ErrorCodeUpstream, http.StatusBadGateway},
		{ErrorCodeEmptyResult, http.StatusBadGateway},
		{ErrorCodeDB, http.StatusInternalServerError},
		{ErrorCodeUnknown, http.StatusInternalServerError},
		{9999, http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := HTTPStatusCode(c.code); got != c.want {
			t.Fatalf("HTTPStatusCode(%v) = %d, want %d", c.code, got, c.want)
		}
	}
}

func TestCodeString(t *testing.T) {
	t.Parallel()

	if got := ErrorCodeEmptyResult.String(); got != "empty_result" {
		t.Fatalf("String = %q", got)
	}
	if got := ErrorCode(9999).String(); got != "code(9999)" {
		t.Fatalf("String = %q", got)
	}
	for c := range codeInfo {
		if c.String() == "" {
			t.Fatalf("code %d has no name", uint16(c))
		}
	}
}

func TestErrorChain(t *testing.T) {
	t.Parallel()

	var nilErr *Error
	if nilErr.Error() != "<nil>" {
		t.Fatalf("nil render = %q", nilErr.Error())
	}

	cause := stderrs.New("quota exceeded")
	err := Wrapf(cause, ErrorCodeUpstream, "generation for %s failed", "d-1")
	if err.Error() != "generation for d-1 failed: quota exceeded" {
		t.Fatalf("Error = %q", err.Error())
	}
	if !stderrs.Is(err, cause) || stderrs.Unwrap(err) != cause {
		t.Fatal("cause not reachable")
	}

	outer := fmt.Errorf("stream: %w", err)
	if !IsCode(outer, ErrorCodeUpstream) || HTTPStatus(outer) != http.StatusBadGateway {
		t.Fatalf("code through fmt wrap = %v", CodeOf(outer))
	}
	e, ok := As(outer)
	if !ok || e.Message() != "generation for d-1 failed" || e.Code() != ErrorCodeUpstream {
		t.Fatalf("As = %+v %v", e, ok)
	}

	if CodeOf(cause) != ErrorCodeUnknown || CodeOf(nil) != ErrorCodeUnknown {
		t.Fatal("foreign errors are unknown")
	}
	if WrapIf(nil, ErrorCodeDB, "x") != nil {
		t.Fatal("WrapIf(nil) should be nil")
	}
	if !IsCode(WrapIf(cause, ErrorCodeDB, "x"), ErrorCodeDB) {
		t.Fatal("WrapIf should wrap")
	}
}

func TestWithField(t *testing.T) {
	t.Parallel()

	base := InvalidArgf("from must be >= 0")
	withField := WithField(base, "from")

	if e, _ := As(withField); e.Field() != "from" {
		t.Fatalf("field = %q", e.Field())
	}
	if e, _ := As(base); e.Field() != "" {
		t.Fatal("WithField must not mutate the original")
	}

	foreign := stderrs.New("plain")
	if WithField(foreign, "x") != foreign {
		t.Fatal("foreign errors come back unchanged")
	}
}

func TestWire(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
		wire   Wire
	}{
		{name: "nil", err: nil, status: http.StatusOK, wire: Wire{}},
		{
			name:   "ours",
			err:    WithField(NotFoundf("debate %s not found", "d-9"), "id"),
			status: http.StatusNotFound,
			wire:   Wire{Code: ErrorCodeNotFound, Message: "debate d-9 not found", Field: "id"},
		},
		{
			name:   "foreign",
			err:    stderrs.New("boom"),
			status: http.StatusInternalServerError,
			wire:   Wire{Code: ErrorCodeUnknown, Message: "boom"},
		},
		{
			name:   "sugar",
			err:    EmptyResultf("no records"),
			status: http.StatusBadGateway,
			wire:   Wire{Code: ErrorCodeEmptyResult, Message: "no records"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, wire := HTTP(tc.err)
			if status != tc.status || wire != tc.wire {
				t.Fatalf("HTTP = %d %+v, want %d %+v", status, wire, tc.status, tc.wire)
			}
		})
	}
}

func TestSugarCodes(t *testing.T) {
	t.Parallel()

	cases := map[ErrorCode]error{
		ErrorCodeJSON:         JSONErrf("bad json"),
		ErrorCodePanic:        PanicErrf("panic: %v", "x"),
		ErrorCodeUnauthorized: Unauthorizedf("no session"),
		ErrorCodeUpstream:     Upstreamf("provider down"),
		ErrorCodeDB:           Newf(ErrorCodeDB, "insert %s", "rewrite_runs"),
		ErrorCodeNotFound:     ErrNotFound,
	}
	for want, err := range cases {
		if CodeOf(err) != want {
			t.Fatalf("%v: code = %v", err, CodeOf(err))
		}
	}
}

package logger

import (
	"bytes"
	"context"
	"testing"

	kit "uwhatgov/internal/platform/testkit"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":    zerolog.TraceLevel,
		" INFO ":   zerolog.InfoLevel,
		"warning":  zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"":         zerolog.DebugLevel,
		"verbose":  zerolog.DebugLevel,
		"disabled": zerolog.Disabled,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("LOG_SERVICE", "uwhatgov-api")
	t.Setenv("LOG_CALLER", "yes")

	opt := FromEnv()
	if opt.Level != "warn" || opt.Format != "json" || opt.Service != "uwhatgov-api" || !opt.WithCaller {
		t.Fatalf("FromEnv = %+v", opt)
	}
}

// the root logger is process wide so one test drives Init and every child
func TestRootAndChildren(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "info", Format: "json", Service: "uwhatgov-api", Writer: &buf})
	Init(Options{Level: "debug", Format: "json", Writer: &buf})

	Named("stream").Info().Msg("generation started")
	Named("").Debug().Msg("below info")

	ctx := WithRequest(context.Background(), "req-1", "sess-1")
	ctx = WithStream(ctx, "run-9", "debate-42")
	C(ctx).Info().Msg("record sent")
	C(context.Background()).Warn().Msg("no fields")

	out := buf.String()
	for _, want := range []string{
		`"service":"uwhatgov-api"`,
		`"component":"stream"`,
		`"request_id":"req-1"`,
		`"session_id":"sess-1"`,
		`"stream_id":"run-9"`,
		`"debate_id":"debate-42"`,
		`"message":"no fields"`,
	} {
		kit.MustContain(t, out, want)
	}
	if bytes.Contains(buf.Bytes(), []byte("below info")) {
		t.Fatal("second Init must not replace the root logger")
	}
}

func TestWithEmptyIDsKeepsContext(t *testing.T) {
	ctx := context.Background()
	if WithStream(ctx, "", "") != ctx || WithRequest(ctx, "", "") != ctx {
		t.Fatal("empty ids should not wrap ctx")
	}
}

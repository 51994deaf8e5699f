package pg

import (
	"context"
	"strings"

	"uwhatgov/internal/platform/logger"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// QueryEvent describes one finished statement
type QueryEvent struct {
	SQL       string
	Args      any
	ElapsedUS int64
	Err       error
	Slow      bool
}

// QueryTracer observes finished statements
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer logs every statement on root, regardless of the process level
// slow statements log at warn
func Tracer(root logger.Logger) QueryTracer {
	return &logTracer{log: root.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()}
}

type logTracer struct{ log logger.Logger }

func (l *logTracer) OnQuery(_ context.Context, ev QueryEvent) {
	evt := l.log.Info()
	if ev.Slow {
		evt = l.log.Warn()
	}
	evt.Float64("elapsed_ms", float64(ev.ElapsedUS)/1000).
		Bool("slow", ev.Slow).
		Str("sql", compact(ev.SQL)).
		Interface("args", ev.Args).
		Err(ev.Err).
		Msg("pg query")
}

// Spans records statements as events on the span carried by ctx
// statements run outside a recording span are ignored
func Spans() QueryTracer { return spanTracer{} }

type spanTracer struct{}

func (spanTracer) OnQuery(ctx context.Context, ev QueryEvent) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("db.system", "postgresql"),
		attribute.String("db.statement", compact(ev.SQL)),
		attribute.Int64("db.elapsed_us", ev.ElapsedUS),
		attribute.Bool("db.slow", ev.Slow),
	}
	if ev.Err != nil {
		attrs = append(attrs, attribute.String("db.error", ev.Err.Error()))
	}
	span.AddEvent("pg.query", trace.WithAttributes(attrs...))
}

// Chain fans an event out to every non nil tracer, nil when none remain
func Chain(tracers ...QueryTracer) QueryTracer {
	var live chain
	for _, t := range tracers {
		if t != nil {
			live = append(live, t)
		}
	}
	switch len(live) {
	case 0:
		return nil
	case 1:
		return live[0]
	}
	return live
}

type chain []QueryTracer

func (c chain) OnQuery(ctx context.Context, ev QueryEvent) {
	for _, t := range c {
		t.OnQuery(ctx, ev)
	}
}

// compact folds whitespace runs so statements log on one line
func compact(s string) string { return strings.Join(strings.Fields(s), " ") }

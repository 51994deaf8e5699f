// Package telemetry wires OpenTelemetry tracing for the process
// With no endpoint configured nothing is exported and the global no op provider stays in place
package telemetry

import (
	"context"
	"errors"
	"net/http"
	"strings"

	perr "uwhatgov/internal/platform/errors"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentation = "uwhatgov"

// Config configures the otlp http exporter
type Config struct {
	Endpoint       string // base url, /v1/traces is appended
	Headers        string // k=v,k2=v2
	ServiceName    string
	ServiceVersion string
}

// Enabled reports whether an exporter endpoint is set
func (c Config) Enabled() bool { return strings.TrimSpace(c.Endpoint) != "" }

// Telemetry owns the tracer provider installed by Setup
type Telemetry struct {
	tp *sdktrace.TracerProvider
}

// Setup installs a batching tracer provider when cfg is enabled
// returns nil when disabled, Shutdown is safe on nil
func Setup(ctx context.Context, cfg Config) (*Telemetry, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "otel resource")
	}

	exp, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(strings.TrimRight(cfg.Endpoint, "/")+"/v1/traces"),
		otlptracehttp.WithHeaders(ParseHeaders(cfg.Headers)),
	)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "otel trace exporter")
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return &Telemetry{tp: tp}, nil
}

// Shutdown flushes pending spans
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil || t.tp == nil {
		return nil
	}
	if err := t.tp.Shutdown(ctx); err != nil {
		return errors.Join(errors.New("tracer shutdown"), err)
	}
	return nil
}

// Tracer returns a named tracer from the global provider
func Tracer(component string) trace.Tracer {
	return otel.Tracer(instrumentation + "/" + component)
}

// Middleware wraps handlers in a server span named after the operation
func Middleware(operation string) func(http.Handler) http.Handler {
	return otelhttp.NewMiddleware(operation)
}

// ParseHeaders splits k=v pairs separated by commas
func ParseHeaders(s string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		if k = strings.TrimSpace(k); k != "" {
			out[k] = strings.TrimSpace(v)
		}
	}
	return out
}

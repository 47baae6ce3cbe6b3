package telemetry

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const httpSpanName = "docflow.http"

// Provider owns the tracer provider installed by Setup.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// Shutdown flushes pending spans. Safe on a nil Provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}

// Enabled reports whether spans are exported.
func (p *Provider) Enabled() bool { return p != nil && p.tp != nil }

type target struct {
	endpoint string
	path     string
	insecure bool
}

// resolveTarget accepts "host:port" or an http(s) URL.
func resolveTarget(raw string) (target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return target{}, fmt.Errorf("telemetry: empty endpoint")
	}
	if !strings.Contains(raw, "://") {
		ep := raw
		if !strings.Contains(ep, ":") {
			ep = net.JoinHostPort(ep, "4318")
		}
		return target{endpoint: ep, insecure: true}, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return target{}, fmt.Errorf("telemetry: parse endpoint: %w", err)
	}
	t := target{endpoint: u.Host, path: strings.TrimSuffix(u.Path, "/")}
	switch strings.ToLower(u.Scheme) {
	case "http":
		t.insecure = true
	case "https":
	default:
		return target{}, fmt.Errorf("telemetry: unsupported scheme %q", u.Scheme)
	}
	if t.endpoint == "" {
		return target{}, fmt.Errorf("telemetry: endpoint %q has no host", raw)
	}
	if !strings.Contains(t.endpoint, ":") {
		t.endpoint = net.JoinHostPort(t.endpoint, "4318")
	}
	return t, nil
}

// Setup installs a global OTLP/HTTP tracer provider. An empty endpoint leaves
// the no-op provider in place and returns a nil Provider.
func Setup(ctx context.Context, endpoint, serviceName string) (*Provider, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, nil
	}
	t, err := resolveTarget(endpoint)
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(t.endpoint),
		otlptracehttp.WithTimeout(10 * time.Second),
	}
	if t.insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if t.path != "" {
		opts = append(opts, otlptracehttp.WithURLPath(t.path))
	}
	exp, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: start trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(1.0))),
		sdktrace.WithBatcher(exp),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	return &Provider{tp: tp}, nil
}

// Wrap instruments an HTTP handler with server spans.
func Wrap(h http.Handler) http.Handler {
	return otelhttp.NewHandler(h, httpSpanName)
}

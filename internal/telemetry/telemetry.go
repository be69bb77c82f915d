// Package telemetry installs the OpenTelemetry tracer provider used by
// routerd.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/vango-dev/nestroute/internal/config"
)

// ErrUnknownExporter is returned for an exporter other than stdout or otlp.
var ErrUnknownExporter = errors.New("telemetry: unknown exporter")

// Options are the inputs of Init beyond the config.
type Options struct {
	ServiceVersion string

	// Writer receives stdout exporter output (default: io.Discard).
	Writer io.Writer
}

// Init builds a tracer provider from cfg and installs it globally. The
// returned shutdown flushes pending spans. When tracing is disabled Init
// installs nothing and shutdown is a no-op.
func Init(ctx context.Context, cfg config.TracingConfig, opts Options) (shutdown func(context.Context) error, err error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	tp, err := NewProvider(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// NewProvider builds a tracer provider without installing it.
func NewProvider(ctx context.Context, cfg config.TracingConfig, opts Options) (*sdktrace.TracerProvider, error) {
	exporter, err := newExporter(ctx, cfg, opts)
	if err != nil {
		return nil, fmt.Errorf("create exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", "routerd"),
		attribute.String("service.version", opts.ServiceVersion),
	)

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	), nil
}

func newExporter(ctx context.Context, cfg config.TracingConfig, opts Options) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "otlp":
		grpcOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, grpcOpts...)
	case "stdout":
		w := opts.Writer
		if w == nil {
			w = io.Discard
		}
		return stdouttrace.New(stdouttrace.WithWriter(w))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownExporter, cfg.Exporter)
	}
}

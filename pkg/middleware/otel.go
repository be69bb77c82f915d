package middleware

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/nestroute/pkg/router"
)

const defaultTracerName = "github.com/vango-dev/nestroute"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer.
	TracerName string

	// TracerProvider overrides the global provider.
	TracerProvider trace.TracerProvider

	// IncludeSegments records the raw old and new segments. Segments may
	// carry user data in their query - enabled by default.
	IncludeSegments bool

	// Filter determines which transitions to trace.
	// If nil, all transitions are traced.
	Filter func(t *router.Transition) bool

	// AttributeExtractor adds custom attributes when the span starts.
	AttributeExtractor func(t *router.Transition) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithIncludeSegments enables/disables recording raw segments.
func WithIncludeSegments(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeSegments = include
	}
}

// WithTransitionFilter sets a filter function for transitions.
func WithTransitionFilter(filter func(t *router.Transition) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(t *router.Transition) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName:      defaultTracerName,
		IncludeSegments: true,
	}
}

// OpenTelemetry creates middleware that traces every transition.
//
// The tracer comes from the global provider unless WithTracerProvider is
// given. Configure it in main() before starting routers:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) router.Middleware {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}

	var tracer trace.Tracer
	if config.TracerProvider != nil {
		tracer = config.TracerProvider.Tracer(config.TracerName)
	} else {
		tracer = otel.Tracer(config.TracerName)
	}

	return router.MiddlewareFunc(func(ctx context.Context, t *router.Transition, next func(context.Context) error) error {
		if config.Filter != nil && !config.Filter(t) {
			return next(ctx)
		}

		attrs := []attribute.KeyValue{
			attribute.String("router.transition_id", t.ID),
			attribute.String("router.kind", t.Kind.String()),
		}
		if config.IncludeSegments {
			attrs = append(attrs,
				attribute.String("router.segment.old", t.OldSegment),
				attribute.String("router.segment.new", t.NewSegment),
			)
		}
		if config.AttributeExtractor != nil {
			attrs = append(attrs, config.AttributeExtractor(t)...)
		}

		spanCtx, span := tracer.Start(ctx, "router.transition "+t.Kind.String(),
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attrs...),
		)
		defer span.End()

		err := next(spanCtx)

		span.SetAttributes(attribute.String("router.outcome", t.Outcome.String()))
		if t.To != nil && t.To.Router != nil {
			span.SetAttributes(attribute.String("router.route", t.To.Router.FullName()))
		}
		if t.From != nil && t.From.Router != nil {
			span.SetAttributes(attribute.String("router.route.from", t.From.Router.FullName()))
		}

		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case t.Outcome == router.OutcomeInterrupted:
			span.SetStatus(codes.Error, "interrupted")
		default:
			span.SetStatus(codes.Ok, "")
		}
		if errors.Is(err, context.Canceled) {
			span.SetAttributes(attribute.Bool("router.cancelled", true))
		}

		return err
	})
}

// SpanFromHook returns the transition span visible to a hook, or nil when
// the transition is not traced.
func SpanFromHook(hc *router.HookContext) trace.Span {
	span := trace.SpanFromContext(hc.Context())
	if !span.SpanContext().IsValid() {
		return nil
	}
	return span
}

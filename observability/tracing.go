package observability

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/comalice/loopx"
)

const instrumentationName = "github.com/comalice/loopx"

// TracingOption configures a TracingLogger.
type TracingOption func(*tracingConfig)

type tracingConfig struct {
	tracer trace.Tracer
	meter  metric.Meter
}

// WithTracerProvider sets a custom tracer provider
func WithTracerProvider(provider trace.TracerProvider) TracingOption {
	return func(c *tracingConfig) {
		c.tracer = provider.Tracer(instrumentationName)
	}
}

// WithMeterProvider sets a custom meter provider
func WithMeterProvider(provider metric.MeterProvider) TracingOption {
	return func(c *tracingConfig) {
		c.meter = provider.Meter(instrumentationName)
	}
}

// TracingLogger opens one span per init and per update. Exceptions mark the
// span as failed. Use one TracingLogger per loop: hooks for a loop never overlap,
// so a single open span is tracked.
type TracingLogger[M, E, F any] struct {
	loop    string
	ctx     context.Context
	tracer  trace.Tracer
	updates metric.Int64Counter

	mu   sync.Mutex
	span trace.Span
}

// NewTracingLogger creates a TracingLogger for the loop name. Spans are rooted
// in ctx.
func NewTracingLogger[M, E, F any](ctx context.Context, loop string, opts ...TracingOption) (*TracingLogger[M, E, F], error) {
	cfg := tracingConfig{
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	updates, err := cfg.meter.Int64Counter(
		"loopx.update.count",
		metric.WithDescription("Number of update calls"),
		metric.WithUnit("{update}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create update counter: %w", err)
	}

	return &TracingLogger[M, E, F]{
		loop:    loop,
		ctx:     ctx,
		tracer:  cfg.tracer,
		updates: updates,
	}, nil
}

func (l *TracingLogger[M, E, F]) start(name string, attrs ...attribute.KeyValue) {
	attrs = append(attrs, attribute.String("loop.name", l.loop))
	_, span := l.tracer.Start(l.ctx, name, trace.WithAttributes(attrs...))

	l.mu.Lock()
	l.span = span
	l.mu.Unlock()
}

func (l *TracingLogger[M, E, F]) end(fn func(trace.Span)) {
	l.mu.Lock()
	span := l.span
	l.span = nil
	l.mu.Unlock()
	if span == nil {
		return
	}
	fn(span)
	span.End()
}

func (l *TracingLogger[M, E, F]) BeforeInit(M) {
	l.start("loopx.init")
}

func (l *TracingLogger[M, E, F]) AfterInit(_ M, result loopx.First[M, F]) {
	l.end(func(span trace.Span) {
		span.SetAttributes(attribute.Int("loop.effects", len(result.Effects())))
	})
}

func (l *TracingLogger[M, E, F]) ExceptionDuringInit(_ M, err error) {
	l.end(func(span trace.Span) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	})
}

func (l *TracingLogger[M, E, F]) BeforeUpdate(_ M, event E) {
	l.start("loopx.update", attribute.String("loop.event", fmt.Sprint(event)))
}

func (l *TracingLogger[M, E, F]) AfterUpdate(_ M, _ E, result loopx.Next[M, F]) {
	l.updates.Add(l.ctx, 1, metric.WithAttributes(
		attribute.String("loop.name", l.loop),
		attribute.Bool("loop.changed", result.HasModel()),
	))
	l.end(func(span trace.Span) {
		span.SetAttributes(
			attribute.Bool("loop.changed", result.HasModel()),
			attribute.Int("loop.effects", len(result.Effects())),
		)
	})
}

func (l *TracingLogger[M, E, F]) ExceptionDuringUpdate(_ M, _ E, err error) {
	l.end(func(span trace.Span) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	})
}

package observability

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/comalice/loopx"
)

func TestTracingLoggerSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)

	ctx := context.Background()
	l, err := NewTracingLogger[int, string, string](ctx, "counter", WithTracerProvider(tp))
	if err != nil {
		t.Fatalf("NewTracingLogger() failed: %v", err)
	}

	l.BeforeInit(0)
	l.AfterInit(0, loopx.NewFirst[int, string](0))
	l.BeforeUpdate(0, "inc")
	l.AfterUpdate(0, "inc", loopx.NewNext[int, string](1))
	l.BeforeUpdate(1, "boom")
	l.ExceptionDuringUpdate(1, "boom", errors.New("kaput"))

	if err := tp.ForceFlush(ctx); err != nil {
		t.Fatalf("ForceFlush failed: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(spans))
	}

	wantNames := []string{"loopx.init", "loopx.update", "loopx.update"}
	for i, want := range wantNames {
		if spans[i].Name != want {
			t.Errorf("span %d name = %q, want %q", i, spans[i].Name, want)
		}
	}

	if spans[1].Status.Code == codes.Error {
		t.Error("successful update marked as error")
	}
	if spans[2].Status.Code != codes.Error {
		t.Errorf("failed update status = %v, want Error", spans[2].Status.Code)
	}
	if len(spans[2].Events) == 0 {
		t.Error("failed update span has no recorded error event")
	}

	found := false
	for _, attr := range spans[1].Attributes {
		if string(attr.Key) == "loop.event" && attr.Value.AsString() == "inc" {
			found = true
			break
		}
	}
	if !found {
		t.Error("update span missing loop.event attribute")
	}
}

func TestTracingLoggerEndWithoutStart(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	l, err := NewTracingLogger[int, string, string](context.Background(), "counter", WithTracerProvider(tp))
	if err != nil {
		t.Fatal(err)
	}
	l.AfterUpdate(0, "stray", loopx.NoChange[int, string]())

	if got := len(exporter.GetSpans()); got != 0 {
		t.Errorf("expected no spans, got %d", got)
	}
}

func TestTracingLoggerUpdateCounter(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
	)

	ctx := context.Background()
	l, err := NewTracingLogger[int, string, string](ctx, "counter", WithMeterProvider(mp))
	if err != nil {
		t.Fatalf("NewTracingLogger() failed: %v", err)
	}

	l.BeforeUpdate(0, "inc")
	l.AfterUpdate(0, "inc", loopx.NewNext[int, string](1))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(rm.ScopeMetrics) == 0 {
		t.Fatal("no scope metrics collected")
	}

	found := false
	for _, m := range rm.ScopeMetrics[0].Metrics {
		if m.Name == "loopx.update.count" {
			found = true
		}
	}
	if !found {
		t.Error("missing metric: loopx.update.count")
	}
}

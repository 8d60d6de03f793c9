package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// recordSpans installs an in-memory tracer provider for the test.
func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func attrMap(attrs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value, len(attrs))
	for _, kv := range attrs {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestStartSetSpan(t *testing.T) {
	recorder := recordSpans(t)

	_, span := StartSetSpan(context.Background(), "AnalyzeGaps", "set-1", "bold")
	span.SetAttributes(AttrGaps.Int(3))
	span.End()

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	got := ended[0]
	if got.Name() != "AnalyzeGaps" {
		t.Fatalf("span name = %q", got.Name())
	}
	if got.InstrumentationScope().Name != "deepcrate/planner" {
		t.Fatalf("scope = %q", got.InstrumentationScope().Name)
	}
	attrs := attrMap(got.Attributes())
	if attrs["deepcrate.set_id"].AsString() != "set-1" {
		t.Errorf("set id = %v", attrs["deepcrate.set_id"])
	}
	if attrs["deepcrate.risk_mode"].AsString() != "bold" {
		t.Errorf("risk mode = %v", attrs["deepcrate.risk_mode"])
	}
	if attrs["deepcrate.gaps"].AsInt64() != 3 {
		t.Errorf("gaps = %v", attrs["deepcrate.gaps"])
	}
}

func TestSetAttributesSkipsEmpty(t *testing.T) {
	tests := []struct {
		name     string
		setID    string
		riskMode string
		want     int
	}{
		{name: "both", setID: "s", riskMode: "safe", want: 2},
		{name: "mode only", riskMode: "safe", want: 1},
		{name: "id only", setID: "s", want: 1},
		{name: "neither", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SetAttributes(tt.setID, tt.riskMode); len(got) != tt.want {
				t.Fatalf("expected %d attributes, got %v", tt.want, got)
			}
		})
	}
}

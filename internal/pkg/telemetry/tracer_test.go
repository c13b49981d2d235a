package telemetry

import (
	"context"
	"testing"
)

func TestTracer_NoopBeforeInit(t *testing.T) {
	_, span := Tracer().Start(context.Background(), "measure")
	defer span.End()

	span.SetAttributes(AttrZoom.Float64(13), AttrMarkers.Int(6))
	if span.SpanContext().IsValid() {
		t.Error("expected a non-recording span without a provider")
	}
}

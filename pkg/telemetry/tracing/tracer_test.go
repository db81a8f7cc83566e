package tracing

import (
	"context"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"corvid-labs/vigil/pkg/config"
)

func TestNewDisabled(t *testing.T) {
	tracer, err := New(context.Background(), &config.TracingConfig{Enabled: false})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if tracer.Enabled() {
		t.Error("Enabled() = true for disabled config")
	}

	// The noop tracer must still produce usable spans.
	_, span := tracer.Tracer().Start(context.Background(), "probe")
	span.End()

	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNewEnabledRequiresEndpoint(t *testing.T) {
	_, err := New(context.Background(), &config.TracingConfig{Enabled: true})
	if err == nil {
		t.Fatal("New() error = nil, want error for missing endpoint")
	}
}

func TestNewNilConfig(t *testing.T) {
	if _, err := New(context.Background(), nil); err == nil {
		t.Fatal("New(nil) error = nil, want error")
	}
}

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		name  string
		ratio float64
		want  string
	}{
		{name: "everything", ratio: 1.0, want: sdktrace.AlwaysSample().Description()},
		{name: "above one", ratio: 2.0, want: sdktrace.AlwaysSample().Description()},
		{name: "nothing", ratio: 0, want: sdktrace.NeverSample().Description()},
		{name: "half", ratio: 0.5, want: sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.5)).Description()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := samplerFor(tt.ratio).Description(); got != tt.want {
				t.Errorf("samplerFor(%v) = %q, want %q", tt.ratio, got, tt.want)
			}
		})
	}
}

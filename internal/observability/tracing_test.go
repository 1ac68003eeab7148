package observability

import (
	"context"
	"errors"
	"testing"
)

func TestTracingConfigFromEnv(t *testing.T) {
	t.Setenv("ORRERY_TRACING_ENABLED", "TRUE")
	t.Setenv("ORRERY_TRACING_EXPORTER", "OTLP")
	t.Setenv("ORRERY_TRACING_SAMPLE_RATIO", "0.25")
	t.Setenv("ORRERY_OTLP_ENDPOINT", "collector:4317")

	cfg := TracingConfigFromEnv()
	if !cfg.Enabled || cfg.Exporter != "otlp" || cfg.SampleRatio != 0.25 || cfg.Endpoint != "collector:4317" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.ServiceName != "orrery" {
		t.Fatalf("service name = %q, want default", cfg.ServiceName)
	}
}

func TestTracingConfigIgnoresBadRatio(t *testing.T) {
	t.Setenv("ORRERY_TRACING_SAMPLE_RATIO", "7")
	if cfg := TracingConfigFromEnv(); cfg.SampleRatio != 1 || cfg.Enabled {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestInitTracingDisabledIsNoop(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{}, nil)
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestInitTracingRejectsUnknownExporter(t *testing.T) {
	_, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Exporter: "zipkin"}, nil)
	if err == nil {
		t.Fatalf("expected error for unknown exporter")
	}
}

func TestShutdownWithTimeoutSwallowsErrors(t *testing.T) {
	called := false
	ShutdownWithTimeout(context.Background(), func(context.Context) error {
		called = true
		return errors.New("flush failed")
	}, nil)
	if !called {
		t.Fatalf("shutdown func not invoked")
	}
	ShutdownWithTimeout(context.Background(), nil, nil)
}

package viewerapi

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/signalsfoundry/orrery/internal/logging"
	"github.com/signalsfoundry/orrery/internal/session"
	"github.com/signalsfoundry/orrery/timectrl"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return rec
}

func spanAttrs(t *testing.T, rec *tracetest.SpanRecorder, name string) map[attribute.Key]attribute.Value {
	t.Helper()
	for _, s := range rec.Ended() {
		if s.Name() != name {
			continue
		}
		out := make(map[attribute.Key]attribute.Value)
		for _, kv := range s.Attributes() {
			out[kv.Key] = kv.Value
		}
		return out
	}
	t.Fatalf("no ended span named %q", name)
	return nil
}

func TestHandlerSpansCarryViewState(t *testing.T) {
	rec := recordSpans(t)
	sess, err := session.New(context.Background(), session.Config{Clock: timectrl.NewManualClock(viewerStart)})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	t.Cleanup(sess.Close)
	srv := NewServer(sess, logging.Noop())
	ctx := context.Background()

	if _, err := srv.Select(ctx, wrapperspb.String("earth")); err != nil {
		t.Fatalf("Select: %v", err)
	}
	attrs := spanAttrs(t, rec, "session.Select")
	if attrs["orrery.view_mode"].AsString() != "free" ||
		attrs["orrery.transition_reason"].AsString() != "select" ||
		attrs["orrery.selected_body"].AsString() != "earth" ||
		!attrs["orrery.transitioning"].AsBool() {
		t.Fatalf("select span attributes = %v", attrs)
	}

	if _, err := srv.ToggleTopView(ctx, &emptypb.Empty{}); err != nil {
		t.Fatalf("ToggleTopView: %v", err)
	}
	if got := spanAttrs(t, rec, "session.ToggleTopView")["orrery.view_mode"].AsString(); got != "top_down" {
		t.Fatalf("toggle span view mode = %q", got)
	}

	if _, err := srv.ExitView(ctx, &emptypb.Empty{}); err != nil {
		t.Fatalf("ExitView: %v", err)
	}
	if got := spanAttrs(t, rec, "session.ExitView")["orrery.transition_reason"].AsString(); got != "exit" {
		t.Fatalf("exit span transition reason = %q", got)
	}
}

func TestFrameAttributesSettled(t *testing.T) {
	attrs := FrameAttributes(session.Frame{Seq: 4, Mode: "free"})
	for _, kv := range attrs {
		if kv.Key == "orrery.transition_reason" || kv.Key == "orrery.selected_body" {
			t.Fatalf("settled frame carries %s", kv.Key)
		}
	}
	if len(attrs) != 3 {
		t.Fatalf("attributes = %v", attrs)
	}
}

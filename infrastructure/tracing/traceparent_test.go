package tracing

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

const validTraceParent = "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01"

func TestParseTraceParent_Empty(t *testing.T) {
	t.Parallel()

	sc, err := ParseTraceParent("")
	if err != nil {
		t.Fatalf("ParseTraceParent(\"\") error = %v", err)
	}
	if sc.IsValid() {
		t.Error("expected an invalid SpanContext for an empty traceparent")
	}
}

func TestParseTraceParent_Valid(t *testing.T) {
	t.Parallel()

	sc, err := ParseTraceParent(validTraceParent)
	if err != nil {
		t.Fatalf("ParseTraceParent(%q) error = %v", validTraceParent, err)
	}
	if !sc.IsValid() {
		t.Fatal("expected a valid SpanContext")
	}
	if !sc.IsSampled() {
		t.Error("expected the sampled flag to be set")
	}
	if !sc.IsRemote() {
		t.Error("expected the span context to be marked remote")
	}
	if sc.TraceID().String() != "0af7651916cd43dd8448eb211c80319c" {
		t.Errorf("TraceID = %s", sc.TraceID())
	}
}

func TestParseTraceParent_Malformed(t *testing.T) {
	t.Parallel()

	for _, v := range []string{"not-a-traceparent", "01-abc-def-01", "00-short-b7ad6b7169203331-01"} {
		if _, err := ParseTraceParent(v); err == nil {
			t.Errorf("ParseTraceParent(%q) expected an error", v)
		}
	}
}

func TestContextWithTraceParent(t *testing.T) {
	t.Parallel()

	ctx := ContextWithTraceParent(context.Background(), validTraceParent)
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		t.Error("expected the context to carry a valid remote span context")
	}

	// A malformed value must not alter the context.
	ctx2 := ContextWithTraceParent(context.Background(), "garbage")
	if trace.SpanContextFromContext(ctx2).IsValid() {
		t.Error("expected malformed traceparent to leave the context untouched")
	}
}

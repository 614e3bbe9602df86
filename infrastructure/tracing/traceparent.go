// Package tracing continues a W3C trace-context span handed down from
// the coordinator process via the TRACEPARENT environment variable, in
// the W3C trace-context format that OpenTelemetry propagators emit.
package tracing

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// ErrMalformed reports a TRACEPARENT value that doesn't match the W3C
// "version-traceid-spanid-flags" shape.
type ErrMalformed struct {
	Value string
}

func (e *ErrMalformed) Error() string {
	return fmt.Sprintf("tracing: malformed traceparent %q", e.Value)
}

// ParseTraceParent parses a W3C traceparent header value
// ("00-<32 hex trace id>-<16 hex span id>-<2 hex flags>") into a remote
// SpanContext. An empty value is not an error: it means the coordinator
// started no trace, and ParseTraceParent returns a zero, invalid
// SpanContext.
func ParseTraceParent(value string) (trace.SpanContext, error) {
	if value == "" {
		return trace.SpanContext{}, nil
	}

	parts := strings.Split(value, "-")
	if len(parts) != 4 || parts[0] != "00" {
		return trace.SpanContext{}, &ErrMalformed{Value: value}
	}

	traceID, err := trace.TraceIDFromHex(parts[1])
	if err != nil {
		return trace.SpanContext{}, &ErrMalformed{Value: value}
	}
	spanID, err := trace.SpanIDFromHex(parts[2])
	if err != nil {
		return trace.SpanContext{}, &ErrMalformed{Value: value}
	}

	var flags trace.TraceFlags
	if parts[3] == "01" {
		flags = trace.FlagsSampled
	}

	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: flags,
		Remote:     true,
	}), nil
}

// ContextWithTraceParent attaches the span context parsed from value to
// ctx, so spans started against ctx continue the coordinator's trace
// instead of starting a new one. A malformed or empty value leaves ctx
// untouched.
func ContextWithTraceParent(ctx context.Context, value string) context.Context {
	sc, err := ParseTraceParent(value)
	if err != nil || !sc.IsValid() {
		return ctx
	}
	return trace.ContextWithRemoteSpanContext(ctx, sc)
}

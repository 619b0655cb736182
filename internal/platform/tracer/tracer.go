// Package tracer is a small tracing abstraction for the decision engine.
// The engine emits spans without depending on OpenTelemetry APIs directly;
// the otel adapter lives behind the Tracer interface so tests run on the
// no-op implementation.
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span. A non-nil err marks the span as failed.
	// End must be called exactly once, typically via defer.
	End(err error)

	// SetAttributes adds key-value pairs to the span.
	SetAttributes(attrs ...Attribute)

	// AddEvent records a timestamped event within the span.
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	// Start creates a new span. The returned context carries the span and
	// should be passed to child operations.
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute is a key-value pair attached to spans. Attribute values must be
// PII-free: identifiers and rule names only, never field content.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names used by the decision engine.
const (
	SpanEvaluate     = "engine.evaluate"
	SpanBoundaryGate = "engine.boundary"
	SpanConsentGate  = "engine.consent"
	SpanPolicyRules  = "engine.policy"
	SpanRedactField  = "engine.redact"
	SpanPseudonymize = "engine.pseudonymize"
	SpanExportBuild  = "engine.export"
)

// Attribute keys used by the decision engine.
const (
	AttrRule        = "decision.rule"
	AttrAllowed     = "decision.allowed"
	AttrGate        = "decision.gate"
	AttrDataSystem  = "boundary.data_system"
	AttrConsentType = "consent.type"
	AttrCategory    = "redaction.category"
	AttrStrategy    = "redaction.strategy"
	AttrPurpose     = "export.purpose"
)

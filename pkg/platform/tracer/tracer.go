// Package tracer provides a lightweight tracing abstraction for outbound
// collaborator calls (verification, issuance, project token exchange).
//
// Services depend on the Tracer interface; production wiring uses the
// OpenTelemetry adapter and tests use NoopTracer.
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span, marking it failed when err is non-nil.
	// End must be called exactly once, typically via defer.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int creates an integer attribute.
func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: int64(value)}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// HashDID returns a short SHA-256 prefix of a holder DID so traces can be
// correlated without carrying the identifier itself.
func HashDID(did string) string {
	if did == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(did))
	return hex.EncodeToString(hash[:8])
}

// Span names.
const (
	SpanVerifyPresentation = "verifier.verify_vp"
	SpanStartIssuance      = "issuance.start"
	SpanProjectToken       = "projecttoken.exchange"
)

// Attribute keys.
const (
	AttrDefinitionID     = "definition_id"
	AttrCredentialCount  = "credential_count"
	AttrErrorCount       = "error_count"
	AttrCredentialTypeID = "credential_type_id"
	AttrHolderDIDHash    = "holder_did_hash"
	AttrStatusCode       = "http.status_code"
	AttrIsValid          = "is_valid"
	AttrCacheHit         = "cache.hit"
)

package upstream

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a fetch failure. The coordinator and the setup flow
// branch on kinds, never on error strings.
type Kind string

const (
	// KindUnauthorized: the backend rejected the credential (401/403).
	KindUnauthorized Kind = "unauthorized"
	// KindUnreachable: DNS failure, connection refused, or an unexpected
	// HTTP status.
	KindUnreachable Kind = "unreachable"
	// KindTimeout: no response within the configured bound.
	KindTimeout Kind = "timeout"
	// KindMalformed: a 2xx response whose body could not be parsed.
	KindMalformed Kind = "malformed_response"
)

// FetchError is the tagged failure of a single upstream request.
type FetchError struct {
	Kind     Kind
	Resource string
	// RetryAfter carries the backend's Retry-After hint when present;
	// zero otherwise. Transient, never persisted.
	RetryAfter time.Duration
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch %s: %s", e.Resource, e.Kind)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.Resource, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// KindOf extracts the failure kind, or "" if err is not a FetchError.
func KindOf(err error) Kind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// IsKind reports whether err is a FetchError of the given kind.
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}

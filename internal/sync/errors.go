package sync

import (
	"fmt"
	"time"
)

// Kind classifies a failed sync for the caller. Kinds map 1:1 to HTTP
// statuses at the transport layer; the engine itself never touches HTTP.
type Kind string

const (
	KindUnauthorized  Kind = "unauthorized"
	KindNotFound      Kind = "not_found"
	KindRateLimited   Kind = "rate_limited"
	KindLoginRequired Kind = "login_required"
	KindProvider      Kind = "provider_error"
	KindInternal      Kind = "internal_error"
)

// Error is the structured failure returned by the orchestrator. The caller
// switches on Kind rather than unwrapping.
type Error struct {
	Kind    Kind
	Message string
	// ResetAt is set for KindRateLimited only.
	ResetAt time.Time
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func notFoundErr() *Error {
	return &Error{Kind: KindNotFound, Message: "linked item not found"}
}

func rateLimitedErr(resetAt time.Time) *Error {
	return &Error{Kind: KindRateLimited, Message: "sync is on cooldown, try again later", ResetAt: resetAt}
}

func internalErr(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// Package errs defines the error taxonomy shared by every Bonfire component
// and the mapping from errors to wire error codes. Only auth and internal
// errors are fatal to a connection; everything else is a point-in-time
// response that leaves state unchanged.
package errs

import (
	"errors"
	"fmt"
	"time"
)

// Wire error codes surfaced inside error events.
const (
	CodeAuth             = "auth_error"
	CodeValidation       = "validation_error"
	CodeRateLimit        = "rate_limited"
	CodeNotInRoom        = "not_in_room"
	CodeRelayUnavailable = "relay_target_unavailable"
	CodeInternal         = "internal_error"
)

// AuthError reports a failed or revoked authentication. Fatal: the connection
// is closed after it is surfaced.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Reason, e.Err)
	}
	return "auth: " + e.Reason
}

func (e *AuthError) Unwrap() error { return e.Err }

// ValidationError reports a missing or malformed field in a client message.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// RateLimitError reports a fixed-window rejection along with the metadata the
// caller needs to back off.
type RateLimitError struct {
	Remaining int
	ResetAt   time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, resets at %s", e.ResetAt.Format(time.RFC3339))
}

// NotInRoomError reports an operation against a room the caller has not joined.
type NotInRoomError struct {
	RoomID string
}

func (e *NotInRoomError) Error() string {
	return fmt.Sprintf("not a member of room %q", e.RoomID)
}

// RelayTargetUnavailableError reports a signaling relay whose target is not
// online. Relays are best-effort, so callers log and drop rather than surface
// this as a hard failure.
type RelayTargetUnavailableError struct {
	TargetID string
}

func (e *RelayTargetUnavailableError) Error() string {
	return fmt.Sprintf("relay target %q is not online", e.TargetID)
}

// InternalError wraps an unexpected fault. Fatal: the connection is closed.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string { return fmt.Sprintf("internal: %v", e.Err) }
func (e *InternalError) Unwrap() error { return e.Err }

// Fatal reports whether the error must terminate the connection.
func Fatal(err error) bool {
	var authErr *AuthError
	var internalErr *InternalError
	return errors.As(err, &authErr) || errors.As(err, &internalErr)
}

// WireCode maps an error to the code surfaced on the wire. Unknown errors are
// reported as internal.
func WireCode(err error) string {
	var (
		authErr      *AuthError
		validErr     *ValidationError
		rateErr      *RateLimitError
		notInRoomErr *NotInRoomError
		relayErr     *RelayTargetUnavailableError
	)
	switch {
	case errors.As(err, &authErr):
		return CodeAuth
	case errors.As(err, &validErr):
		return CodeValidation
	case errors.As(err, &rateErr):
		return CodeRateLimit
	case errors.As(err, &notInRoomErr):
		return CodeNotInRoom
	case errors.As(err, &relayErr):
		return CodeRelayUnavailable
	default:
		return CodeInternal
	}
}

package mentorshipsvc

import (
	"context"
	"errors"
)

// Kind classifies a service error for callers that map errors to transport
// codes. The string values appear in API responses.
type Kind string

const (
	KindInvalidArgument   Kind = "invalid_argument"
	KindNotFound          Kind = "not_found"
	KindMentorUnavailable Kind = "mentor_unavailable"
	KindDuplicateRequest  Kind = "duplicate_request"
	KindCapacityExceeded  Kind = "capacity_exceeded"
	KindAccessDenied      Kind = "access_denied"
	KindInvalidTransition Kind = "invalid_transition"
	KindConflict          Kind = "conflict"
	KindInternal          Kind = "internal"
)

// Error is a sentinel carrying a Kind. Wrap it with fmt.Errorf("%w: ...") to
// add detail; errors.Is keeps working on the wrapped value.
type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

var (
	ErrInvalidArgument   = &Error{KindInvalidArgument, "invalid argument"}
	ErrNotFound          = &Error{KindNotFound, "mentorship not found"}
	ErrMentorUnavailable = &Error{KindMentorUnavailable, "mentor not available"}
	ErrDuplicateRequest  = &Error{KindDuplicateRequest, "an open mentorship already exists with this mentor"}
	ErrCapacityExceeded  = &Error{KindCapacityExceeded, "mentor has reached maximum mentees"}
	ErrAccessDenied      = &Error{KindAccessDenied, "access denied"}
	ErrInvalidTransition = &Error{KindInvalidTransition, "status transition not allowed"}
	ErrConflict          = &Error{KindConflict, "concurrent update, retry"}
)

// KindOf returns the Kind of err, or KindInternal for errors the service did
// not classify. Context deadlines count as conflicts: the caller may retry.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindConflict
	}
	return KindInternal
}

// Retryable reports whether a caller may retry the same operation.
func Retryable(err error) bool {
	return KindOf(err) == KindConflict
}

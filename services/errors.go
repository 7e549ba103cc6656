package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure for the caller. Every kind is scoped to a single request.
type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindForbidden    ErrorKind = "forbidden"
	KindConflict     ErrorKind = "conflict"
	KindInvalidInput ErrorKind = "invalid_input"
)

var (
	ErrMatchNotFound    = errors.New("match not found")
	ErrOpponentNotFound = errors.New("opponent not found")
	ErrStatsNotFound    = errors.New("no stats recorded for user")

	ErrNotParticipant = errors.New("caller is not part of this match")
	ErrRoleMismatch   = errors.New("caller does not hold the submitted role")
	ErrNotOpponent    = errors.New("only the opponent can accept a challenge")

	ErrAlreadyCompleted     = errors.New("match already completed")
	ErrDuplicateSubmission  = errors.New("result already submitted for this role")
	ErrNotPending           = errors.New("challenge is no longer pending")
	ErrConcurrentSubmission = errors.New("match changed concurrently, please retry")

	ErrSelfChallenge    = errors.New("cannot challenge yourself")
	ErrInvalidMatchType = errors.New("invalid match_type")
	ErrInvalidRole      = errors.New("invalid role")
	ErrInvalidPayload   = errors.New("invalid result payload")
	ErrMissingField     = errors.New("missing required field")
	ErrInvalidSort      = errors.New("invalid sort_by")
)

// Error is the typed failure returned by the match services.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func notFound(err error) error  { return newError(KindNotFound, err) }
func forbidden(err error) error { return newError(KindForbidden, err) }
func conflict(err error) error  { return newError(KindConflict, err) }

func invalid(err error, format string, args ...any) error {
	if format == "" {
		return newError(KindInvalidInput, err)
	}
	return newError(KindInvalidInput, fmt.Errorf("%w: "+format, append([]any{err}, args...)...))
}

// KindOf returns the kind of a service error, or "" for anything else.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

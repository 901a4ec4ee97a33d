// Package economy implements the family coin engine: allocation of earnings,
// the transaction ledger, sub-account transfers, and the purchase approval
// workflow. It performs no locking and no I/O beyond its injected stores;
// callers serialize operations per account.
package economy

import (
	"errors"
	"fmt"
)

// Kind classifies an expected business failure.
type Kind string

// Failure kinds.
const (
	KindInsufficientFunds  Kind = "insufficient_funds"
	KindInvalidRequest     Kind = "invalid_request"
	KindNotFound           Kind = "not_found"
	KindAlreadyResolved    Kind = "already_resolved"
	KindConfigurationError Kind = "configuration_error"
	KindNoInterestEarned   Kind = "no_interest_earned"
)

// Error is a routine, expected failure of an engine operation.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Message
}

// Is matches any *Error of the same kind, so callers can compare against the
// Err* sentinels with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrInsufficientFunds  = &Error{Kind: KindInsufficientFunds}
	ErrInvalidRequest     = &Error{Kind: KindInvalidRequest}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrAlreadyResolved    = &Error{Kind: KindAlreadyResolved}
	ErrConfiguration      = &Error{Kind: KindConfigurationError}
	ErrNoInterestEarned   = &Error{Kind: KindNoInterestEarned}
	ErrInvariantViolation = errors.New("account invariant violated")
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewError builds a classified error. Store implementations outside this
// package use it to report NotFound and AlreadyResolved.
func NewError(kind Kind, format string, args ...any) error {
	return newError(kind, format, args...)
}

// KindOf returns the failure kind of err, or "" for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsNoOp reports whether err marks a successful call that changed nothing.
func IsNoOp(err error) bool {
	return errors.Is(err, ErrNoInterestEarned)
}

// Package apperr holds the error taxonomy shared by the database layer and
// the HTTP layer. Only the HTTP layer decides what a client gets to see.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindInit
	KindNotFound
	KindBadRequest
)

func (k Kind) String() string {
	switch k {
	case KindInit:
		return "init"
	case KindNotFound:
		return "not_found"
	case KindBadRequest:
		return "bad_request"
	default:
		return "internal"
	}
}

// Error carries a Kind plus, for Internal and Init, the underlying cause.
// Reason is only set for BadRequest and is safe to return to the client.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindInternal:
		return fmt.Sprintf("internal error: %v", e.Err)
	case KindInit:
		return fmt.Sprintf("error during initialization: %v", e.Err)
	case KindNotFound:
		return "not found"
	case KindBadRequest:
		if e.Reason == "" {
			return "bad request"
		}
		return "bad request, reason: " + e.Reason
	}
	return "unknown error"
}

func (e *Error) Unwrap() error { return e.Err }

func Internal(err error) *Error { return &Error{Kind: KindInternal, Err: err} }

func Init(err error) *Error { return &Error{Kind: KindInit, Err: err} }

func NotFound() *Error { return &Error{Kind: KindNotFound} }

func BadRequest(reason string) *Error { return &Error{Kind: KindBadRequest, Reason: reason} }

// KindOf reports the Kind of err. Anything that is not an *Error is Internal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

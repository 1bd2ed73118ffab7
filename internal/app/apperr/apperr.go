package apperr

import (
	"errors"
)

// Kind classifies a failure for the transport layer.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindConflict     Kind = "conflict"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindUnavailable  Kind = "unavailable"
)

type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) && existing.Kind == kind {
		return err
	}
	return &Error{Kind: kind, Err: err}
}

func Validation(err error) error   { return wrap(KindValidation, err) }
func Conflict(err error) error     { return wrap(KindConflict, err) }
func Unauthorized(err error) error { return wrap(KindUnauthorized, err) }
func Forbidden(err error) error    { return wrap(KindForbidden, err) }
func NotFound(err error) error     { return wrap(KindNotFound, err) }
func Unavailable(err error) error  { return wrap(KindUnavailable, err) }

// KindOf returns the outermost kind on the chain, or "" for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

package music

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure so callers can decide whether to retry,
// surface, or skip.
type ErrorKind int

const (
	// KindConfiguration marks missing or malformed static credentials. Fatal
	// for that scope, never retried.
	KindConfiguration ErrorKind = iota
	// KindTransient marks upstream 5xx responses and timeouts, retried with
	// bounded backoff before surfacing.
	KindTransient
	// KindValidation marks malformed credential shapes, DRM-only results and
	// unsupported formats. Never retried, never cached.
	KindValidation
	// KindNotFound marks upstream 404s and empty payloads.
	KindNotFound
	// KindDerivation marks secret or version extraction failures.
	KindDerivation
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindTransient:
		return "transient"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindDerivation:
		return "derivation"
	}
	return "unknown"
}

// Error is a classified failure.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds a classified error from a format string.
func Errorf(kind ErrorKind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// WrapError classifies an existing error, preserving its chain.
func WrapError(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf extracts the classification of an error, defaulting to transient for
// unclassified failures so callers err on the side of a bounded retry.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransient
}

// IsKind reports whether err carries the given classification.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

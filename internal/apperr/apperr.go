package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for HTTP mapping and recovery decisions.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidParameter
	KindNotFound
	KindUnsupported
	KindBackend
	KindTransform
	KindAuth
)

func (k Kind) String() string {
	switch k {
	case KindInvalidParameter:
		return "invalid_parameter"
	case KindNotFound:
		return "not_found"
	case KindUnsupported:
		return "unsupported"
	case KindBackend:
		return "backend_error"
	case KindTransform:
		return "transform_error"
	case KindAuth:
		return "auth_error"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error. If err already
// carries a kind it is preserved in the chain and KindOf still finds the
// outermost classification.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf walks the error chain and returns the first classification found.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Package apperr defines the error kinds shared by every component so callers
// can tell a missing catalog from a GitHub outage without string matching.
package apperr

import (
	"fmt"

	"github.com/pkg/errors"
)

type Kind int

const (
	Unknown Kind = iota
	NotFound
	ParseError
	NetworkError
	Timeout
	UpstreamError
	ConfigError
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case ParseError:
		return "parse_error"
	case NetworkError:
		return "network_error"
	case Timeout:
		return "timeout"
	case UpstreamError:
		return "upstream_error"
	case ConfigError:
		return "config_error"
	default:
		return "unknown"
	}
}

// Error is a classified failure. Status is the upstream HTTP status when the
// failure came from a non-success response, zero otherwise.
type Error struct {
	Kind   Kind
	Op     string
	Status int
	Err    error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Status != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Cause() error { return e.Err }

func New(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Newf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: errors.Errorf(format, args...)}
}

// Upstream reports a non-success response from a remote API.
func Upstream(op string, status int, err error) error {
	return &Error{Kind: UpstreamError, Op: op, Status: status, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// StatusOf returns the upstream HTTP status carried by err, or zero.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// Package apierror reduces failed backend calls to a small, stable set of
// error kinds that the rest of the client can reason about.
package apierror

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/pkg/errors"
)

type Kind string

const (
	KindOffline      Kind = "offline"
	KindTimeout      Kind = "timeout"
	KindServerError  Kind = "server_error"
	KindClientError  Kind = "client_error"
	KindNotFound     Kind = "not_found"
	KindUnauthorized Kind = "unauthorized"
	KindUnknown      Kind = "unknown"
)

var (
	ErrOffline      = errors.New("offline")
	ErrTimeout      = errors.New("timeout")
	ErrServer       = errors.New("server error")
	ErrClient       = errors.New("client error")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnknown      = errors.New("unknown error")
)

var sentinels = map[Kind]error{
	KindOffline:      ErrOffline,
	KindTimeout:      ErrTimeout,
	KindServerError:  ErrServer,
	KindClientError:  ErrClient,
	KindNotFound:     ErrNotFound,
	KindUnauthorized: ErrUnauthorized,
	KindUnknown:      ErrUnknown,
}

// Failure is the metadata of a failed call as seen by the client.
type Failure struct {
	// StatusCode is 0 when no response was received.
	StatusCode int
	Cause      error
	Offline    bool
	// Detail is the server supplied error detail, if any.
	Detail string
}

// Error is a classified failure.
type Error struct {
	Kind       Kind
	Message    string
	Retryable  bool
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e == nil {
		return ErrUnknown.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches the per-kind sentinel, so callers can write errors.Is(err, apierror.ErrNotFound).
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	return sentinels[e.Kind] == target
}

// Classify maps a failure to its kind, user-facing message and retryability.
// Offline wins over everything else, then timeouts, then the HTTP status.
func Classify(f Failure) *Error {
	ret := &Error{
		StatusCode: f.StatusCode,
		Cause:      f.Cause,
	}

	switch {
	case f.Offline:
		ret.Kind = KindOffline
		ret.Message = "You are offline. Please check your internet connection."
	case isTimeout(f.Cause):
		ret.Kind = KindTimeout
		ret.Message = "The request timed out. Please try again."
	case f.StatusCode >= 500:
		ret.Kind = KindServerError
		ret.Message = "Server error. Please try again later."
	case f.StatusCode == http.StatusNotFound:
		ret.Kind = KindNotFound
		ret.Message = "The requested resource was not found."
	case f.StatusCode == http.StatusUnauthorized:
		ret.Kind = KindUnauthorized
		ret.Message = "You are not authorized to perform this action."
	case f.StatusCode >= 400:
		ret.Kind = KindClientError
		ret.Message = "The request was invalid."
		if f.Detail != "" {
			ret.Message = f.Detail
		}
	default:
		ret.Kind = KindUnknown
		ret.Message = "An unexpected error occurred."
		if f.Cause != nil {
			ret.Message = f.Cause.Error()
		}
	}

	ret.Retryable = ret.Kind == KindOffline || ret.Kind == KindTimeout || ret.Kind == KindServerError
	return ret
}

// StatusCoder is implemented by transport errors that carry an HTTP response.
type StatusCoder interface {
	HTTPStatus() int
}

// Detailer is implemented by transport errors that carry a server error detail.
type Detailer interface {
	ErrorDetail() string
}

// FromError classifies an arbitrary error. Errors that are already classified
// are returned unchanged.
func FromError(err error, offline bool) *Error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	f := Failure{Cause: err, Offline: offline}
	var sc StatusCoder
	if errors.As(err, &sc) {
		f.StatusCode = sc.HTTPStatus()
	}
	var d Detailer
	if errors.As(err, &d) {
		f.Detail = d.ErrorDetail()
	}
	return Classify(f)
}

// KindOf returns the kind of a classified error, or KindUnknown.
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return KindUnknown
}

// Suppressed reports whether the failure must stay off the global
// notification surface. Not-found and unauthorized are handled by the
// component that made the call.
func Suppressed(err error) bool {
	k := KindOf(err)
	return k == KindNotFound || k == KindUnauthorized
}

// UserMessage returns the best text to show a user for err: the server detail
// if the transport carried one, else the classified message, else err itself.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var d Detailer
	if errors.As(err, &d) && d.ErrorDetail() != "" {
		return d.ErrorDetail()
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Message
	}
	return err.Error()
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}

func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "%s (kind=%s retryable=%t status=%d)", e.Message, e.Kind, e.Retryable, e.StatusCode)
			if e.Cause != nil {
				_, _ = fmt.Fprintf(s, ": %+v", e.Cause)
			}
			return
		}
		_, _ = fmt.Fprint(s, e.Error())
	default:
		_, _ = fmt.Fprint(s, e.Error())
	}
}

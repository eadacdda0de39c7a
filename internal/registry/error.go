package registry

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a registry fetch failed
type ErrorKind string

const (
	// KindTransport means the request never produced a response (DNS, connection, timeout, cancellation)
	KindTransport ErrorKind = "transport"
	// KindStatus means the registry answered with a non-2xx status code
	KindStatus ErrorKind = "status"
	// KindParse means the response body is not valid JSON
	KindParse ErrorKind = "parse"
	// KindSize means the response body exceeded the configured maximum size
	KindSize ErrorKind = "size"
	// KindShape means the response body is valid JSON but not an array of site records
	KindShape ErrorKind = "shape"
)

var (
	// ErrUnavailable is matched by transport, status and parse errors
	ErrUnavailable = errors.New("registry unavailable")

	// ErrInvalidResponse is matched by shape and size errors
	ErrInvalidResponse = errors.New("invalid registry response")
)

// Error represents a failed registry fetch
type Error struct {
	Kind       ErrorKind
	Endpoint   string
	StatusCode int
	Wrapping   error
}

var _ error = (*Error)(nil)

func (err *Error) Error() string {
	msg := fmt.Sprintf("registry %s error", err.Kind)
	if err.Endpoint != "" {
		msg += " for " + err.Endpoint
	}
	if err.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", err.StatusCode)
	}
	if err.Wrapping != nil {
		msg += ": " + err.Wrapping.Error()
	}
	return msg
}

// Unwrap returns the underlying cause
func (err *Error) Unwrap() error {
	return err.Wrapping
}

// Is maps the error kind onto ErrUnavailable or ErrInvalidResponse
func (err *Error) Is(target error) bool {
	switch target {
	case ErrUnavailable:
		return err.Kind == KindTransport || err.Kind == KindStatus || err.Kind == KindParse
	case ErrInvalidResponse:
		return err.Kind == KindShape || err.Kind == KindSize
	}
	return false
}

// KindOf returns the kind of the registry error wrapped in err, or an empty kind if there is none
func KindOf(err error) ErrorKind {
	var regErr *Error
	if errors.As(err, &regErr) {
		return regErr.Kind
	}
	return ""
}

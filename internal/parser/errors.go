package parser

import (
	"errors"
	"fmt"
)

// ErrParser is the single failure category for everything that can go wrong
// talking to the parser service. Use errors.Is(err, ErrParser).
var ErrParser = errors.New("parser error")

// ErrorKind refines ErrParser for logging and metrics.
type ErrorKind string

const (
	KindUnavailable     ErrorKind = "unavailable"      // network failure or timeout
	KindRejected        ErrorKind = "rejected"         // non-2xx response
	KindInvalidResponse ErrorKind = "invalid_response" // body failed decoding or validation
)

// Error is returned by Client.Parse. Message is safe to show to users.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrParser
}

func unavailable(err error, format string, args ...any) *Error {
	return &Error{Kind: KindUnavailable, Message: fmt.Sprintf(format, args...), Err: err}
}

func rejected(status int, message string) *Error {
	return &Error{Kind: KindRejected, StatusCode: status, Message: message}
}

func invalid(err error, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidResponse, Message: fmt.Sprintf(format, args...), Err: err}
}

// Package errors defines the coded errors memeforge returns from its CLI and
// HTTP API.
//
// Every error that reaches a user carries a [Code]. Codes fall into a small
// number of classes ([Class]) that decide how a failure is reported: the HTTP
// server maps classes to status codes and the CLI maps them to exit codes.
//
//	INVALID_*                    input the caller can fix
//	*NOT_FOUND                   missing meme, template or font
//	NETWORK_ERROR, TIMEOUT, ...  upstream services
//	INTERNAL_ERROR, ...          everything else
//
// Usage:
//
//	err := errors.New(errors.ErrCodeInvalidTopic, "topic is required")
//	if errors.Is(err, errors.ErrCodeInvalidTopic) { ... }
//
//	err = errors.Wrap(errors.ErrCodeNetwork, cause, "fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code. It is part of the JSON error body
// returned by the HTTP API.
type Code string

const (
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidTopic  Code = "INVALID_TOPIC"
	ErrCodeInvalidStyle  Code = "INVALID_STYLE"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidURL    Code = "INVALID_URL"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeMemeNotFound Code = "MEME_NOT_FOUND"
	ErrCodeFontNotFound Code = "FONT_NOT_FOUND"

	ErrCodeNetwork         Code = "NETWORK_ERROR"
	ErrCodeTimeout         Code = "TIMEOUT"
	ErrCodeRateLimited     Code = "RATE_LIMITED"
	ErrCodePaymentRequired Code = "PAYMENT_REQUIRED"

	// ErrCodeImageNotReady is returned when a caption is drawn before its
	// base image finished loading.
	ErrCodeImageNotReady Code = "IMAGE_NOT_READY"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Class groups codes by who can act on the failure.
type Class int

const (
	ClassInternal Class = iota
	ClassInput
	ClassNotFound
	ClassUpstream
)

// Class returns the class of c. Unknown codes are internal.
func (c Code) Class() Class {
	switch c {
	case ErrCodeInvalidInput, ErrCodeInvalidTopic, ErrCodeInvalidStyle,
		ErrCodeInvalidFormat, ErrCodeInvalidURL, ErrCodeInvalidPath:
		return ClassInput
	case ErrCodeNotFound, ErrCodeMemeNotFound, ErrCodeFontNotFound:
		return ClassNotFound
	case ErrCodeNetwork, ErrCodeTimeout, ErrCodeRateLimited, ErrCodePaymentRequired:
		return ClassUpstream
	}
	return ClassInternal
}

// Error is an error with a code, a message safe to show to users and an
// optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is makes errors.Is match any *Error with the same code, so package-level
// sentinels keep matching after they are wrapped with more detail.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// New returns an error with code and a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an error with code and a formatted message that wraps cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the first *Error in err's chain has the given code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode returns the code of the first *Error in err's chain, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message of the first *Error in err's chain, without
// the code or cause. Other errors are returned as their Error string.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Exit codes returned by ExitCode.
const (
	ExitFailure  = 1
	ExitInput    = 2
	ExitNotFound = 3
	ExitUpstream = 4
)

// ExitCode returns the process exit status for err: 0 for nil, otherwise one
// of the Exit* constants based on the error's class.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch GetCode(err).Class() {
	case ClassInput:
		return ExitInput
	case ClassNotFound:
		return ExitNotFound
	case ClassUpstream:
		return ExitUpstream
	}
	return ExitFailure
}

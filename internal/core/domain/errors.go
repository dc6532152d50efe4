package domain

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies scrape failures.
type ErrorKind string

const (
	// KindNotFound means the tweet doesn't exist or the tool returned nothing.
	KindNotFound ErrorKind = "NOT_FOUND"
	// KindAuthFailure means the cookies were rejected.
	KindAuthFailure ErrorKind = "AUTH_FAILURE"
	// KindRateLimited means upstream throttled the request.
	KindRateLimited ErrorKind = "RATE_LIMITED"
	// KindMalformedOutput means the tool output lacked required fields.
	KindMalformedOutput ErrorKind = "MALFORMED_OUTPUT"
	// KindProcessError is any other non-zero exit of the external tool.
	KindProcessError ErrorKind = "PROCESS_ERROR"
	// KindTimeout means a single invocation exceeded its deadline.
	KindTimeout ErrorKind = "TIMEOUT"
	// KindPathError is a directory or file write failure.
	KindPathError ErrorKind = "PATH_ERROR"
	// KindBinaryNotFound means the external tool isn't installed.
	KindBinaryNotFound ErrorKind = "BINARY_NOT_FOUND"
	// KindCancelled means the batch was cancelled before the URL finished.
	KindCancelled ErrorKind = "CANCELLED"
)

// AuthRemediation is shown to the user whenever cookies are rejected.
const AuthRemediation = "Authentication failed. Re-extract cookies from your browser."

// ScrapeError is an error with a kind and an optional underlying cause.
type ScrapeError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is transient.
func (e *ScrapeError) Retryable() bool {
	switch e.Kind {
	case KindProcessError, KindTimeout, KindRateLimited:
		return true
	}
	return false
}

// NewError creates a ScrapeError.
func NewError(kind ErrorKind, message string, err error) *ScrapeError {
	return &ScrapeError{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err. Context errors map to KindCancelled and
// anything unclassified is a process error.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCancelled
	}
	return KindProcessError
}

// IsKind checks if err is a ScrapeError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}

// IsRetryable reports whether err should be retried.
func IsRetryable(err error) bool {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return false
}

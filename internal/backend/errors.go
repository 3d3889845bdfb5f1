// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeCanceled
	ErrTypeBackend
	ErrTypeNotFound
	ErrTypeInvalidResponse
	ErrTypeInvalidRequest
)

// String returns the error type name.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeConnection:
		return "connection"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeCanceled:
		return "canceled"
	case ErrTypeBackend:
		return "backend"
	case ErrTypeNotFound:
		return "not-found"
	case ErrTypeInvalidResponse:
		return "invalid-response"
	case ErrTypeInvalidRequest:
		return "invalid-request"
	default:
		return "unknown"
	}
}

// ClientError represents an error from the backend client.
type ClientError struct {
	Type ErrorType
	Op   string

	// Status is the HTTP status code, zero when no response arrived.
	Status  int
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches sentinel errors by type so errors.Is(err, ErrTimeout) works for
// any timeout.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Op == "" && t.Type == e.Type
}

// Sentinel errors for errors.Is checks.
var (
	ErrTimeout    = &ClientError{Type: ErrTypeTimeout}
	ErrConnection = &ClientError{Type: ErrTypeConnection}
	ErrNotFound   = &ClientError{Type: ErrTypeNotFound}
)

// transportError classifies an error returned by http.Client.Do or by the
// rate limiter.
func transportError(op string, err error) *ClientError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &ClientError{Type: ErrTypeTimeout, Op: op, Message: "request timed out", Cause: err}
	case errors.Is(err, context.Canceled):
		return &ClientError{Type: ErrTypeCanceled, Op: op, Message: "request canceled", Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ClientError{Type: ErrTypeTimeout, Op: op, Message: "request timed out", Cause: err}
	}
	return &ClientError{Type: ErrTypeConnection, Op: op, Message: "backend unreachable", Cause: err}
}

func isType(err error, t ErrorType) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == t
	}
	return false
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	return isType(err, ErrTypeTimeout)
}

// IsConnection checks if an error means the backend could not be reached.
func IsConnection(err error) bool {
	return isType(err, ErrTypeConnection)
}

// IsNotFound checks if the backend answered 404.
func IsNotFound(err error) bool {
	return isType(err, ErrTypeNotFound)
}

// IsBackend checks if the backend answered with an error status.
func IsBackend(err error) bool {
	return isType(err, ErrTypeBackend)
}

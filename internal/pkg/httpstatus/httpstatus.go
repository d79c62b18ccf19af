// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package httpstatus provides the error type for unexpected HTTP statuses.
package httpstatus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
)

// maxBodyBytes limits how much of an error response body is kept.
const maxBodyBytes = 512

// Error is returned when a server responds with an unexpected status.
type Error struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Body is the beginning of the response body.
	Body string
}

// NewError reads the start of the response body and returns an Error.
func NewError(resp *http.Response) *Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	return &Error{
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
}

// Error implements error.
func (e *Error) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// IsRetryable reports whether err is a transient failure worth retrying.
//
// Server errors, 429, and network errors are retryable. Context cancellation,
// client errors, and decoding errors are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var statusError *Error
	if errors.As(err, &statusError) {
		return statusError.StatusCode >= 500 || statusError.StatusCode == http.StatusTooManyRequests
	}
	var netError net.Error
	return errors.As(err, &netError)
}

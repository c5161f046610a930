package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// GatewayReason classifies why a payment gateway call did not succeed.
type GatewayReason string

const (
	ReasonTimeout     GatewayReason = "timeout"
	ReasonNetwork     GatewayReason = "network"
	ReasonStatus      GatewayReason = "status"
	ReasonMalformed   GatewayReason = "malformed"
	ReasonUnavailable GatewayReason = "unavailable"
)

// GatewayError is returned for any non-success interaction with a payment provider.
// Payload holds the raw provider response body when one was received.
type GatewayError struct {
	Provider   string
	Op         string
	Reason     GatewayReason
	StatusCode int
	Payload    []byte
	Err        error
}

// Error implements the error interface.
func (e *GatewayError) Error() string {
	msg := fmt.Sprintf("gateway %s %s: %s", e.Provider, e.Op, e.Reason)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (http %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the wrapped error.
func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrGateway.
func (e *GatewayError) Is(target error) bool {
	return target == ErrGateway
}

// Timeout reports whether the call ran out of time.
func (e *GatewayError) Timeout() bool {
	return e.Reason == ReasonTimeout
}

// Retryable reports whether repeating the call later may succeed.
func (e *GatewayError) Retryable() bool {
	switch e.Reason {
	case ReasonTimeout, ReasonNetwork, ReasonUnavailable:
		return true
	case ReasonStatus:
		return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
	default:
		return false
	}
}

// StatusCodeHint returns the HTTP status to report to our own callers.
func (e *GatewayError) StatusCodeHint() int {
	if e.Timeout() {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

// Code returns the API error code for the gateway error.
func (e *GatewayError) Code() string {
	if e.Timeout() {
		return "gateway_timeout"
	}
	return "gateway_error"
}

// NewGatewayError builds a GatewayError, classifying transport errors as timeout or network.
func NewGatewayError(provider, op string, err error) *GatewayError {
	reason := ReasonNetwork
	if IsTimeout(err) {
		reason = ReasonTimeout
	}
	return &GatewayError{Provider: provider, Op: op, Reason: reason, Err: err}
}

// IsTimeout reports whether err is a deadline or network timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// AsGatewayError extracts a GatewayError from err.
func AsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr, true
	}
	return nil, false
}

package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// Kind classifies a failed node call so callers can pick a retry policy
// without string-matching error text.
type Kind int

const (
	KindUnknown Kind = iota
	// KindUnavailable covers connection refused / host unreachable.
	KindUnavailable
	// KindAuthFailed means the node rejected the RPC credentials. Never retried.
	KindAuthFailed
	// KindTimeout means the request exceeded its deadline.
	KindTimeout
	// KindMalformed means the node answered with an unexpected shape.
	KindMalformed
	// KindRPC is a well-formed error response from the node itself.
	KindRPC
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "node_unavailable"
	case KindAuthFailed:
		return "authentication_failed"
	case KindTimeout:
		return "timeout"
	case KindMalformed:
		return "malformed_response"
	case KindRPC:
		return "rpc_error"
	default:
		return "unknown"
	}
}

// Error wraps a failed node call with its classification and the RPC method.
type Error struct {
	Kind   Kind
	Method string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc %s: %s: %v", e.Method, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the classification from an error chain.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindUnknown
}

// Retryable reports whether the failure is worth another attempt.
// Authentication failures and malformed responses are not.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindUnavailable, KindTimeout:
		return true
	}
	return false
}

func classify(method string, err error) *Error {
	kind := KindUnknown

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETUNREACH):
		kind = KindUnavailable
	default:
		var opErr *net.OpError
		if errors.As(err, &opErr) {
			kind = KindUnavailable
		}
	}

	return &Error{Kind: kind, Method: method, Err: err}
}

// Package apierr converts the heterogeneous failures produced by remote
// calls (HTTP status errors, transport failures, plain errors, stray
// values) into one canonical error shape that calling code can rely on.
package apierr

import (
	"errors"
	"fmt"
	"net"
	"net/url"
)

// Code is a stable, machine-readable error identifier.
type Code string

const (
	CodeBadRequest         Code = "BAD_REQUEST"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeNotFound           Code = "NOT_FOUND"
	CodeValidationError    Code = "VALIDATION_ERROR"
	CodeRateLimited        Code = "RATE_LIMITED"
	CodeInternalServer     Code = "INTERNAL_SERVER_ERROR"
	CodeBadGateway         Code = "BAD_GATEWAY"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeGatewayTimeout     Code = "GATEWAY_TIMEOUT"
	CodeNetworkError       Code = "NETWORK_ERROR"
	CodeGenericError       Code = "GENERIC_ERROR"
	CodeUnknownError       Code = "UNKNOWN_ERROR"
)

// Error is the canonical error shape. It is only ever constructed by
// Normalize; treat instances as immutable once built.
type Error struct {
	Code    Code
	Message string
	Status  int            // HTTP status when known, 0 otherwise
	Details map[string]any // full response body for transport errors
}

func (e *Error) Error() string {
	return e.Message
}

// HTTPError represents a server reply with a non-success status.
type HTTPError struct {
	StatusCode int
	Body       map[string]any
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d", e.StatusCode)
}

// RequestError represents a request that went out but got no reply back
// (connection refused, DNS failure, timeout before first byte).
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed: %v", e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

const networkErrorMessage = "Network error - no response received"

var statusCodes = map[int]Code{
	400: CodeBadRequest,
	401: CodeUnauthorized,
	403: CodeForbidden,
	404: CodeNotFound,
	422: CodeValidationError,
	429: CodeRateLimited,
	500: CodeInternalServer,
	502: CodeBadGateway,
	503: CodeServiceUnavailable,
	504: CodeGatewayTimeout,
}

var statusMessages = map[Code]string{
	CodeBadRequest:         "Bad request",
	CodeUnauthorized:       "Unauthorized",
	CodeForbidden:          "Forbidden",
	CodeNotFound:           "Resource not found",
	CodeValidationError:    "Validation failed",
	CodeRateLimited:        "Too many requests",
	CodeInternalServer:     "Internal server error",
	CodeBadGateway:         "Bad gateway",
	CodeServiceUnavailable: "Service unavailable",
	CodeGatewayTimeout:     "Gateway timeout",
	CodeGenericError:       "Request failed",
}

// Normalize converts any caught value into an *Error. It is total: it
// never fails, and its result always carries a Code from the closed set.
func Normalize(raw any) *Error {
	switch v := raw.(type) {
	case nil:
		return &Error{Code: CodeUnknownError, Message: "unknown error"}
	case *Error:
		return v
	case error:
		return normalizeErr(v)
	default:
		return &Error{Code: CodeUnknownError, Message: fmt.Sprint(raw)}
	}
}

func normalizeErr(err error) *Error {
	var alreadyNormalized *Error
	if errors.As(err, &alreadyNormalized) {
		return alreadyNormalized
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return fromStatus(httpErr)
	}

	// A request that never produced a response, whether signalled via our
	// own RequestError or straight from net/http internals.
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return &Error{Code: CodeNetworkError, Message: networkErrorMessage}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &Error{Code: CodeNetworkError, Message: networkErrorMessage}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &Error{Code: CodeNetworkError, Message: networkErrorMessage}
	}

	return &Error{Code: CodeGenericError, Message: err.Error()}
}

func fromStatus(httpErr *HTTPError) *Error {
	code, ok := statusCodes[httpErr.StatusCode]
	if !ok {
		// Statuses outside the table keep their status for diagnostics but
		// classify coarsely: 5xx as server failure, everything else generic.
		if httpErr.StatusCode >= 500 {
			code = CodeInternalServer
		} else {
			code = CodeGenericError
		}
	}

	message := statusMessages[code]
	if body := httpErr.Body; body != nil {
		if m, ok := body["message"].(string); ok && m != "" {
			message = m
		}
	}

	return &Error{
		Code:    code,
		Message: message,
		Status:  httpErr.StatusCode,
		Details: httpErr.Body,
	}
}

// IsRetryable reports whether an error is transient and worth
// re-attempting: no-response network failures, rate limiting, and the
// gateway-class 5xx statuses. Client errors (4xx) and generic/unknown
// failures are not retryable. Independent of Normalize; safe on any value.
func IsRetryable(raw any) bool {
	switch Normalize(raw).Code {
	case CodeNetworkError, CodeRateLimited, CodeBadGateway, CodeServiceUnavailable, CodeGatewayTimeout:
		return true
	default:
		return false
	}
}

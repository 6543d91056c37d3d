// Package resilience provides the provider error taxonomy, bounded retry,
// and circuit breaking for external metric sources.
package resilience

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// ErrorKind classifies a failed provider fetch.
type ErrorKind string

const (
	KindTimeout          ErrorKind = "provider_timeout"
	KindHTTPError        ErrorKind = "provider_http_error"
	KindParseError       ErrorKind = "provider_parse_error"
	KindCacheUnavailable ErrorKind = "cache_unavailable"
	KindInvalidDomain    ErrorKind = "invalid_domain"
	KindRateLimited      ErrorKind = "upstream_rate_limited"
)

// ProviderError wraps an error from a metric provider with its classified
// kind. The analyzer downgrades every ProviderError to a Failure result;
// it never propagates past the single-provider fetch boundary.
type ProviderError struct {
	Provider   string
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps err with a provider name and kind.
func NewProviderError(provider string, kind ErrorKind, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}

// HTTPError builds a ProviderError from an upstream HTTP status.
// 429 is classified as rate limiting, everything else as an HTTP error.
func HTTPError(provider string, statusCode int, err error) *ProviderError {
	kind := KindHTTPError
	if statusCode == http.StatusTooManyRequests {
		kind = KindRateLimited
	}
	return &ProviderError{Provider: provider, Kind: kind, StatusCode: statusCode, Err: err}
}

// KindOf classifies an arbitrary error into the taxonomy. Deadline
// expiry and network timeouts map to KindTimeout; unclassified errors
// default to KindHTTPError.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	return KindHTTPError
}

// IsTransient reports whether an error is safe to retry: timeouts, rate
// limits, retryable HTTP statuses, and common network-level failures.
// Parse errors and invalid subjects are terminal.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		switch pe.Kind {
		case KindTimeout, KindRateLimited:
			return true
		case KindHTTPError:
			return pe.StatusCode == 0 || IsTransientHTTPStatus(pe.StatusCode)
		default:
			return false
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus reports whether an HTTP status indicates a
// transient server-side issue.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

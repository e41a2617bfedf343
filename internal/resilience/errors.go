package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// Kind classifies a failed provider call.
type Kind string

const (
	// KindConfig is an invalid or expired credential (401/403). Fatal for the run.
	KindConfig Kind = "config_error"
	// KindRateLimited is a 429 that survived all retries.
	KindRateLimited Kind = "rate_limited"
	// KindNotFound is a 404. Callers treat it as an empty result.
	KindNotFound Kind = "not_found"
	// KindNetwork is a connection or timeout failure.
	KindNetwork Kind = "network_error"
	// KindProvider is any other non-success response.
	KindProvider Kind = "provider_error"
)

// CallError is the classified failure of a single provider call.
type CallError struct {
	Kind       Kind
	StatusCode int
	Detail     string
	Err        error
}

func (e *CallError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// NewCallError builds a CallError. Detail is truncated to keep logs readable.
func NewCallError(kind Kind, statusCode int, detail string, err error) *CallError {
	const maxDetail = 300
	if len(detail) > maxDetail {
		detail = detail[:maxDetail]
	}
	return &CallError{Kind: kind, StatusCode: statusCode, Detail: detail, Err: err}
}

// KindOf returns the Kind of the first CallError in err's chain, or "".
func KindOf(err error) Kind {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// IsConfigError reports whether err is a fatal credential failure.
func IsConfigError(err error) bool {
	return KindOf(err) == KindConfig
}

// IsNotFound reports whether err is a 404 from the provider.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// ClassifyStatus maps a non-2xx HTTP status to a Kind.
func ClassifyStatus(statusCode int) Kind {
	switch {
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		return KindConfig
	case statusCode == http.StatusNotFound:
		return KindNotFound
	case statusCode == http.StatusTooManyRequests:
		return KindRateLimited
	default:
		return KindProvider
	}
}

// IsTransient returns true if the error is safe to retry: a rate-limited or
// transient 5xx CallError, or a network-level failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ce *CallError
	if errors.As(err, &ce) {
		switch ce.Kind {
		case KindRateLimited, KindNetwork:
			return true
		case KindProvider:
			return IsTransientHTTPStatus(ce.StatusCode)
		default:
			return false
		}
	}

	return IsNetworkError(err)
}

// IsNetworkError matches timeouts, resets, refused connections and DNS failures.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
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
	transientPatterns := []string{
		"connection reset by peer",
		"connection refused",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
		"unexpected eof",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus returns true for gateway-style 5xx responses.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

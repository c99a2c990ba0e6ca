package client

import (
	"net/http"
	"strconv"
	"time"
)

// RetryPolicy decides whether and when a failed attempt is retried. It is an
// explicit, injectable strategy so tests can substitute a zero-delay policy.
type RetryPolicy struct {
	// MaxRetries is the number of retry attempts after the first try.
	MaxRetries int

	// ShouldRetry reports whether a failed attempt is eligible for retry.
	// Exactly one of status (non-zero) or err (non-nil) is meaningful:
	// status is set when a response arrived, err when the transport failed.
	ShouldRetry func(method string, status int, err error) bool

	// Backoff returns the delay before the given retry attempt (1-based).
	// retryAfter carries the upstream's Retry-After duration when present;
	// a policy that honors it should return it unchanged.
	Backoff func(attempt int, retryAfter time.Duration) time.Duration
}

// idempotentMethods are the HTTP methods safe to retry after a transport
// failure without risking side-effect duplication.
var idempotentMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodPut:     {},
	http.MethodDelete:  {},
	http.MethodOptions: {},
}

// DefaultRetryPolicy retries transient failures only: network errors on
// idempotent methods, and 502/503/504 responses. 500 and all 4xx are
// permanent. Backoff is exponential seeded at one second (1s, 2s), unless
// the upstream sent Retry-After.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:  2,
		ShouldRetry: defaultShouldRetry,
		Backoff:     defaultBackoff,
	}
}

// NoRetry disables retries entirely.
func NoRetry() RetryPolicy {
	return RetryPolicy{
		MaxRetries:  0,
		ShouldRetry: func(string, int, error) bool { return false },
		Backoff:     func(int, time.Duration) time.Duration { return 0 },
	}
}

func defaultShouldRetry(method string, status int, err error) bool {
	if err != nil {
		// Transport failure with no response. Retrying is only safe when
		// the method is idempotent.
		_, idempotent := idempotentMethods[method]
		return idempotent
	}
	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func defaultBackoff(attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		return retryAfter
	}
	return time.Duration(1<<uint(attempt-1)) * time.Second
}

// parseRetryAfter reads a Retry-After header as literal seconds. Absent or
// malformed values yield zero.
func parseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	secs, err := strconv.Atoi(h)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

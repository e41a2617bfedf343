package resilience

import (
	"time"
)

// FromRetryConfig converts config values to a RetryConfig using per-class
// backoff bases given in milliseconds.
func FromRetryConfig(maxAttempts, rateLimitBaseMs, networkBaseMs, serverBaseMs int) RetryConfig {
	cfg := DefaultRetryConfig()
	if maxAttempts > 0 {
		cfg.MaxAttempts = maxAttempts
	}
	rl, nw, sv := time.Second, 2*time.Second, time.Second
	if rateLimitBaseMs > 0 {
		rl = time.Duration(rateLimitBaseMs) * time.Millisecond
	}
	if networkBaseMs > 0 {
		nw = time.Duration(networkBaseMs) * time.Millisecond
	}
	if serverBaseMs > 0 {
		sv = time.Duration(serverBaseMs) * time.Millisecond
	}
	cfg.Backoff = ClassBackoff(rl, nw, sv)
	return cfg
}

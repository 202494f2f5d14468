// Package ratelimit paces outgoing HTTP requests so a client stays under
// the remote API's request rate.
package ratelimit

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// Config holds rate limiter configuration
type Config struct {
	RequestsPerSecond float64
	Burst             int
}

// DefaultConfig matches the average rate Notion allows per integration.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 3,
		Burst:             3,
	}
}

// Transport waits for a token before every request and counts the
// responses the server throttled anyway.
type Transport struct {
	next    http.RoundTripper
	limiter *rate.Limiter

	throttled int64
	waited    int64
}

// Metrics for monitoring rate limit behaviour
type Metrics struct {
	Waited    int64
	Throttled int64
}

// NewTransport wraps next. A nil next uses http.DefaultTransport.
func NewTransport(next http.RoundTripper, config Config) *Transport {
	if config.RequestsPerSecond <= 0 {
		config = DefaultConfig()
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}
	if next == nil {
		next = http.DefaultTransport
	}
	return &Transport{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst),
	}
}

// RoundTrip implements http.RoundTripper. It returns the context error if
// the request is cancelled while waiting.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.limiter.Allow() {
		atomic.AddInt64(&t.waited, 1)
		if err := t.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		atomic.AddInt64(&t.throttled, 1)
		slog.WarnContext(req.Context(), "Remote API rate limit hit",
			"path", req.URL.Path,
			"retry_after", resp.Header.Get("Retry-After"))
	}
	return resp, nil
}

// GetMetrics returns current rate limiting metrics
func (t *Transport) GetMetrics() Metrics {
	return Metrics{
		Waited:    atomic.LoadInt64(&t.waited),
		Throttled: atomic.LoadInt64(&t.throttled),
	}
}

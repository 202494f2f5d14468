// Package trace logs outgoing HTTP calls with a per-request id.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// ContextKey type for context keys
type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"
)

// Transport logs every request passing through it.
type Transport struct {
	next    http.RoundTripper
	metrics *Metrics
}

// Metrics tracks request metrics
type Metrics struct {
	TotalRequests  int64
	FailedRequests int64
	LastDurationMs int64
}

// NewTransport wraps next. A nil next uses http.DefaultTransport.
func NewTransport(next http.RoundTripper) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Transport{
		next:    next,
		metrics: &Metrics{},
	}
}

// RoundTrip implements http.RoundTripper. A request id already in the
// context is reused.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	requestID := GetRequestID(req.Context())
	if requestID == "" {
		requestID = GenerateRequestID()
		req = req.WithContext(WithRequestID(req.Context(), requestID))
	}
	ctx := req.Context()

	slog.DebugContext(ctx, "HTTP request started",
		"request_id", requestID,
		"method", req.Method,
		"host", req.URL.Host,
		"path", req.URL.Path)

	atomic.AddInt64(&t.metrics.TotalRequests, 1)

	resp, err := t.next.RoundTrip(req)
	duration := time.Since(start)
	atomic.StoreInt64(&t.metrics.LastDurationMs, duration.Milliseconds())

	if err != nil {
		atomic.AddInt64(&t.metrics.FailedRequests, 1)
		slog.WarnContext(ctx, "HTTP request failed",
			"request_id", requestID,
			"method", req.Method,
			"path", req.URL.Path,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return nil, err
	}

	// Use appropriate log level based on status code
	logLevel := slog.LevelDebug
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		logLevel = slog.LevelWarn
	} else if resp.StatusCode >= 500 {
		logLevel = slog.LevelError
	}
	if resp.StatusCode >= 400 {
		atomic.AddInt64(&t.metrics.FailedRequests, 1)
	}

	slog.Log(ctx, logLevel, "HTTP request completed",
		"request_id", requestID,
		"method", req.Method,
		"path", req.URL.Path,
		"status_code", resp.StatusCode,
		"duration_ms", duration.Milliseconds(),
		"success", resp.StatusCode < 400)

	return resp, nil
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetMetrics returns current metrics
func (t *Transport) GetMetrics() Metrics {
	return Metrics{
		TotalRequests:  atomic.LoadInt64(&t.metrics.TotalRequests),
		FailedRequests: atomic.LoadInt64(&t.metrics.FailedRequests),
		LastDurationMs: atomic.LoadInt64(&t.metrics.LastDurationMs),
	}
}

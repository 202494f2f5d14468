package trace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTransport_RecordsRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr := NewTransport(nil)
	client := &http.Client{Transport: tr}

	for _, path := range []string{"/ok", "/missing"} {
		resp, err := client.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("Get %s: %v", path, err)
		}
		resp.Body.Close()
	}

	m := tr.GetMetrics()
	if m.TotalRequests != 2 {
		t.Errorf("TotalRequests = %d, want 2", m.TotalRequests)
	}
	if m.FailedRequests != 1 {
		t.Errorf("FailedRequests = %d, want 1", m.FailedRequests)
	}
}

type captureTransport struct {
	id string
}

func (c *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.id = GetRequestID(req.Context())
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: req}, nil
}

func TestTransport_RequestID(t *testing.T) {
	t.Run("generated when absent", func(t *testing.T) {
		capture := &captureTransport{}
		req, _ := http.NewRequest(http.MethodGet, "http://example.invalid/", nil)
		if _, err := NewTransport(capture).RoundTrip(req); err != nil {
			t.Fatalf("RoundTrip: %v", err)
		}
		if !strings.HasPrefix(capture.id, "req_") {
			t.Errorf("request id = %q", capture.id)
		}
	})

	t.Run("reused from context", func(t *testing.T) {
		capture := &captureTransport{}
		ctx := WithRequestID(context.Background(), "req_fixed")
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "http://example.invalid/", nil)
		if _, err := NewTransport(capture).RoundTrip(req); err != nil {
			t.Fatalf("RoundTrip: %v", err)
		}
		if capture.id != "req_fixed" {
			t.Errorf("request id = %q, want req_fixed", capture.id)
		}
	})
}

func TestGenerateRequestID_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := GenerateRequestID()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

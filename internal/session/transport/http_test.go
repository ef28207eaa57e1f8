// # internal/session/transport/http_test.go
package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"classforge/internal/core/config"
	"classforge/internal/session/contracts"
)

func newTestHTTP(t *testing.T, handler Handler) *httptest.Server {
	t.Helper()
	cfg := config.Session{
		Transport:        config.TransportHTTP,
		Address:          "127.0.0.1:0",
		MaxResponseItems: 100,
		RequestTimeout:   0,
		RateLimit:        config.RateLimit{PerSecond: 1000, Burst: 100},
	}
	s := NewHTTP(cfg, NewHub())
	s.handler = handler
	server := httptest.NewServer(s.router())
	t.Cleanup(server.Close)
	return server
}

func TestHTTPOpDispatch(t *testing.T) {
	server := newTestHTTP(t, func(ctx context.Context, operation string, params map[string]any) (any, error) {
		if operation != "class.lookup" {
			t.Errorf("Expected operation class.lookup, got %q", operation)
		}
		return map[string]any{"class": params["name"]}, nil
	})

	resp, err := http.Post(server.URL+"/v1/ops/class.lookup", "application/json",
		strings.NewReader(`{"name":"Car"}`))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["class"] != "Car" {
		t.Errorf("Expected class Car, got %v", body["class"])
	}
}

func TestHTTPErrorStatusMapping(t *testing.T) {
	cases := []struct {
		code   string
		status int
	}{
		{contracts.ErrorInvalidArgument, http.StatusBadRequest},
		{contracts.ErrorNotFound, http.StatusNotFound},
		{contracts.ErrorConflict, http.StatusConflict},
		{contracts.ErrorUnavailable, http.StatusServiceUnavailable},
		{contracts.ErrorInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		code := tc.code
		server := newTestHTTP(t, func(ctx context.Context, operation string, params map[string]any) (any, error) {
			return nil, contracts.OpError{Code: code, Message: "boom"}
		})
		resp, err := http.Post(server.URL+"/v1/ops/class.lookup", "application/json", strings.NewReader(`{}`))
		if err != nil {
			t.Fatalf("POST failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != tc.status {
			t.Errorf("Expected %s -> %d, got %d", tc.code, tc.status, resp.StatusCode)
		}
	}
}

func TestHTTPRejectsMalformedBody(t *testing.T) {
	server := newTestHTTP(t, func(ctx context.Context, operation string, params map[string]any) (any, error) {
		t.Error("handler must not run for malformed body")
		return nil, nil
	})
	resp, err := http.Post(server.URL+"/v1/ops/class.lookup", "application/json", strings.NewReader(`[1,2]`))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
}

func TestHTTPListOps(t *testing.T) {
	server := newTestHTTP(t, func(ctx context.Context, operation string, params map[string]any) (any, error) {
		return nil, nil
	})
	resp, err := http.Get(server.URL + "/v1/ops")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Service    string                          `json:"service"`
		Operations []contracts.OperationDescriptor `json:"operations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Service != contracts.ServiceName {
		t.Errorf("Expected service %q, got %q", contracts.ServiceName, body.Service)
	}
	if len(body.Operations) != len(contracts.Descriptors()) {
		t.Errorf("Expected %d operations, got %d", len(contracts.Descriptors()), len(body.Operations))
	}
}

func TestHTTPHealthEndpoints(t *testing.T) {
	server := newTestHTTP(t, func(ctx context.Context, operation string, params map[string]any) (any, error) {
		if operation == string(contracts.OperationSystemHealth) {
			return contracts.SystemHealthOutput{Status: "up"}, nil
		}
		return nil, nil
	})

	resp, err := http.Get(server.URL + "/health/live")
	if err != nil {
		t.Fatalf("GET /health/live failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 from /health/live, got %d", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/health/ready")
	if err != nil {
		t.Fatalf("GET /health/ready failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 from /health/ready, got %d", resp.StatusCode)
	}
	var health contracts.SystemHealthOutput
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("failed to decode health body: %v", err)
	}
	if health.Status != "up" {
		t.Errorf("Expected status up, got %q", health.Status)
	}
}

func TestHTTPMetricsEndpoint(t *testing.T) {
	server := newTestHTTP(t, func(ctx context.Context, operation string, params map[string]any) (any, error) {
		return nil, nil
	})
	resp, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 from /metrics, got %d", resp.StatusCode)
	}
}

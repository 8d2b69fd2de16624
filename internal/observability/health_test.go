package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthCheckHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	HealthCheckHandler()(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var status HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if status.Status != "healthy" {
		t.Errorf("Expected status 'healthy', got '%s'", status.Status)
	}

	if status.Service != "speech-gateway" {
		t.Errorf("Expected service 'speech-gateway', got '%s'", status.Service)
	}
}

func TestReadinessHandler_AllHealthy(t *testing.T) {
	checks := map[string]HealthCheckFunc{
		"elevenlabs": func(ctx context.Context) (bool, error) { return true, nil },
	}

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()

	ReadinessHandler(checks)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var status HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if status.Status != "ready" {
		t.Errorf("Expected status 'ready', got '%s'", status.Status)
	}

	dep, ok := status.Dependencies["elevenlabs"]
	if !ok {
		t.Fatal("Expected elevenlabs dependency in response")
	}
	if dep.Status != "healthy" {
		t.Errorf("Expected dependency status 'healthy', got '%s'", dep.Status)
	}
}

func TestReadinessHandler_UnhealthyDependency(t *testing.T) {
	checks := map[string]HealthCheckFunc{
		"elevenlabs": func(ctx context.Context) (bool, error) {
			return false, errors.New("provider not configured")
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()

	ReadinessHandler(checks)(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status 503, got %d", rec.Code)
	}

	var status HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if status.Status != "not_ready" {
		t.Errorf("Expected status 'not_ready', got '%s'", status.Status)
	}

	dep := status.Dependencies["elevenlabs"]
	if dep.Status != "unhealthy" {
		t.Errorf("Expected dependency status 'unhealthy', got '%s'", dep.Status)
	}
	if dep.Message != "provider not configured" {
		t.Errorf("Expected error message in dependency status, got '%s'", dep.Message)
	}
}

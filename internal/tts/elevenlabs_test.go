package tts

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/moccet/speech-gateway/internal/config"
)

func testConfig(apiKey string) *config.Config {
	return &config.Config{
		ElevenLabsAPIKey:           apiKey,
		ElevenLabsModelID:          "eleven_turbo_v2",
		TTSTimeout:                 5,
		RetryMaxAttempts:           1,
		RetryInitialBackoff:        1,
		CircuitBreakerMaxFailures:  100,
		CircuitBreakerResetTimeout: 1,
	}
}

func TestElevenLabsClient_Configured(t *testing.T) {
	client := NewElevenLabsClient(testConfig("test-key"))
	if !client.Configured() {
		t.Error("Expected Configured() true with API key set")
	}

	client = NewElevenLabsClient(testConfig(""))
	if client.Configured() {
		t.Error("Expected Configured() false with empty API key")
	}
}

func TestElevenLabsClient_Synthesize(t *testing.T) {
	wantAudio := []byte("fake-mp3-bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/voice-123" {
			t.Errorf("Expected path '/voice-123', got '%s'", r.URL.Path)
		}
		if r.Header.Get("xi-api-key") != "test-key" {
			t.Errorf("Expected xi-api-key header 'test-key', got '%s'", r.Header.Get("xi-api-key"))
		}
		w.Write(wantAudio)
	}))
	defer server.Close()

	client := NewElevenLabsClient(testConfig("test-key"))
	client.SetAPIURL(server.URL)

	audio, err := client.Synthesize(context.Background(), "Hello there.", "voice-123")
	if err != nil {
		t.Fatalf("Synthesize() failed: %v", err)
	}

	if string(audio) != string(wantAudio) {
		t.Errorf("Expected audio %q, got %q", wantAudio, audio)
	}
}

func TestElevenLabsClient_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "voice not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewElevenLabsClient(testConfig("test-key"))
	client.SetAPIURL(server.URL)

	_, err := client.Synthesize(context.Background(), "Hello.", "missing-voice")
	if err == nil {
		t.Fatal("Expected error for non-200 status")
	}

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("Expected *ProviderError, got %T: %v", err, err)
	}
	if provErr.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", provErr.StatusCode)
	}
}

func TestElevenLabsClient_EmptyAudio(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewElevenLabsClient(testConfig("test-key"))
	client.SetAPIURL(server.URL)

	_, err := client.Synthesize(context.Background(), "Hello.", "voice-123")
	if err == nil {
		t.Fatal("Expected error for empty audio response")
	}
}

func TestElevenLabsClient_Unconfigured(t *testing.T) {
	client := NewElevenLabsClient(testConfig(""))

	_, err := client.Synthesize(context.Background(), "Hello.", "voice-123")
	if err == nil {
		t.Fatal("Expected error when unconfigured")
	}

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("Expected *ProviderError, got %T", err)
	}
}

func TestElevenLabsClient_RetriesTransientFailures(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			http.Error(w, "try again", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("audio"))
	}))
	defer server.Close()

	cfg := testConfig("test-key")
	cfg.RetryMaxAttempts = 3
	client := NewElevenLabsClient(cfg)
	client.SetAPIURL(server.URL)

	audio, err := client.Synthesize(context.Background(), "Hello.", "voice-123")
	if err != nil {
		t.Fatalf("Synthesize() failed after retries: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
	if string(audio) != "audio" {
		t.Errorf("Expected 'audio', got %q", audio)
	}
}

func TestElevenLabsClient_DoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "bad voice id", http.StatusBadRequest)
	}))
	defer server.Close()

	cfg := testConfig("test-key")
	cfg.RetryMaxAttempts = 3
	client := NewElevenLabsClient(cfg)
	client.SetAPIURL(server.URL)

	_, err := client.Synthesize(context.Background(), "Hello.", "voice-123")
	if err == nil {
		t.Fatal("Expected error for 400 response")
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt for non-retryable error, got %d", attempts)
	}
}

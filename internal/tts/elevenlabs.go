package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/moccet/speech-gateway/internal/config"
	"github.com/moccet/speech-gateway/internal/observability"
	"github.com/moccet/speech-gateway/internal/resilience"
)

const defaultAPIURL = "https://api.elevenlabs.io/v1/text-to-speech"

// ElevenLabsClient implements Synthesizer using the ElevenLabs TTS API
type ElevenLabsClient struct {
	apiKey     string
	apiURL     string
	modelID    string
	httpClient *http.Client
	retryCfg   *resilience.RetryConfig
	breaker    *resilience.CircuitBreaker
	logger     zerolog.Logger
}

// elevenLabsRequest is the request payload for the ElevenLabs TTS endpoint
type elevenLabsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id,omitempty"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// NewElevenLabsClient creates a new ElevenLabs TTS client
func NewElevenLabsClient(cfg *config.Config) *ElevenLabsClient {
	return &ElevenLabsClient{
		apiKey:  cfg.ElevenLabsAPIKey,
		apiURL:  defaultAPIURL,
		modelID: cfg.ElevenLabsModelID,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TTSTimeout) * time.Second,
		},
		retryCfg: &resilience.RetryConfig{
			MaxAttempts:       cfg.RetryMaxAttempts,
			InitialBackoff:    time.Duration(cfg.RetryInitialBackoff) * time.Millisecond,
			MaxBackoff:        5 * time.Second,
			BackoffMultiplier: 2.0,
		},
		breaker: resilience.NewCircuitBreaker(
			"elevenlabs",
			cfg.CircuitBreakerMaxFailures,
			time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
		),
		logger: observability.ComponentLogger("elevenlabs"),
	}
}

// SetAPIURL overrides the API endpoint (used by tests)
func (c *ElevenLabsClient) SetAPIURL(url string) {
	c.apiURL = url
}

// Configured reports whether an API key is present
func (c *ElevenLabsClient) Configured() bool {
	return c.apiKey != ""
}

// Synthesize converts text to audio. Transient network and rate-limit
// failures are retried here; the pipeline dispatchers never retry.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if !c.Configured() {
		return nil, &ProviderError{Message: "elevenlabs API key not configured"}
	}

	var audio []byte
	err := c.breaker.Call(func() error {
		return resilience.Retry(func() error {
			data, err := c.doRequest(ctx, text, voiceID)
			if err != nil {
				return err
			}
			audio = data
			return nil
		}, c.retryCfg, resilience.IsRetryableNetworkError)
	})
	observability.UpdateCircuitBreakerState(c.breaker.Name(), int(c.breaker.GetState()))
	if err != nil {
		return nil, err
	}

	return audio, nil
}

func (c *ElevenLabsClient) doRequest(ctx context.Context, text, voiceID string) ([]byte, error) {
	start := time.Now()
	observability.RecordSynthesisStart()

	payload := elevenLabsRequest{
		Text:    text,
		ModelID: c.modelID,
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		observability.RecordSynthesisEnd(start, false)
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s", c.apiURL, voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		observability.RecordSynthesisEnd(start, false)
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.RecordSynthesisEnd(start, false)
		observability.RecordError("network", "elevenlabs")
		return nil, &ProviderError{Message: fmt.Sprintf("synthesis request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		observability.RecordSynthesisEnd(start, false)
		observability.RecordError("provider", "elevenlabs")
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("voice_id", voiceID).
			Msg("Provider returned non-200 status")
		return nil, &ProviderError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("provider returned status %d: %s", resp.StatusCode, bytes.TrimSpace(body)),
		}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.RecordSynthesisEnd(start, false)
		return nil, &ProviderError{Message: fmt.Sprintf("failed to read audio response: %v", err)}
	}

	if len(audio) == 0 {
		observability.RecordSynthesisEnd(start, false)
		return nil, &ProviderError{Message: "provider returned empty audio data"}
	}

	observability.RecordSynthesisEnd(start, true)
	c.logger.Debug().
		Int("text_len", len(text)).
		Int("audio_bytes", len(audio)).
		Dur("latency", time.Since(start)).
		Msg("Synthesis complete")

	return audio, nil
}

package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the speech gateway service
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// ElevenLabs TTS API configuration.
	// The API key is deliberately not required: speech is an optional
	// enhancement, and an unconfigured provider degrades to warn + no-op
	// instead of a startup failure.
	ElevenLabsAPIKey  string `envconfig:"ELEVENLABS_API_KEY" default:""`
	ElevenLabsVoiceID string `envconfig:"ELEVENLABS_VOICE_ID" default:"21m00Tcm4TlvDq8ikWAM"`
	ElevenLabsModelID string `envconfig:"ELEVENLABS_MODEL_ID" default:"eleven_turbo_v2"`
	TTSTimeout        int    `envconfig:"TTS_TIMEOUT" default:"30"` // seconds

	// Synthesis pipeline configuration
	SynthConcurrency int  `envconfig:"SYNTH_CONCURRENCY" default:"3"`   // Max simultaneous provider calls
	CacheMaxEntries  int  `envconfig:"CACHE_MAX_ENTRIES" default:"128"` // Phrase cache capacity
	CacheWarmup      bool `envconfig:"CACHE_WARMUP" default:"true"`     // Pre-synthesize common phrases at startup

	// Resilience configuration (provider client only)
	RetryMaxAttempts           int `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`             // Maximum retry attempts
	RetryInitialBackoff        int `envconfig:"RETRY_INITIAL_BACKOFF" default:"100"`        // Initial backoff in milliseconds
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`   // Failures before opening circuit
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // Seconds before attempting recovery

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.SynthConcurrency < 1 {
		return nil, fmt.Errorf("SYNTH_CONCURRENCY must be at least 1, got %d", cfg.SynthConcurrency)
	}
	if cfg.CacheMaxEntries < 1 {
		return nil, fmt.Errorf("CACHE_MAX_ENTRIES must be at least 1, got %d", cfg.CacheMaxEntries)
	}

	return &cfg, nil
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moccet/speech-gateway/internal/config"
	"github.com/moccet/speech-gateway/internal/observability"
	"github.com/moccet/speech-gateway/internal/pipeline"
	"github.com/moccet/speech-gateway/internal/server"
	"github.com/moccet/speech-gateway/internal/tts"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Int("concurrency", cfg.SynthConcurrency).
		Int("cache_max_entries", cfg.CacheMaxEntries).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Speech Gateway Service starting")

	// Wire the synthesis pipeline
	synth := tts.NewElevenLabsClient(cfg)
	if !synth.Configured() {
		logger.Warn().Msg("ELEVENLABS_API_KEY not set; synthesis requests will be no-ops")
	}
	cache := pipeline.NewPhraseCache(cfg.CacheMaxEntries)
	pipe := pipeline.New(synth, cache, cfg.ElevenLabsVoiceID, cfg.SynthConcurrency)

	// Warm the phrase cache in the background so startup is not blocked
	// on provider round trips
	if cfg.CacheWarmup && synth.Configured() {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()
			pipe.WarmupCache(ctx, cfg.ElevenLabsVoiceID)
		}()
	}

	// Create HTTP server
	mux := http.NewServeMux()

	// Speech streaming WebSocket endpoint
	streamHandler := server.NewStreamHandler(cfg, pipe)
	mux.HandleFunc("/speech/stream", streamHandler.HandleSpeechWS)

	// Health check endpoint
	mux.HandleFunc("/health", observability.HealthCheckHandler())

	// Readiness endpoint
	providerCheck := func(ctx context.Context) (bool, error) {
		if !synth.Configured() {
			return false, fmt.Errorf("elevenlabs API key not configured")
		}
		// No actual API call here to avoid provider costs on every probe
		return true, nil
	}
	mux.HandleFunc("/ready", observability.ReadinessHandler(map[string]observability.HealthCheckFunc{
		"elevenlabs": providerCheck,
	}))

	// Metrics endpoint (Prometheus)
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	// Create HTTP server with timeouts
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("ws://localhost:%s/speech/stream", cfg.Port)).
			Msg("Server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}

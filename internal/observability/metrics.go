package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Synthesis metrics
	synthRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speech_gateway_synthesis_requests_total",
		Help: "Total number of synthesis provider requests",
	}, []string{"status"}) // status: "success", "error", "cached"

	synthLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "speech_gateway_synthesis_latency_seconds",
		Help:    "Synthesis provider latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
	})

	synthInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "speech_gateway_synthesis_in_flight",
		Help: "Number of synthesis provider calls currently in flight",
	})

	// Pipeline metrics
	pipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speech_gateway_pipeline_runs_total",
		Help: "Total number of pipeline runs",
	}, []string{"mode"}) // mode: "batch", "stream", "phrase"

	pipelineRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "speech_gateway_pipeline_run_duration_seconds",
		Help:    "Duration of a full pipeline run in seconds",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	})

	segmentsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "speech_gateway_segments_emitted_total",
		Help: "Total number of audio segments delivered to consumers",
	})

	audioBytesOut = promauto.NewCounter(prometheus.CounterOpts{
		Name: "speech_gateway_audio_bytes_total",
		Help: "Total audio bytes produced by the pipeline",
	})

	// Cache metrics
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "speech_gateway_phrase_cache_hits_total",
		Help: "Total phrase cache hits",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "speech_gateway_phrase_cache_misses_total",
		Help: "Total phrase cache misses",
	})

	// Stream session metrics
	activeStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "speech_gateway_active_streams",
		Help: "Number of active speech streaming sessions",
	})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speech_gateway_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "speech_gateway_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})
)

// RecordSynthesisStart marks the start of one provider call
func RecordSynthesisStart() {
	synthInFlight.Inc()
}

// RecordSynthesisEnd records the outcome and latency of one provider call
func RecordSynthesisEnd(start time.Time, success bool) {
	synthInFlight.Dec()
	synthLatency.Observe(time.Since(start).Seconds())

	status := "success"
	if !success {
		status = "error"
	}
	synthRequests.WithLabelValues(status).Inc()
}

// RecordSynthesisCached records a provider call avoided by a cache hit
func RecordSynthesisCached() {
	synthRequests.WithLabelValues("cached").Inc()
}

// RecordPipelineRun records a completed pipeline run
func RecordPipelineRun(mode string, start time.Time) {
	pipelineRuns.WithLabelValues(mode).Inc()
	pipelineRunDuration.Observe(time.Since(start).Seconds())
}

// RecordSegmentEmitted records one audio segment handed to a consumer
func RecordSegmentEmitted(audioBytes int) {
	segmentsEmitted.Inc()
	audioBytesOut.Add(float64(audioBytes))
}

// RecordCacheHit records a phrase cache hit
func RecordCacheHit() {
	cacheHits.Inc()
}

// RecordCacheMiss records a phrase cache miss
func RecordCacheMiss() {
	cacheMisses.Inc()
}

// RecordStreamStart records the start of a streaming session
func RecordStreamStart() {
	activeStreams.Inc()
}

// RecordStreamEnd records the end of a streaming session
func RecordStreamEnd() {
	activeStreams.Dec()
}

// RecordError records an error
func RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// UpdateCircuitBreakerState updates the circuit breaker state metric
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}

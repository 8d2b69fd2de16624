package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/moccet/speech-gateway/internal/observability"
	"github.com/moccet/speech-gateway/internal/tts"
)

// Pipeline is the public entry point for speech synthesis. It wires the
// segmenter, the phrase cache and the two dispatch modes around a
// Synthesizer. Safe for concurrent use; per-run state is never shared
// between runs.
type Pipeline struct {
	synth              tts.Synthesizer
	cache              *PhraseCache
	defaultVoiceID     string
	defaultConcurrency int
	logger             zerolog.Logger
}

// New creates a Pipeline around a synthesizer. The cache is injected so
// tests and callers can isolate or share phrase caches explicitly.
func New(synth tts.Synthesizer, cache *PhraseCache, defaultVoiceID string, defaultConcurrency int) *Pipeline {
	if defaultConcurrency < 1 {
		defaultConcurrency = 1
	}
	return &Pipeline{
		synth:              synth,
		cache:              cache,
		defaultVoiceID:     defaultVoiceID,
		defaultConcurrency: defaultConcurrency,
		logger:             observability.ComponentLogger("pipeline"),
	}
}

// Segment splits text into speakable chunk texts
func (p *Pipeline) Segment(text string) []string {
	return Segment(text)
}

// EstimateTotalDuration estimates playback time for text in milliseconds
func (p *Pipeline) EstimateTotalDuration(text string) int {
	return EstimateTotalDuration(text)
}

// CacheSize returns the number of cached phrases
func (p *Pipeline) CacheSize() int {
	if p.cache == nil {
		return 0
	}
	return p.cache.Len()
}

// SayPhrase synthesizes a single short phrase directly, bypassing
// segmentation and dispatch entirely. Intended for canned acknowledgements
// where queueing latency matters more than throughput. Returns (nil, nil)
// when the provider is not configured.
func (p *Pipeline) SayPhrase(ctx context.Context, text string, opts RunOptions) (*AudioSegment, error) {
	if !p.synth.Configured() {
		p.logger.Warn().Msg("Synthesis provider not configured, skipping phrase")
		return nil, nil
	}
	opts = p.resolveOptions(opts)

	start := time.Now()
	audio, err := p.synthesizeChunk(ctx, Chunk{Index: 0, Text: text}, opts)
	if err != nil {
		return nil, err
	}
	observability.RecordPipelineRun("phrase", start)

	return &AudioSegment{
		Index:               0,
		Text:                text,
		Audio:               audio,
		EstimatedDurationMs: EstimateChunkDuration(text),
		Final:               true,
	}, nil
}

// WarmupCache pre-synthesizes a fixed list of common phrases so the first
// response of a session plays without a provider round trip. Best-effort:
// individual failures are logged and skipped, and the method never
// returns an error.
func (p *Pipeline) WarmupCache(ctx context.Context, voiceID string) {
	if !p.synth.Configured() {
		p.logger.Warn().Msg("Synthesis provider not configured, skipping cache warmup")
		return
	}
	if p.cache == nil {
		return
	}
	if voiceID == "" {
		voiceID = p.defaultVoiceID
	}

	start := time.Now()
	warmed := 0
	for _, phrase := range warmupPhrases {
		if _, ok := p.cache.Get(voiceID, phrase); ok {
			continue
		}

		audio, err := p.synth.Synthesize(ctx, phrase, voiceID)
		if err != nil {
			p.logger.Warn().Err(err).Str("phrase", phrase).Msg("Cache warmup synthesis failed")
			continue
		}

		p.cache.Set(voiceID, phrase, audio)
		warmed++
	}

	p.logger.Info().
		Int("warmed", warmed).
		Int("cache_size", p.cache.Len()).
		Dur("elapsed", time.Since(start)).
		Msg("Phrase cache warmup complete")
}

// resolveOptions fills in defaults. The concurrency cap is taken as given
// when positive; it exists to respect provider rate limits and is never
// rounded up.
func (p *Pipeline) resolveOptions(opts RunOptions) RunOptions {
	if opts.VoiceID == "" {
		opts.VoiceID = p.defaultVoiceID
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = p.defaultConcurrency
	}
	return opts
}

// synthesizeChunk resolves one chunk to audio: cache lookup first, then a
// provider call, then an opportunistic cache fill for short phrases.
func (p *Pipeline) synthesizeChunk(ctx context.Context, chunk Chunk, opts RunOptions) ([]byte, error) {
	if opts.EnableCaching && p.cache != nil {
		if audio, ok := p.cache.Get(opts.VoiceID, chunk.Text); ok {
			observability.RecordCacheHit()
			observability.RecordSynthesisCached()
			return audio, nil
		}
		observability.RecordCacheMiss()
	}

	audio, err := p.synth.Synthesize(ctx, chunk.Text, opts.VoiceID)
	if err != nil {
		return nil, err
	}

	if opts.EnableCaching && p.cache != nil && len(chunk.Text) < cacheableTextLen {
		p.cache.Set(opts.VoiceID, chunk.Text, audio)
	}

	return audio, nil
}

// warmupPhrases are short acknowledgements used across sessions; all are
// below cacheableTextLen
var warmupPhrases = []string{
	"Hello, how are you today?",
	"Thank you very much for your patience.",
	"Please wait a moment while I look into that.",
	"Good morning, it's great to hear from you.",
	"Is there anything else I can help you with?",
	"Let's get started.",
	"One moment, please.",
	"Take care, and talk to you soon.",
}

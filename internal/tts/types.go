package tts

import "context"

// Synthesizer defines the boundary to a remote speech-synthesis provider.
// Implementations convert text plus a voice identifier into encoded audio
// bytes. The pipeline never interprets the bytes.
type Synthesizer interface {
	// Synthesize converts text to audio using the given voice.
	// Returns a *ProviderError on any non-2xx response or network failure.
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)

	// Configured reports whether the provider has usable credentials.
	// Callers are expected to degrade to a no-op when this is false.
	Configured() bool
}

// ProviderError describes a failed synthesis call
type ProviderError struct {
	StatusCode int // 0 for transport-level failures
	Message    string
}

func (e *ProviderError) Error() string {
	return e.Message
}

// Package pipeline implements the concurrent speech-synthesis pipeline:
// text is split into speakable chunks, each chunk is synthesized against
// the provider under a concurrency cap, and the resulting audio segments
// are delivered in original text order.
package pipeline

// Chunk is an immutable unit of text to synthesize. Index is the zero-based
// position in the original ordering and never changes after segmentation.
type Chunk struct {
	Index int
	Text  string
}

// AudioSegment is the synthesized result for one Chunk
type AudioSegment struct {
	Index               int
	Text                string
	Audio               []byte
	EstimatedDurationMs int
	Final               bool // true iff Index is the last index of the run
}

// RunOptions controls a single pipeline run
type RunOptions struct {
	VoiceID       string
	Concurrency   int // Upper bound on simultaneous provider calls
	EnableCaching bool
}

// BatchResult summarizes a completed batch run
type BatchResult struct {
	Segments                 []AudioSegment
	SuccessRate              float64
	TotalEstimatedDurationMs int
	GenerationTimeMs         int64
}

// BatchCallbacks are optional per-chunk notifications during a batch run.
// Any field may be nil. Callbacks are invoked from worker goroutines but
// never concurrently with each other.
type BatchCallbacks struct {
	OnChunkReady func(segment AudioSegment)
	OnProgress   func(completed, total int)
	OnError      func(index int, err error)
}

// MakeChunks assigns indices to a list of chunk texts
func MakeChunks(texts []string) []Chunk {
	chunks := make([]Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, Chunk{Index: i, Text: text})
	}
	return chunks
}

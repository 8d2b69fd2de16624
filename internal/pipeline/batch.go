package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/moccet/speech-gateway/internal/observability"
)

// RunBatch synthesizes chunks in fixed-size waves of at most
// opts.Concurrency. Each wave runs fully parallel; the next wave starts
// only after the previous one has settled. Individual chunk failures are
// reported through cb.OnError and counted, but never abort siblings or
// later waves. Returns segments sorted by index.
func (p *Pipeline) RunBatch(ctx context.Context, chunks []Chunk, opts RunOptions, cb BatchCallbacks) BatchResult {
	start := time.Now()

	if !p.synth.Configured() {
		p.logger.Warn().Msg("Synthesis provider not configured, skipping batch run")
		return BatchResult{}
	}
	if len(chunks) == 0 {
		return BatchResult{GenerationTimeMs: time.Since(start).Milliseconds()}
	}

	opts = p.resolveOptions(opts)
	total := len(chunks)
	lastIndex := chunks[total-1].Index

	var (
		mu        sync.Mutex
		segments  []AudioSegment
		completed int
		failed    int
	)

	for waveStart := 0; waveStart < total; waveStart += opts.Concurrency {
		waveEnd := waveStart + opts.Concurrency
		if waveEnd > total {
			waveEnd = total
		}
		wave := chunks[waveStart:waveEnd]

		var wg sync.WaitGroup
		for _, chunk := range wave {
			wg.Add(1)
			go func(chunk Chunk) {
				defer wg.Done()

				audio, err := p.synthesizeChunk(ctx, chunk, opts)

				mu.Lock()
				defer mu.Unlock()

				if err != nil {
					failed++
					p.logger.Warn().Err(err).Int("index", chunk.Index).Msg("Chunk synthesis failed")
					if cb.OnError != nil {
						cb.OnError(chunk.Index, err)
					}
					return
				}

				segment := AudioSegment{
					Index:               chunk.Index,
					Text:                chunk.Text,
					Audio:               audio,
					EstimatedDurationMs: EstimateChunkDuration(chunk.Text),
					Final:               chunk.Index == lastIndex,
				}
				segments = append(segments, segment)
				completed++

				observability.RecordSegmentEmitted(len(audio))
				if cb.OnChunkReady != nil {
					cb.OnChunkReady(segment)
				}
				if cb.OnProgress != nil {
					cb.OnProgress(completed, total)
				}
			}(chunk)
		}
		wg.Wait()
	}

	// Wave order already preserves index order within the slice bounds,
	// but completions inside a wave land in arbitrary order.
	sort.Slice(segments, func(i, j int) bool { return segments[i].Index < segments[j].Index })

	totalMs := 0
	for _, s := range segments {
		totalMs += s.EstimatedDurationMs
	}

	observability.RecordPipelineRun("batch", start)
	p.logger.Info().
		Int("chunks", total).
		Int("completed", completed).
		Int("failed", failed).
		Dur("elapsed", time.Since(start)).
		Msg("Batch run complete")

	return BatchResult{
		Segments:                 segments,
		SuccessRate:              float64(completed) / float64(total),
		TotalEstimatedDurationMs: totalMs,
		GenerationTimeMs:         time.Since(start).Milliseconds(),
	}
}

// RunBatchText segments text and runs a batch over the result
func (p *Pipeline) RunBatchText(ctx context.Context, text string, opts RunOptions, cb BatchCallbacks) BatchResult {
	return p.RunBatch(ctx, MakeChunks(Segment(text)), opts, cb)
}

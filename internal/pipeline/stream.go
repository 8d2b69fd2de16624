package pipeline

import (
	"context"
	"time"

	"github.com/moccet/speech-gateway/internal/observability"
)

// completion is one settled synthesis attempt on its way to the reorder
// buffer. ok is false for failed chunks, whose slots are skipped.
type completion struct {
	index   int
	segment AudioSegment
	ok      bool
}

// StreamChunks synthesizes chunks under a sliding concurrency window and
// returns a finite channel of segments in strict index order. Unlike batch
// waves, a completed call immediately frees its slot for the next chunk;
// an internal reorder buffer reconciles out-of-order completions to
// in-order emission. Failed chunks are skipped, not surfaced: playback
// continuity wins over completeness.
//
// The returned channel is buffered to the chunk count, so a consumer that
// stops reading early leaks nothing; in-flight work completes and its
// results are discarded with the channel. The sequence is not restartable.
func (p *Pipeline) StreamChunks(ctx context.Context, chunks []Chunk, opts RunOptions) <-chan AudioSegment {
	out := make(chan AudioSegment, len(chunks))

	if !p.synth.Configured() {
		p.logger.Warn().Msg("Synthesis provider not configured, skipping stream run")
		close(out)
		return out
	}
	if len(chunks) == 0 {
		close(out)
		return out
	}

	opts = p.resolveOptions(opts)
	go p.streamRun(ctx, chunks, opts, out)
	return out
}

// StreamText segments text and streams the result
func (p *Pipeline) StreamText(ctx context.Context, text string, opts RunOptions) <-chan AudioSegment {
	return p.StreamChunks(ctx, MakeChunks(Segment(text)), opts)
}

func (p *Pipeline) streamRun(ctx context.Context, chunks []Chunk, opts RunOptions, out chan<- AudioSegment) {
	defer close(out)
	start := time.Now()
	total := len(chunks)
	lastIndex := chunks[total-1].Index

	// sem bounds simultaneous provider calls at exactly opts.Concurrency.
	// done is buffered to the chunk count so workers never block on a
	// departed coordinator.
	sem := make(chan struct{}, opts.Concurrency)
	done := make(chan completion, total)

	// Launcher: starts chunks in index order as window slots free up.
	go func() {
		for _, chunk := range chunks {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}

			go func(chunk Chunk) {
				defer func() { <-sem }()

				audio, err := p.synthesizeChunk(ctx, chunk, opts)
				if err != nil {
					p.logger.Warn().Err(err).Int("index", chunk.Index).Msg("Chunk synthesis failed, slot will be skipped")
					done <- completion{index: chunk.Index}
					return
				}

				done <- completion{
					index: chunk.Index,
					segment: AudioSegment{
						Index:               chunk.Index,
						Text:                chunk.Text,
						Audio:               audio,
						EstimatedDurationMs: EstimateChunkDuration(chunk.Text),
						Final:               chunk.Index == lastIndex,
					},
					ok: true,
				}
			}(chunk)
		}
	}()

	// Coordinator: owns the reorder buffer and yields strictly in index
	// order. A completion for index n is held until all slots below n
	// have settled; a failed slot advances the cursor without emitting.
	buffer := make(map[int]completion, total)
	nextToYield := chunks[0].Index
	emitted := 0

	for received := 0; received < total; received++ {
		select {
		case comp := <-done:
			buffer[comp.index] = comp
		case <-ctx.Done():
			p.logger.Debug().Msg("Stream run cancelled")
			return
		}

		for {
			comp, ready := buffer[nextToYield]
			if !ready {
				break
			}
			delete(buffer, nextToYield)
			nextToYield++

			if comp.ok {
				observability.RecordSegmentEmitted(len(comp.segment.Audio))
				out <- comp.segment // never blocks: out is buffered to total
				emitted++
			}
		}
	}

	observability.RecordPipelineRun("stream", start)
	p.logger.Info().
		Int("chunks", total).
		Int("emitted", emitted).
		Dur("elapsed", time.Since(start)).
		Msg("Stream run complete")
}

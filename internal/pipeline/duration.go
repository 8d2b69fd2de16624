package pipeline

import "strings"

// Speaking rate of roughly 150 words per minute
const msPerWord = 400

// Pause allowances per punctuation mark
const (
	sentencePauseMs = 300
	clausePauseMs   = 150
)

// EstimateChunkDuration estimates the playback time of a chunk in
// milliseconds. Advisory only; used for progress and telemetry, never
// for correctness.
func EstimateChunkDuration(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}

	ms := words * msPerWord
	for _, r := range text {
		switch r {
		case '.', '!', '?':
			ms += sentencePauseMs
		case ',', ';', ':':
			ms += clausePauseMs
		}
	}
	return ms
}

// EstimateTotalDuration estimates the playback time of an entire text in
// milliseconds, segmented the same way the pipeline would speak it
func EstimateTotalDuration(text string) int {
	total := 0
	for _, chunk := range Segment(text) {
		total += EstimateChunkDuration(chunk)
	}
	return total
}

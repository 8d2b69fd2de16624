package pipeline

import (
	"regexp"
	"strings"
)

const (
	// maxChunkLen is the sentence length above which we re-split at
	// comma/semicolon boundaries to bound per-call synthesis latency
	maxChunkLen = 200

	// minChunkLen is the length below which a chunk is merged into the
	// following one; very short synthesis calls carry fixed per-call
	// overhead that dominates their playback time
	minChunkLen = 30
)

// Tokens that end with a period without ending a sentence
var abbreviations = map[string]struct{}{
	"dr":     {},
	"mr":     {},
	"mrs":    {},
	"ms":     {},
	"prof":   {},
	"sr":     {},
	"jr":     {},
	"st":     {},
	"etc":    {},
	"vs":     {},
	"i.e":    {},
	"e.g":    {},
	"vol":    {},
	"no":     {},
	"approx": {},
	"fig":    {},
}

var paragraphSplit = regexp.MustCompile(`\n\s*\n`)

// Segment splits text into ordered, trimmed, non-empty chunks sized for
// synthesis: paragraphs on blank lines, sentences on terminal punctuation
// (abbreviation-aware), long sentences re-split at clause boundaries,
// short chunks merged into their successor.
func Segment(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []string
	for _, para := range paragraphSplit.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		for _, sentence := range SplitSentences(para) {
			if len(sentence) > maxChunkLen {
				chunks = append(chunks, splitAtClauses(sentence)...)
			} else {
				chunks = append(chunks, sentence)
			}
		}
	}

	return mergeShortChunks(chunks)
}

// SplitSentences splits a paragraph into sentences on `.`, `!` or `?`
// followed by whitespace or end of string. A period preceded by a known
// abbreviation ("Dr.", "etc.", "e.g.") does not end a sentence.
func SplitSentences(para string) []string {
	var sentences []string
	runes := []rune(para)
	start := 0

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		// Only split when the punctuation is followed by whitespace or
		// ends the string; "3.5" and "v1.2" stay intact.
		if i+1 < len(runes) && !isSpace(runes[i+1]) {
			continue
		}
		if r == '.' && isAbbreviation(runes[start:i]) {
			continue
		}

		sentence := strings.TrimSpace(string(runes[start : i+1]))
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = i + 1
	}

	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}

	return sentences
}

// isAbbreviation reports whether the token immediately before a period is
// a known abbreviation
func isAbbreviation(before []rune) bool {
	end := len(before)
	start := end
	for start > 0 {
		r := before[start-1]
		if !isTokenRune(r) {
			break
		}
		start--
	}
	token := strings.ToLower(string(before[start:end]))
	_, ok := abbreviations[token]
	return ok
}

func isTokenRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '.'
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// splitAtClauses breaks an over-long sentence at comma/semicolon
// boundaries. A sentence with no clause boundaries is kept whole.
func splitAtClauses(sentence string) []string {
	var parts []string
	runes := []rune(sentence)
	start := 0

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != ',' && r != ';' {
			continue
		}
		if i+1 < len(runes) && !isSpace(runes[i+1]) {
			continue
		}

		part := strings.TrimSpace(string(runes[start : i+1]))
		if part != "" {
			parts = append(parts, part)
		}
		start = i + 1
	}

	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		parts = append(parts, tail)
	}

	if len(parts) == 0 {
		return []string{sentence}
	}
	return parts
}

// mergeShortChunks prepends any chunk below minChunkLen (except the last)
// to its successor, preventing pathologically short synthesis calls
func mergeShortChunks(chunks []string) []string {
	if len(chunks) == 0 {
		return nil
	}

	var merged []string
	carry := ""
	for i, chunk := range chunks {
		if carry != "" {
			chunk = carry + " " + chunk
			carry = ""
		}
		if len(chunk) < minChunkLen && i < len(chunks)-1 {
			carry = chunk
			continue
		}
		merged = append(merged, chunk)
	}

	return merged
}

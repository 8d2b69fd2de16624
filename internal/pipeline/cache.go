package pipeline

import (
	"strings"
	"sync"
)

// cacheableTextLen bounds the size of cached phrases; long chunks are
// rarely repeated and would dominate the cache's memory footprint
const cacheableTextLen = 100

// PhraseCache is a bounded map of (voice, normalized text) to audio bytes.
// Eviction is deliberately coarse: when full, the oldest 20% of entries by
// insertion order are dropped in one pass rather than tracking strict LRU.
// Safe for concurrent use.
type PhraseCache struct {
	mu         sync.Mutex
	maxEntries int
	entries    map[string][]byte
	order      []string // live keys in insertion order
}

// NewPhraseCache creates a cache holding at most maxEntries phrases
func NewPhraseCache(maxEntries int) *PhraseCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &PhraseCache{
		maxEntries: maxEntries,
		entries:    make(map[string][]byte),
	}
}

// Get returns the cached audio for a voice and phrase, if present
func (c *PhraseCache) Get(voiceID, text string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	audio, ok := c.entries[cacheKey(voiceID, text)]
	return audio, ok
}

// Set stores audio for a voice and phrase, evicting the oldest fifth of
// the cache first if it is full
func (c *PhraseCache) Set(voiceID, text string, audio []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(voiceID, text)
	if _, exists := c.entries[key]; exists {
		c.entries[key] = audio
		return
	}

	if len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}

	c.entries[key] = audio
	c.order = append(c.order, key)
}

// Len returns the number of cached phrases
func (c *PhraseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictOldest drops the oldest 20% of entries (at least one).
// Caller must hold c.mu.
func (c *PhraseCache) evictOldest() {
	n := c.maxEntries / 5
	if n < 1 {
		n = 1
	}
	if n > len(c.order) {
		n = len(c.order)
	}

	for _, key := range c.order[:n] {
		delete(c.entries, key)
	}
	c.order = append([]string(nil), c.order[n:]...)
}

func cacheKey(voiceID, text string) string {
	return voiceID + "|" + strings.ToLower(strings.TrimSpace(text))
}

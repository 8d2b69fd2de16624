package pipeline

import (
	"fmt"
	"sync"
	"testing"
)

func TestPhraseCache_RoundTrip(t *testing.T) {
	cache := NewPhraseCache(10)

	cache.Set("voice-a", "Hello there.", []byte("audio-1"))

	audio, ok := cache.Get("voice-a", "Hello there.")
	if !ok {
		t.Fatal("Expected cache hit")
	}
	if string(audio) != "audio-1" {
		t.Errorf("Expected 'audio-1', got %q", audio)
	}
}

func TestPhraseCache_Miss(t *testing.T) {
	cache := NewPhraseCache(10)

	if _, ok := cache.Get("voice-a", "never stored"); ok {
		t.Error("Expected cache miss for unset key")
	}
}

func TestPhraseCache_NormalizedKeys(t *testing.T) {
	cache := NewPhraseCache(10)

	cache.Set("voice-a", "  Hello There. ", []byte("audio-1"))

	if _, ok := cache.Get("voice-a", "hello there."); !ok {
		t.Error("Expected hit after lowercase+trim normalization")
	}
	if _, ok := cache.Get("voice-b", "hello there."); ok {
		t.Error("Expected miss for a different voice")
	}
}

func TestPhraseCache_OverwriteDoesNotGrow(t *testing.T) {
	cache := NewPhraseCache(10)

	cache.Set("voice-a", "phrase", []byte("old"))
	cache.Set("voice-a", "phrase", []byte("new"))

	if cache.Len() != 1 {
		t.Errorf("Expected 1 entry after overwrite, got %d", cache.Len())
	}

	audio, _ := cache.Get("voice-a", "phrase")
	if string(audio) != "new" {
		t.Errorf("Expected overwritten value 'new', got %q", audio)
	}
}

func TestPhraseCache_CapacityBound(t *testing.T) {
	maxEntries := 10
	cache := NewPhraseCache(maxEntries)

	for i := 0; i < 50; i++ {
		cache.Set("voice-a", fmt.Sprintf("phrase number %d", i), []byte("audio"))
		if cache.Len() > maxEntries {
			t.Fatalf("Cache exceeded capacity: %d > %d", cache.Len(), maxEntries)
		}
	}
}

func TestPhraseCache_EvictsOldestFirst(t *testing.T) {
	cache := NewPhraseCache(10)

	for i := 0; i < 10; i++ {
		cache.Set("voice-a", fmt.Sprintf("phrase number %d", i), []byte("audio"))
	}

	// The next insert evicts the oldest 20% (2 entries)
	cache.Set("voice-a", "one more phrase", []byte("audio"))

	if _, ok := cache.Get("voice-a", "phrase number 0"); ok {
		t.Error("Expected oldest entry to be evicted")
	}
	if _, ok := cache.Get("voice-a", "phrase number 1"); ok {
		t.Error("Expected second-oldest entry to be evicted")
	}
	if _, ok := cache.Get("voice-a", "phrase number 2"); !ok {
		t.Error("Expected third-oldest entry to survive")
	}
	if _, ok := cache.Get("voice-a", "one more phrase"); !ok {
		t.Error("Expected newly inserted entry to be present")
	}
}

func TestPhraseCache_ConcurrentAccess(t *testing.T) {
	cache := NewPhraseCache(32)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("phrase %d-%d", g, i%10)
				cache.Set("voice-a", key, []byte("audio"))
				cache.Get("voice-a", key)
			}
		}(g)
	}
	wg.Wait()

	if cache.Len() > 32 {
		t.Errorf("Cache exceeded capacity under concurrency: %d", cache.Len())
	}
}

package store

import (
	"context"
	"sort"
	"sync"

	"dom-search/internal/models"
	"dom-search/internal/ranker"
)

type memoryEntry struct {
	Entry
	order uint64 // global insertion order, breaks remaining score ties
}

// MemoryStore keeps entries in a process-wide map from source URL to its
// chunk list and answers queries with a brute-force cosine scan. Everything
// is gone on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	byURL   map[string][]memoryEntry
	nextOrd uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byURL: make(map[string][]memoryEntry)}
}

func (s *MemoryStore) Insert(_ context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.byURL[e.Chunk.SourceURL] = append(s.byURL[e.Chunk.SourceURL], memoryEntry{Entry: e, order: s.nextOrd})
		s.nextOrd++
	}
	return nil
}

func (s *MemoryStore) Query(_ context.Context, embedding []float32, topK int, filterURL string) ([]models.ScoredChunk, error) {
	if topK <= 0 {
		return []models.ScoredChunk{}, nil
	}

	s.mu.RLock()
	var candidates []memoryEntry
	if filterURL != "" {
		candidates = s.byURL[filterURL]
	} else {
		for _, entries := range s.byURL {
			candidates = append(candidates, entries...)
		}
	}

	type scoredEntry struct {
		sc  models.ScoredChunk
		ord uint64
	}
	scored := make([]scoredEntry, 0, len(candidates))
	for _, e := range candidates {
		scored = append(scored, scoredEntry{
			sc: models.ScoredChunk{
				Chunk: e.Chunk,
				Score: ranker.Cosine(embedding, e.Embedding),
			},
			ord: e.order,
		})
	}
	s.mu.RUnlock()

	// descending score, then ascending sequence index, then insertion
	// order; candidates gathered from the URL map have no stable natural
	// order, so ties are pinned explicitly
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].sc.Score != scored[j].sc.Score {
			return scored[i].sc.Score > scored[j].sc.Score
		}
		if scored[i].sc.Chunk.SequenceIndex != scored[j].sc.Chunk.SequenceIndex {
			return scored[i].sc.Chunk.SequenceIndex < scored[j].sc.Chunk.SequenceIndex
		}
		return scored[i].ord < scored[j].ord
	})

	if topK > len(scored) {
		topK = len(scored)
	}
	out := make([]models.ScoredChunk, 0, topK)
	for _, se := range scored[:topK] {
		out = append(out, se.sc)
	}
	return out, nil
}

func (s *MemoryStore) Clear(_ context.Context, sourceURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sourceURL == "" {
		s.byURL = make(map[string][]memoryEntry)
		return nil
	}
	delete(s.byURL, sourceURL)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// Count reports the number of stored entries, for one page or all of them.
func (s *MemoryStore) Count(sourceURL string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sourceURL != "" {
		return len(s.byURL[sourceURL])
	}
	n := 0
	for _, entries := range s.byURL {
		n += len(entries)
	}
	return n
}

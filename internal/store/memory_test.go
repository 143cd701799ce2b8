package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dom-search/internal/models"
)

func entry(content, url string, seq int, vec []float32) Entry {
	return Entry{
		Chunk: models.Chunk{
			Content:       content,
			SourceURL:     url,
			TokenCount:    len(vec),
			SequenceIndex: seq,
		},
		Embedding: vec,
	}
}

func TestMemoryStoreInsertAndQuery(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Insert(ctx, []Entry{
		entry("about cats", "http://a", 0, []float32{1, 0, 0}),
		entry("about dogs", "http://a", 1, []float32{0, 1, 0}),
		entry("about fish", "http://b", 0, []float32{0, 0, 1}),
	}))

	scored, err := s.Query(ctx, []float32{1, 0, 0}, 10, "")
	require.NoError(t, err)
	require.Len(t, scored, 3)
	assert.Equal(t, "about cats", scored[0].Chunk.Content)
	assert.InDelta(t, 1.0, scored[0].Score, 1e-9)
}

func TestMemoryStoreURLFilter(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Insert(ctx, []Entry{
		entry("a0", "http://a", 0, []float32{1, 0}),
		entry("b0", "http://b", 0, []float32{1, 0}),
	}))

	scored, err := s.Query(ctx, []float32{1, 0}, 10, "http://b")
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, "b0", scored[0].Chunk.Content)
}

func TestMemoryStoreTopKLimit(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var entries []Entry
	for i := 0; i < 8; i++ {
		entries = append(entries, entry("c", "http://a", i, []float32{1, float32(i)}))
	}
	require.NoError(t, s.Insert(ctx, entries))

	scored, err := s.Query(ctx, []float32{1, 0}, 3, "")
	require.NoError(t, err)
	assert.Len(t, scored, 3)

	scored, err = s.Query(ctx, []float32{1, 0}, 0, "")
	require.NoError(t, err)
	assert.Empty(t, scored)
}

func TestMemoryStoreTieBreakBySequence(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	vec := []float32{1, 0}
	require.NoError(t, s.Insert(ctx, []Entry{
		entry("second", "http://a", 1, vec),
		entry("zeroth", "http://a", 0, vec),
		entry("third", "http://a", 2, vec),
	}))

	scored, err := s.Query(ctx, vec, 10, "")
	require.NoError(t, err)
	require.Len(t, scored, 3)
	assert.Equal(t, "zeroth", scored[0].Chunk.Content)
	assert.Equal(t, "second", scored[1].Chunk.Content)
	assert.Equal(t, "third", scored[2].Chunk.Content)
}

func TestMemoryStoreDuplicateIngestion(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	batch := []Entry{
		entry("best match", "http://a", 0, []float32{1, 0}),
		entry("weak match", "http://a", 1, []float32{0.2, 1}),
	}
	require.NoError(t, s.Insert(ctx, batch))
	require.NoError(t, s.Insert(ctx, batch))

	assert.Equal(t, 4, s.Count("http://a"), "re-ingestion appends, no dedup")

	scored, err := s.Query(ctx, []float32{1, 0}, 1, "")
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, "best match", scored[0].Chunk.Content, "top-1 unchanged by re-ingestion")
}

func TestMemoryStoreClear(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Insert(ctx, []Entry{
		entry("a0", "http://a", 0, []float32{1, 0}),
		entry("b0", "http://b", 0, []float32{1, 0}),
	}))

	require.NoError(t, s.Clear(ctx, "http://a"))
	assert.Equal(t, 0, s.Count("http://a"))
	assert.Equal(t, 1, s.Count(""))

	require.NoError(t, s.Clear(ctx, ""))
	assert.Equal(t, 0, s.Count(""))
}

func TestMemoryStoreConcurrentInserts(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			url := []string{"http://a", "http://b"}[g%2]
			for i := 0; i < 50; i++ {
				_ = s.Insert(ctx, []Entry{entry("c", url, i, []float32{1, 0})})
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, 400, s.Count(""))
	assert.Equal(t, 200, s.Count("http://a"))
}

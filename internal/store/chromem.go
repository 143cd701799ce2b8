package store

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"

	"dom-search/internal/helper"
	"dom-search/internal/models"
)

const compress = false

// ChromemStore persists entries in an embedded chromem-go index on disk.
// The collection is created idempotently on first use. Every entry gets a
// generated UUID so duplicate content from re-ingested pages never collides.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	name       string
}

func NewChromemStore(dbPath, collectionName string) (*ChromemStore, error) {
	db, err := chromem.NewPersistentDB(dbPath, compress)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open chromem database: %v", ErrStore, err)
	}

	// embeddings are always supplied explicitly, so no embedding func
	c, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create/get collection: %v", ErrStore, err)
	}

	return &ChromemStore{db: db, collection: c, name: collectionName}, nil
}

func (s *ChromemStore) Insert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	docs := make([]chromem.Document, 0, len(entries))
	for _, e := range entries {
		id, err := helper.GenerateUUID()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStore, err)
		}
		docs = append(docs, chromem.Document{
			ID:      id,
			Content: e.Chunk.Content,
			Metadata: map[string]string{
				"url":      e.Chunk.SourceURL,
				"sequence": strconv.Itoa(e.Chunk.SequenceIndex),
				"tokens":   strconv.Itoa(e.Chunk.TokenCount),
			},
			Embedding: e.Embedding,
		})
	}

	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("%w: failed to add documents: %v", ErrStore, err)
	}
	return nil
}

func (s *ChromemStore) Query(ctx context.Context, embedding []float32, topK int, filterURL string) ([]models.ScoredChunk, error) {
	if topK <= 0 {
		return []models.ScoredChunk{}, nil
	}

	// chromem rejects queries asking for more results than stored
	if count := s.collection.Count(); count == 0 {
		return []models.ScoredChunk{}, nil
	} else if topK > count {
		topK = count
	}

	opts := chromem.QueryOptions{
		QueryEmbedding: embedding,
		NResults:       topK,
	}
	if filterURL != "" {
		opts.Where = map[string]string{"url": filterURL}
	}

	results, err := s.collection.QueryWithOptions(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query by similarity: %v", ErrStore, err)
	}

	scored := make([]models.ScoredChunk, 0, len(results))
	for _, r := range results {
		seq, _ := strconv.Atoi(r.Metadata["sequence"])
		tokens, _ := strconv.Atoi(r.Metadata["tokens"])
		scored = append(scored, models.ScoredChunk{
			Chunk: models.Chunk{
				Content:       r.Content,
				SourceURL:     r.Metadata["url"],
				TokenCount:    tokens,
				SequenceIndex: seq,
			},
			Score: float64(r.Similarity),
		})
	}
	return scored, nil
}

func (s *ChromemStore) Clear(ctx context.Context, sourceURL string) error {
	if sourceURL != "" {
		if err := s.collection.Delete(ctx, map[string]string{"url": sourceURL}, nil); err != nil {
			return fmt.Errorf("%w: failed to delete page entries: %v", ErrStore, err)
		}
		return nil
	}

	if err := s.db.DeleteCollection(s.name); err != nil {
		return fmt.Errorf("%w: failed to drop collection: %v", ErrStore, err)
	}
	c, err := s.db.GetOrCreateCollection(s.name, nil, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to recreate collection: %v", ErrStore, err)
	}
	s.collection = c
	return nil
}

func (s *ChromemStore) Close() error { return nil }

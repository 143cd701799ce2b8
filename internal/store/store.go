package store

import (
	"context"
	"errors"
	"fmt"

	"dom-search/internal/config"
	"dom-search/internal/models"
)

// ErrStore wraps backend failures (unreachable service, schema mismatch).
var ErrStore = errors.New("vector store error")

// Entry pairs a chunk with its embedding. Entries are append-only, they are
// never mutated after insertion and duplicates are permitted.
type Entry struct {
	Chunk     models.Chunk
	Embedding []float32
}

// VectorStore is the common contract over all backends. Callers never branch
// on backend identity, the backend is picked once at startup.
type VectorStore interface {
	// Insert appends entries. Re-ingesting the same page adds a second
	// copy of its chunks, deduplication is deliberately not done.
	Insert(ctx context.Context, entries []Entry) error

	// Query returns at most topK entries by descending similarity to the
	// embedding. A non-empty filterURL restricts candidates to one page.
	Query(ctx context.Context, embedding []float32, topK int, filterURL string) ([]models.ScoredChunk, error)

	// Clear removes entries for one page, or everything when sourceURL
	// is empty.
	Clear(ctx context.Context, sourceURL string) error

	Close() error
}

// NewStore builds the backend named by the config.
func NewStore(ctx context.Context, cfg *config.Config) (VectorStore, error) {
	switch cfg.Store.Backend {
	case "memory", "":
		return NewMemoryStore(), nil
	case "chromem":
		return NewChromemStore(cfg.Store.Chromem.Path, cfg.Store.Chromem.Collection)
	case "postgres":
		return NewPostgresStore(ctx, &cfg.Store.Postgres)
	default:
		return nil, fmt.Errorf("%w: unsupported backend %q (supported: memory, chromem, postgres)", ErrStore, cfg.Store.Backend)
	}
}

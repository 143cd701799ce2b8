package search

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"dom-search/internal/chunker"
	"dom-search/internal/embedding"
	"dom-search/internal/extractor"
	"dom-search/internal/fetcher"
	"dom-search/internal/models"
	"dom-search/internal/ranker"
	"dom-search/internal/store"
)

var (
	// ErrInvalidInput means the request was missing the url or the query,
	// nothing was fetched.
	ErrInvalidInput = errors.New("url and query are required")

	// ErrNoContent means the page had no readable text after extraction,
	// distinct from a fetch failure so the caller can tell them apart.
	ErrNoContent = errors.New("no readable text content found at the provided URL")
)

// Fetcher retrieves raw page bytes and the response content type.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}

// Embedder turns texts into fixed-dimension vectors.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Options carry the chunking and ranking parameters.
type Options struct {
	MaxTokens    int
	OverlapWords int
	TopK         int
}

// Searcher runs the full pipeline for one request: fetch, extract, chunk,
// embed, index, embed the query, rank. Ingestion always completes before
// ranking, so the query sees the whole page. One Searcher serves many
// concurrent requests, the store is the only shared state.
type Searcher struct {
	fetcher  Fetcher
	embedder Embedder
	store    store.VectorStore
	counter  chunker.TokenCounter
	opts     Options
}

func New(fetcher Fetcher, embedder Embedder, vs store.VectorStore, counter chunker.TokenCounter, opts Options) *Searcher {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = models.DefaultMaxTokens
	}
	if opts.OverlapWords <= 0 {
		opts.OverlapWords = models.DefaultOverlapWords
	}
	if opts.TopK <= 0 {
		opts.TopK = models.DefaultTopK
	}
	return &Searcher{
		fetcher:  fetcher,
		embedder: embedder,
		store:    vs,
		counter:  counter,
		opts:     opts,
	}
}

// Search ingests the page and returns its chunks ranked against the query.
// Every stage fails fast, no stage is retried, and a failed request leaves
// nothing to roll back beyond already inserted chunks, which re-ingestion
// absorbs.
func (s *Searcher) Search(ctx context.Context, url, query string) ([]models.SearchResult, error) {
	if strings.TrimSpace(url) == "" || strings.TrimSpace(query) == "" {
		return nil, ErrInvalidInput
	}

	if _, err := s.Ingest(ctx, url); err != nil {
		return nil, err
	}

	queryVector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	// restrict ranking to the page this request fetched
	scored, err := s.store.Query(ctx, queryVector, s.opts.TopK, url)
	if err != nil {
		return nil, err
	}

	results := ranker.Rank(scored, s.opts.TopK)
	log.Debug().Int("results", len(results)).Str("url", url).Msg("Ranked results")
	return results, nil
}

// Ingest fetches, extracts, chunks, embeds and indexes one page, returning
// the number of chunks stored.
func (s *Searcher) Ingest(ctx context.Context, url string) (int, error) {
	if strings.TrimSpace(url) == "" {
		return 0, ErrInvalidInput
	}

	log.Debug().Str("url", url).Msg("Fetching URL")
	body, contentType, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return 0, err
	}

	log.Debug().Int("bytes", len(body)).Str("content_type", contentType).Msg("Extracting text")
	text := extractor.FromContentType(contentType, body)
	if text == "" {
		return 0, ErrNoContent
	}

	log.Debug().Int("chars", len(text)).Msg("Chunking text")
	chunks, err := chunker.Split(s.counter, text, url, s.opts.MaxTokens, s.opts.OverlapWords)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, ErrNoContent
	}

	log.Debug().Int("chunks", len(chunks)).Msg("Embedding chunks")
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return 0, err
	}

	entries := make([]store.Entry, len(chunks))
	for i := range chunks {
		entries[i] = store.Entry{Chunk: chunks[i], Embedding: vectors[i]}
	}
	if err := s.store.Insert(ctx, entries); err != nil {
		return 0, err
	}
	chunksIndexed.Add(float64(len(entries)))

	log.Info().Int("chunks", len(entries)).Str("url", url).Msg("Indexed page")
	return len(entries), nil
}

// Stage names the pipeline stage an error belongs to, for logs, metrics and
// HTTP status mapping.
func Stage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "validation"
	case errors.Is(err, fetcher.ErrFetch):
		return "fetch"
	case errors.Is(err, ErrNoContent):
		return "extraction"
	case errors.Is(err, chunker.ErrChunking):
		return "chunking"
	case errors.Is(err, embedding.ErrEmbedding):
		return "embedding"
	case errors.Is(err, store.ErrStore):
		return "store"
	default:
		return "internal"
	}
}

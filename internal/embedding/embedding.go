package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"dom-search/internal/config"
)

// ErrEmbedding is returned when the embedding model is unavailable or
// fails. It is fatal for the request, there are no partial results.
var ErrEmbedding = errors.New("embedding failed")

// Service wraps an embedder with a readiness flag. The underlying model is
// loaded once by the backend and reused, calls after that do not mutate
// any state, identical input yields identical vectors.
type Service struct {
	embedder embeddings.Embedder
	ready    atomic.Bool
}

// NewService builds the embedder named by the config provider.
func NewService(cfg *config.LLMConfig) (*Service, error) {
	var embedder embeddings.Embedder
	var err error

	switch cfg.Provider {
	case "ollama", "":
		embedder, err = newOllamaEmbedder(cfg)
	case "openai":
		embedder, err = newOpenAIEmbedder(cfg)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return &Service{embedder: embedder}, nil
}

// NewServiceWith wraps an already constructed embedder, used by tests.
func NewServiceWith(embedder embeddings.Embedder) *Service {
	return &Service{embedder: embedder}
}

func newOllamaEmbedder(cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	log.Debug().
		Str("base_url", cfg.BaseURL).
		Str("embedding_model", cfg.Model).
		Msg("Initializing ollama embedder")

	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("error initializing LLM: %w", err)
	}
	return embeddings.NewEmbedder(llm)
}

func newOpenAIEmbedder(cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	log.Debug().
		Str("base_url", cfg.BaseURL).
		Str("embedding_model", cfg.Model).
		Msg("Initializing openai embedder")

	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("error initializing LLM: %w", err)
	}
	return embeddings.NewEmbedder(llm)
}

// Warmup runs one embedding call so the backend loads the model, then marks
// the service ready. The one-time load cost lands here instead of on the
// first user request.
func (s *Service) Warmup(ctx context.Context) error {
	if _, err := s.embedder.EmbedQuery(ctx, "ready check"); err != nil {
		return fmt.Errorf("%w: warmup: %v", ErrEmbedding, err)
	}
	s.ready.Store(true)
	return nil
}

// Ready reports whether the embedding model answered the warmup call.
func (s *Service) Ready() bool {
	return s.ready.Load()
}

// EmbedDocuments embeds a batch of texts, one vector per text, order
// preserving.
func (s *Service) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbedding, len(vectors), len(texts))
	}
	return vectors, nil
}

// EmbedQuery embeds a single query string.
func (s *Service) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vector, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}
	return vector, nil
}

package ranker

import (
	"math"
	"sort"

	"dom-search/internal/models"
)

// Cosine computes cosine similarity between two vectors. Mismatched
// dimensions or zero vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Clamp01 floors negative similarity at 0 and caps at 1. Relevance below
// orthogonal is not worth distinguishing for presentation.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Sort orders scored chunks by descending score, ties broken by ascending
// sequence index then original position, so results are deterministic.
func Sort(scored []models.ScoredChunk) {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.SequenceIndex < scored[j].Chunk.SequenceIndex
	})
}

// Rank selects the top k candidates and converts them into search results
// with clamped scores. Fewer than k candidates returns all of them. The
// inputs are not mutated.
func Rank(candidates []models.ScoredChunk, topK int) []models.SearchResult {
	if topK <= 0 || len(candidates) == 0 {
		return []models.SearchResult{}
	}

	scored := append([]models.ScoredChunk(nil), candidates...)
	Sort(scored)

	if topK > len(scored) {
		topK = len(scored)
	}

	results := make([]models.SearchResult, 0, topK)
	for _, s := range scored[:topK] {
		results = append(results, models.SearchResult{
			Content: s.Chunk.Content,
			URL:     s.Chunk.SourceURL,
			Score:   Clamp01(s.Score),
		})
	}
	return results
}

package ranker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dom-search/internal/models"
)

func TestCosineSymmetry(t *testing.T) {
	a := []float32{0.3, -0.2, 0.9, 0.1}
	b := []float32{0.5, 0.4, -0.1, 0.8}
	assert.InDelta(t, Cosine(a, b), Cosine(b, a), 1e-12)
}

func TestCosineSelfIsOne(t *testing.T) {
	a := []float32{0.3, -0.2, 0.9, 0.1}
	assert.InDelta(t, 1.0, Cosine(a, a), 1e-9)
}

func TestCosineEdgeCases(t *testing.T) {
	assert.Equal(t, 0.0, Cosine(nil, nil))
	assert.Equal(t, 0.0, Cosine([]float32{1, 2}, []float32{1, 2, 3}), "mismatched dimensions")
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 2}), "zero vector")
}

func TestCosineOppositeVectors(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{-1, 0}
	assert.InDelta(t, -1.0, Cosine(a, b), 1e-9)
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-0.5))
	assert.Equal(t, 0.0, Clamp01(0))
	assert.Equal(t, 0.42, Clamp01(0.42))
	assert.Equal(t, 1.0, Clamp01(1.0000001))
}

func candidates(scores ...float64) []models.ScoredChunk {
	out := make([]models.ScoredChunk, len(scores))
	for i, s := range scores {
		out[i] = models.ScoredChunk{
			Chunk: models.Chunk{Content: "c", SourceURL: "u", SequenceIndex: i},
			Score: s,
		}
	}
	return out
}

func TestRankTopKCorrectness(t *testing.T) {
	cands := candidates(0.1, 0.9, 0.5, 0.7, 0.3)

	results := Rank(cands, 3)
	require.Len(t, results, 3)
	assert.Equal(t, []float64{0.9, 0.7, 0.5}, []float64{results[0].Score, results[1].Score, results[2].Score})

	// every returned score >= every non-returned score
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, 0.3)
	}
}

func TestRankFewerCandidatesThanK(t *testing.T) {
	results := Rank(candidates(0.2, 0.8), 10)
	assert.Len(t, results, 2)
	assert.Equal(t, 0.8, results[0].Score)
}

func TestRankEmpty(t *testing.T) {
	assert.Empty(t, Rank(nil, 10))
	assert.Empty(t, Rank(candidates(0.5), 0))
}

func TestRankClampsNegativeScores(t *testing.T) {
	results := Rank(candidates(-0.4, 0.6), 2)
	require.Len(t, results, 2)
	assert.Equal(t, 0.6, results[0].Score)
	assert.Equal(t, 0.0, results[1].Score)
}

func TestRankTiesBySequenceIndex(t *testing.T) {
	cands := []models.ScoredChunk{
		{Chunk: models.Chunk{Content: "third", SequenceIndex: 2}, Score: 0.5},
		{Chunk: models.Chunk{Content: "first", SequenceIndex: 0}, Score: 0.5},
		{Chunk: models.Chunk{Content: "second", SequenceIndex: 1}, Score: 0.5},
	}
	results := Rank(cands, 3)
	require.Len(t, results, 3)
	assert.Equal(t, "first", results[0].Content)
	assert.Equal(t, "second", results[1].Content)
	assert.Equal(t, "third", results[2].Content)
}

func TestRankDoesNotMutateInput(t *testing.T) {
	cands := candidates(0.1, 0.9)
	Rank(cands, 2)
	assert.Equal(t, 0.1, cands[0].Score)
	assert.Equal(t, 0, cands[0].Chunk.SequenceIndex)
}

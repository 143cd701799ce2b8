package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordCounter counts one token per whitespace-separated word, making chunk
// boundaries easy to reason about in tests.
type wordCounter struct{}

func (wordCounter) Count(text string) int {
	return len(strings.Fields(text))
}

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i+1)
	}
	return strings.Join(parts, " ")
}

func TestSplitEmptyText(t *testing.T) {
	chunks, err := Split(wordCounter{}, "", "http://example.com", 500, 50)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	chunks, err = Split(wordCounter{}, "   \n\t  ", "http://example.com", 500, 50)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	text := words(120)
	chunks, err := Split(wordCounter{}, text, "http://example.com", 500, 50)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Equal(t, text, chunks[0].Content)
	assert.Equal(t, "http://example.com", chunks[0].SourceURL)
	assert.Equal(t, 120, chunks[0].TokenCount)
	assert.Equal(t, 0, chunks[0].SequenceIndex)
}

func TestSplitInvalidParams(t *testing.T) {
	_, err := Split(wordCounter{}, "some text", "u", 0, 50)
	assert.ErrorIs(t, err, ErrChunking)

	_, err = Split(wordCounter{}, "some text", "u", -1, 50)
	assert.ErrorIs(t, err, ErrChunking)

	_, err = Split(wordCounter{}, "some text", "u", 500, -1)
	assert.ErrorIs(t, err, ErrChunking)
}

func TestSplitOverlapInvariant(t *testing.T) {
	const maxTokens, overlap = 5, 2
	chunks, err := Split(wordCounter{}, words(12), "u", maxTokens, overlap)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i := 0; i < len(chunks)-1; i++ {
		prev := strings.Fields(chunks[i].Content)
		next := strings.Fields(chunks[i+1].Content)
		require.GreaterOrEqual(t, len(prev), overlap)
		assert.Equal(t, prev[len(prev)-overlap:], next[:overlap],
			"tail of chunk %d must equal head of chunk %d", i, i+1)
	}
}

func TestSplitSizeBound(t *testing.T) {
	const maxTokens = 7
	chunks, err := Split(wordCounter{}, words(100), "u", maxTokens, 3)
	require.NoError(t, err)

	for _, c := range chunks {
		assert.LessOrEqual(t, c.TokenCount, maxTokens)
		assert.LessOrEqual(t, len(strings.Fields(c.Content)), maxTokens)
	}
}

func TestSplitCoverage(t *testing.T) {
	const maxTokens, overlap = 5, 2
	text := words(23)
	chunks, err := Split(wordCounter{}, text, "u", maxTokens, overlap)
	require.NoError(t, err)

	// concatenating the non-overlap portions reproduces the input
	var rebuilt []string
	for i, c := range chunks {
		ws := strings.Fields(c.Content)
		if i == 0 {
			rebuilt = append(rebuilt, ws...)
		} else {
			rebuilt = append(rebuilt, ws[overlap:]...)
		}
	}
	assert.Equal(t, text, strings.Join(rebuilt, " "))
}

func TestSplitSequenceIndexes(t *testing.T) {
	chunks, err := Split(wordCounter{}, words(30), "u", 5, 2)
	require.NoError(t, err)
	for i, c := range chunks {
		assert.Equal(t, i, c.SequenceIndex)
	}
}

func TestSplitOverlapClampedOnShortChunks(t *testing.T) {
	// overlap longer than any chunk: chunks get no seed instead of
	// looping forever
	chunks, err := Split(wordCounter{}, words(7), "u", 3, 10)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	var rebuilt []string
	for _, c := range chunks {
		rebuilt = append(rebuilt, strings.Fields(c.Content)...)
	}
	assert.Equal(t, words(7), strings.Join(rebuilt, " "))
}

func TestTiktokenCounter(t *testing.T) {
	c, err := NewTiktokenCounter()
	if err != nil {
		t.Skipf("token encoding unavailable: %v", err)
	}
	n := c.Count("the quick brown fox")
	assert.Greater(t, n, 0)
	assert.Equal(t, n, c.Count("the quick brown fox"), "token counts must be reproducible")
}

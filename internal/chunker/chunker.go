package chunker

import (
	"errors"
	"fmt"
	"strings"

	"dom-search/internal/models"
)

// ErrChunking is returned for invalid chunking parameters.
var ErrChunking = errors.New("invalid chunking parameters")

// Split cuts cleaned text into overlapping token-bounded chunks.
//
// Tokens are accumulated word by word until the next word would push the
// chunk past maxTokens, then the chunk is closed and the next one is seeded
// with the last overlapWords words of the closed chunk. The overlap is
// word-level while the bound is token-level, that mismatch is part of the
// chunk boundary contract and must not be "fixed".
//
// Text shorter than maxTokens yields one chunk, empty text yields none.
func Split(tc TokenCounter, text, sourceURL string, maxTokens, overlapWords int) ([]models.Chunk, error) {
	if maxTokens <= 0 {
		return nil, fmt.Errorf("%w: max_tokens must be positive, got %d", ErrChunking, maxTokens)
	}
	if overlapWords < 0 {
		return nil, fmt.Errorf("%w: overlap_words must not be negative, got %d", ErrChunking, overlapWords)
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}

	var chunks []models.Chunk
	var currentWords []string
	currentTokens := 0

	closeChunk := func() {
		chunks = append(chunks, models.Chunk{
			Content:       strings.Join(currentWords, " "),
			SourceURL:     sourceURL,
			TokenCount:    currentTokens,
			SequenceIndex: len(chunks),
		})
	}

	for _, word := range words {
		tokenLen := tc.Count(word)

		if currentTokens+tokenLen > maxTokens && len(currentWords) > 0 {
			closeChunk()

			// seed the next chunk with the tail of the closed one;
			// chunks no longer than the overlap get no seed, otherwise
			// the chunker would stop making progress
			if len(currentWords) > overlapWords {
				currentWords = append([]string(nil), currentWords[len(currentWords)-overlapWords:]...)
				currentTokens = 0
				for _, w := range currentWords {
					currentTokens += tc.Count(w)
				}
			} else {
				currentWords = nil
				currentTokens = 0
			}
		}

		currentWords = append(currentWords, word)
		currentTokens += tokenLen
	}

	if len(currentWords) > 0 {
		closeChunk()
	}

	return chunks, nil
}

package chunker

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"dom-search/internal/models"
)

// TokenCounter reports the subword token count of a piece of text. The
// counter must be deterministic, chunk boundaries depend on it.
type TokenCounter interface {
	Count(text string) int
}

// TiktokenCounter counts tokens with a fixed tiktoken BPE encoding.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the encoding named by models.TokenEncoding.
func NewTiktokenCounter() (*TiktokenCounter, error) {
	enc, err := tiktoken.GetEncoding(models.TokenEncoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load token encoding %s: %w", models.TokenEncoding, err)
	}
	return &TiktokenCounter{enc: enc}, nil
}

func (c *TiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

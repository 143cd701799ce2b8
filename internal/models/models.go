package models

// Chunk represents one indexed segment of a page's extracted text
type Chunk struct {
	Content       string `json:"content"`
	SourceURL     string `json:"source_url"`
	TokenCount    int    `json:"token_count"`
	SequenceIndex int    `json:"sequence_index"`
}

// ScoredChunk pairs a chunk with its similarity to a query embedding
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// SearchResult is what the API returns, score is clamped to [0,1]
type SearchResult struct {
	Content string  `json:"content"`
	URL     string  `json:"url"`
	Score   float64 `json:"score"`
}

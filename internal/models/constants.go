package models

const (
	// TokenEncoding is the tiktoken encoding used for chunk size accounting.
	// Changing it changes chunk boundaries, keep it fixed.
	TokenEncoding = "cl100k_base"

	DefaultMaxTokens    = 500
	DefaultOverlapWords = 50
	DefaultTopK         = 10

	// VectorSize matches the embedding model output dimension
	VectorSize = 768
)

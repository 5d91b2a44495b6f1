package domain

import "context"

// Embedder is the shared text vectorization contract between layers.
// Implementations must be deterministic for identical input.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// Scorer is the zero-shot classification contract. Scores cover every label
// in the given set and sum to 1.
type Scorer interface {
	Score(ctx context.Context, text string, labels []Category) (map[Category]float64, error)
}

// HealthChecker verifies external model provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

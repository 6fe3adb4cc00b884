package domain

import (
	"context"
	"time"
)

// SimilarityQuery holds the parameters of a single vector search against
// the story store.
type SimilarityQuery struct {
	// MaxDistance is the cosine-distance ceiling (1 - similarity threshold).
	MaxDistance float64
	// Limit caps the candidate pool size.
	Limit int
	// PublishedAfter bounds the recency window.
	PublishedAfter time.Time
}

// StoryRepository defines the read-only similarity search against the story
// store. Implementations must order candidates by ascending distance and
// honor the result-count ceiling; the store itself is never mutated.
type StoryRepository interface {
	SearchSimilar(ctx context.Context, queryVector []float32, q SimilarityQuery) ([]Story, error)
}

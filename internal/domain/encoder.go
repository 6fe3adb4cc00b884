package domain

import "context"

// VectorEncoder encodes texts into dense vectors via an external embedding
// oracle. Encoding must be idempotent for identical input text.
type VectorEncoder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	Version() string
}

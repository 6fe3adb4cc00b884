package domain

import "context"

// BatchScore is a single scored story as returned by the scoring oracle.
// Score is expected in [0,100]; ids that match no story in the batch are the
// caller's responsibility to filter.
type BatchScore struct {
	StoryID string
	Score   float64
}

// RelevanceOracle scores a batch of stories against a user profile via an
// external language-scoring service.
type RelevanceOracle interface {
	ScoreBatch(ctx context.Context, profile UserProfile, stories []Story) ([]BatchScore, error)
	ModelName() string
}

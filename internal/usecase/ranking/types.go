// Package ranking implements the pipeline stages that turn a user profile
// into a ranked, bounded story list: encode, retrieve, constrain, score.
package ranking

import (
	"time"

	"feed-ranker/internal/domain"
)

// StageContext carries request-local state across the pipeline stages.
// Every field is owned by the single request; nothing here is shared.
type StageContext struct {
	RankingID string
	Profile   domain.UserProfile
	Now       time.Time

	QueryVector []float32
	Candidates  []domain.Story
	Constrained []domain.Story
	Ranked      []domain.RankedStory

	// Degraded is set when the scoring oracle was unavailable for the whole
	// stage and the fallback ranking was applied.
	Degraded bool
}

// EncodeConfig holds profile-encoding stage parameters.
type EncodeConfig struct {
	// ExpectedDims is the embedding dimensionality D the oracle must return.
	ExpectedDims int
}

// RetrieveConfig holds candidate-retrieval stage parameters.
type RetrieveConfig struct {
	PoolSize            int
	SimilarityThreshold float64
	RecencyWindow       time.Duration
}

// ConstrainConfig holds constraint-filter stage parameters.
type ConstrainConfig struct {
	PerSourceMax    int
	SourceBlocklist []string
	FreshnessWeight float64
	DecayWindowDays float64
}

// ScoreConfig holds relevance-scoring stage parameters.
type ScoreConfig struct {
	FinalSize       int
	BatchSize       int
	MaxInFlight     int
	BatchTimeout    time.Duration
	RecencyBonusMax float64
	DecayWindowDays float64
	FallbackHigh    float64
	FallbackLow     float64
}

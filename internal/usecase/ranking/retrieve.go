package ranking

import (
	"context"
	"log/slog"
	"time"

	"feed-ranker/internal/domain"
	"feed-ranker/internal/infra/retry"
)

// Retrieve fetches the candidate pool from the story store (Stage 2).
// Transient store errors are retried under the shared policy; exhausting
// retries is a RetrievalError. An empty pool is a valid terminal state, not
// an error.
func Retrieve(
	ctx context.Context,
	sc *StageContext,
	repo domain.StoryRepository,
	policy retry.Policy,
	cfg RetrieveConfig,
	logger *slog.Logger,
) error {
	query := domain.SimilarityQuery{
		MaxDistance:    1 - cfg.SimilarityThreshold,
		Limit:          cfg.PoolSize,
		PublishedAfter: sc.Now.Add(-cfg.RecencyWindow),
	}

	searchStart := time.Now()
	stories, err := retry.Do(ctx, policy, func() ([]domain.Story, error) {
		return repo.SearchSimilar(ctx, sc.QueryVector, query)
	})
	if err != nil {
		return &domain.RetrievalError{Err: err, Attempts: policy.Attempts()}
	}

	corrupt := 0
	for i := range stories {
		stories[i] = normalizeCandidate(stories[i], sc.QueryVector)
		if stories[i].Embedding == nil {
			corrupt++
		}
	}
	if len(stories) > cfg.PoolSize {
		stories = stories[:cfg.PoolSize]
	}
	sc.Candidates = stories

	logger.Info("candidates_retrieved",
		slog.String("ranking_id", sc.RankingID),
		slog.Int("candidate_count", len(stories)),
		slog.Int("corrupt_embeddings", corrupt),
		slog.Float64("similarity_threshold", cfg.SimilarityThreshold),
		slog.Int64("duration_ms", time.Since(searchStart).Milliseconds()))

	return nil
}

// normalizeCandidate parses a string-encoded embedding and recomputes the
// cosine similarity against the query vector. A corrupt record gets
// similarity 0 instead of failing the batch.
func normalizeCandidate(story domain.Story, queryVector []float32) domain.Story {
	story.SourceName = domain.NormalizeSource(story.SourceName)

	vec, err := domain.ParseVector(story.RawEmbedding)
	if err != nil || len(vec) != len(queryVector) {
		story.Embedding = nil
		story.Similarity = 0
		return story
	}

	story.Embedding = vec
	story.Similarity = domain.CosineSimilarity(vec, queryVector)
	return story
}

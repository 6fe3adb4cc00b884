package repository

import (
	"context"
	"fmt"

	"feed-ranker/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

type storyRepository struct {
	pool *pgxpool.Pool
}

// NewStoryRepository creates a new StoryRepository backed by pgvector.
func NewStoryRepository(pool *pgxpool.Pool) domain.StoryRepository {
	return &storyRepository{pool: pool}
}

// SearchSimilar runs the cosine-distance query with the implicit candidate
// filters: non-null embedding, non-null source, published within the recency
// window. Candidates come back ordered by ascending distance, capped by the
// pool size. The embedding column is returned as text so the pipeline can
// normalize string-encoded vectors itself.
func (r *storyRepository) SearchSimilar(ctx context.Context, queryVector []float32, q domain.SimilarityQuery) ([]domain.Story, error) {
	query := `
		SELECT
			id,
			title,
			COALESCE(url, ''),
			COALESCE(content, ''),
			COALESCE(tags, '{}'),
			COALESCE(source_name, 'unknown'),
			published_at,
			embedding::text,
			1 - (embedding <=> $1) AS similarity
		FROM stories
		WHERE embedding IS NOT NULL
		  AND source_name IS NOT NULL
		  AND published_at >= $2
		  AND (embedding <=> $1) <= $3
		ORDER BY embedding <=> $1 ASC
		LIMIT $4
	`

	rows, err := r.pool.Query(ctx, query,
		pgvector.NewVector(queryVector), q.PublishedAfter, q.MaxDistance, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query stories: %w", err)
	}
	defer rows.Close()

	var stories []domain.Story
	for rows.Next() {
		var s domain.Story
		if err := rows.Scan(
			&s.ID, &s.Title, &s.URL, &s.Content, &s.Tags,
			&s.SourceName, &s.PublishedAt, &s.RawEmbedding, &s.Similarity,
		); err != nil {
			return nil, fmt.Errorf("failed to scan story: %w", err)
		}
		stories = append(stories, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return stories, nil
}

package ranking_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"feed-ranker/internal/domain"
	"feed-ranker/internal/infra/retry"
	"feed-ranker/internal/usecase/ranking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStoryRepository is a test double for domain.StoryRepository.
type MockStoryRepository struct {
	mock.Mock
}

func (m *MockStoryRepository) SearchSimilar(ctx context.Context, queryVector []float32, q domain.SimilarityQuery) ([]domain.Story, error) {
	args := m.Called(ctx, queryVector, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Story), args.Error(1)
}

func testRetrieveConfig() ranking.RetrieveConfig {
	return ranking.RetrieveConfig{
		PoolSize:            80,
		SimilarityThreshold: 0.30,
		RecencyWindow:       30 * 24 * time.Hour,
	}
}

func noRetry() retry.Policy {
	return retry.Policy{MaxRetries: 0, Delay: time.Millisecond}
}

func TestRetrieve_NormalizesEmbeddingsAndSimilarity(t *testing.T) {
	repo := new(MockStoryRepository)
	repo.On("SearchSimilar", mock.Anything, mock.Anything, mock.Anything).Return([]domain.Story{
		{ID: "good", Title: "good", SourceName: "Src", PublishedAt: time.Now(), RawEmbedding: "[1, 0]"},
	}, nil)

	sc := &ranking.StageContext{
		RankingID:   "test-retrieve",
		Now:         time.Now(),
		QueryVector: []float32{1, 0},
	}

	err := ranking.Retrieve(context.Background(), sc, repo, noRetry(), testRetrieveConfig(), discardLogger())
	require.NoError(t, err)

	require.Len(t, sc.Candidates, 1)
	assert.Equal(t, []float32{1, 0}, sc.Candidates[0].Embedding)
	assert.InDelta(t, 1.0, sc.Candidates[0].Similarity, 1e-9)
	assert.Equal(t, "src", sc.Candidates[0].SourceName)
}

func TestRetrieve_CorruptEmbeddingKeptWithZeroSimilarity(t *testing.T) {
	repo := new(MockStoryRepository)
	repo.On("SearchSimilar", mock.Anything, mock.Anything, mock.Anything).Return([]domain.Story{
		// Parses fine but has the wrong dimensionality for the query.
		{ID: "mismatched", Title: "m", SourceName: "s", PublishedAt: time.Now(), RawEmbedding: "[0.1, 0.2, 0.3]"},
		{ID: "garbled", Title: "g", SourceName: "s", PublishedAt: time.Now(), RawEmbedding: "not-a-vector"},
	}, nil)

	sc := &ranking.StageContext{
		RankingID:   "test-retrieve",
		Now:         time.Now(),
		QueryVector: []float32{1, 0},
	}

	err := ranking.Retrieve(context.Background(), sc, repo, noRetry(), testRetrieveConfig(), discardLogger())
	require.NoError(t, err, "a corrupt record must never abort retrieval")

	require.Len(t, sc.Candidates, 2)
	for _, s := range sc.Candidates {
		assert.Nil(t, s.Embedding)
		assert.Equal(t, 0.0, s.Similarity)
	}
}

func TestRetrieve_QueryParameters(t *testing.T) {
	now := time.Now()
	repo := new(MockStoryRepository)
	repo.On("SearchSimilar", mock.Anything, []float32{1, 0}, mock.MatchedBy(func(q domain.SimilarityQuery) bool {
		return q.Limit == 80 &&
			math.Abs(q.MaxDistance-0.70) < 1e-9 &&
			q.PublishedAfter.Before(now)
	})).Return([]domain.Story{}, nil)

	sc := &ranking.StageContext{RankingID: "test-retrieve", Now: now, QueryVector: []float32{1, 0}}

	err := ranking.Retrieve(context.Background(), sc, repo, noRetry(), testRetrieveConfig(), discardLogger())
	require.NoError(t, err)
	assert.Empty(t, sc.Candidates)
	repo.AssertExpectations(t)
}

func TestRetrieve_NonTransientErrorNotRetried(t *testing.T) {
	repo := new(MockStoryRepository)
	repo.On("SearchSimilar", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("syntax error in query")).Once()

	sc := &ranking.StageContext{RankingID: "test-retrieve", Now: time.Now(), QueryVector: []float32{1, 0}}
	policy := retry.Policy{MaxRetries: 2, Delay: time.Millisecond}

	err := ranking.Retrieve(context.Background(), sc, repo, policy, testRetrieveConfig(), discardLogger())

	var retErr *domain.RetrievalError
	require.ErrorAs(t, err, &retErr)
	repo.AssertNumberOfCalls(t, "SearchSimilar", 1)
}

func TestRetrieve_TransientErrorRetriedThenSucceeds(t *testing.T) {
	repo := new(MockStoryRepository)
	repo.On("SearchSimilar", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, context.DeadlineExceeded).Once()
	repo.On("SearchSimilar", mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.Story{
			{ID: "a", Title: "a", SourceName: "s", PublishedAt: time.Now(), RawEmbedding: "[1, 0]"},
		}, nil).Once()

	sc := &ranking.StageContext{RankingID: "test-retrieve", Now: time.Now(), QueryVector: []float32{1, 0}}
	policy := retry.Policy{MaxRetries: 2, Delay: time.Millisecond}

	err := ranking.Retrieve(context.Background(), sc, repo, policy, testRetrieveConfig(), discardLogger())

	require.NoError(t, err)
	assert.Len(t, sc.Candidates, 1)
	repo.AssertNumberOfCalls(t, "SearchSimilar", 2)
}

package ranking_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"feed-ranker/internal/domain"
	"feed-ranker/internal/usecase/ranking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOracle scores stories with a configurable function, tracking batch
// sizes and peak concurrency.
type fakeOracle struct {
	mu          sync.Mutex
	inFlight    int
	maxInFlight int
	batchSizes  []int
	scoreFn     func(batch []domain.Story) ([]domain.BatchScore, error)
}

func (f *fakeOracle) ScoreBatch(ctx context.Context, profile domain.UserProfile, stories []domain.Story) ([]domain.BatchScore, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.batchSizes = append(f.batchSizes, len(stories))
	f.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	return f.scoreFn(stories)
}

func (f *fakeOracle) ModelName() string { return "fake-scorer" }

func constantScores(score float64) func(batch []domain.Story) ([]domain.BatchScore, error) {
	return func(batch []domain.Story) ([]domain.BatchScore, error) {
		results := make([]domain.BatchScore, 0, len(batch))
		for _, s := range batch {
			results = append(results, domain.BatchScore{StoryID: s.ID, Score: score})
		}
		return results, nil
	}
}

func testScoreConfig() ranking.ScoreConfig {
	return ranking.ScoreConfig{
		FinalSize:       30,
		BatchSize:       12,
		MaxInFlight:     3,
		BatchTimeout:    time.Second,
		RecencyBonusMax: 5,
		DecayWindowDays: 7,
		FallbackHigh:    85,
		FallbackLow:     40,
	}
}

func makeStories(n int, publishedAt time.Time) []domain.Story {
	stories := make([]domain.Story, 0, n)
	for i := 0; i < n; i++ {
		stories = append(stories, domain.Story{
			ID:          fmt.Sprintf("story-%02d", i),
			Title:       fmt.Sprintf("Title %02d", i),
			SourceName:  fmt.Sprintf("source-%d", i%5),
			PublishedAt: publishedAt,
		})
	}
	return stories
}

func newStageContext(stories []domain.Story) *ranking.StageContext {
	return &ranking.StageContext{
		RankingID:   "test-ranking",
		Profile:     domain.UserProfile{Role: "Data Scientist", Interests: []string{"LLMs"}, Projects: "RAG pipeline"},
		Now:         time.Now(),
		Constrained: stories,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestScore_BatchingAndConcurrencyBounds(t *testing.T) {
	oracle := &fakeOracle{scoreFn: constantScores(70)}
	sc := newStageContext(makeStories(40, time.Now().Add(-time.Hour)))

	ranking.Score(context.Background(), sc, oracle, testScoreConfig(), discardLogger())

	assert.False(t, sc.Degraded)
	assert.Len(t, sc.Ranked, 30, "output truncated to final size")
	assert.LessOrEqual(t, oracle.maxInFlight, 3)
	for _, size := range oracle.batchSizes {
		assert.LessOrEqual(t, size, 12)
	}
}

func TestScore_SortedDescendingWithIDTieBreak(t *testing.T) {
	published := time.Now().Add(-time.Hour)
	stories := []domain.Story{
		{ID: "c", Title: "c", SourceName: "s", PublishedAt: published},
		{ID: "a", Title: "a", SourceName: "s", PublishedAt: published},
		{ID: "b", Title: "b", SourceName: "s", PublishedAt: published},
	}
	oracle := &fakeOracle{scoreFn: constantScores(50)}
	sc := newStageContext(stories)

	ranking.Score(context.Background(), sc, oracle, testScoreConfig(), discardLogger())

	require.Len(t, sc.Ranked, 3)
	// Identical composites: the lexical id tie-break makes order deterministic.
	assert.Equal(t, "a", sc.Ranked[0].Story.ID)
	assert.Equal(t, "b", sc.Ranked[1].Story.ID)
	assert.Equal(t, "c", sc.Ranked[2].Story.ID)
	for i := 1; i < len(sc.Ranked); i++ {
		assert.GreaterOrEqual(t, sc.Ranked[i-1].Relevance, sc.Ranked[i].Relevance)
	}
}

func TestScore_RecencyBonusAppliedAndClamped(t *testing.T) {
	now := time.Now()
	stories := []domain.Story{
		{ID: "fresh", Title: "fresh", SourceName: "s", PublishedAt: now},
		{ID: "stale", Title: "stale", SourceName: "s", PublishedAt: now.Add(-30 * 24 * time.Hour)},
	}
	oracle := &fakeOracle{scoreFn: constantScores(98)}
	sc := newStageContext(stories)
	sc.Now = now

	ranking.Score(context.Background(), sc, oracle, testScoreConfig(), discardLogger())

	require.Len(t, sc.Ranked, 2)
	assert.Equal(t, "fresh", sc.Ranked[0].Story.ID)
	assert.Equal(t, 100.0, sc.Ranked[0].Relevance, "98 + 5 bonus clamps to 100")
	assert.Equal(t, 98.0, sc.Ranked[1].Relevance, "stale story gets no bonus")
}

func TestScore_UnmatchedIDsDiscarded(t *testing.T) {
	oracle := &fakeOracle{scoreFn: func(batch []domain.Story) ([]domain.BatchScore, error) {
		results := []domain.BatchScore{{StoryID: "garbage-id", Score: 99}}
		for _, s := range batch {
			results = append(results, domain.BatchScore{StoryID: s.ID, Score: 60})
		}
		return results, nil
	}}
	sc := newStageContext(makeStories(3, time.Now().Add(-time.Hour)))

	ranking.Score(context.Background(), sc, oracle, testScoreConfig(), discardLogger())

	require.Len(t, sc.Ranked, 3)
	for _, rs := range sc.Ranked {
		assert.NotEqual(t, "garbage-id", rs.Story.ID)
	}
}

func TestScore_PartialBatchFailure_DropsOnlyFailedBatch(t *testing.T) {
	var calls int
	var mu sync.Mutex
	oracle := &fakeOracle{scoreFn: func(batch []domain.Story) ([]domain.BatchScore, error) {
		mu.Lock()
		calls++
		failing := calls == 1
		mu.Unlock()
		if failing {
			return nil, errors.New("oracle overloaded")
		}
		return constantScores(55)(batch)
	}}
	sc := newStageContext(makeStories(24, time.Now().Add(-time.Hour)))
	cfg := testScoreConfig()
	cfg.MaxInFlight = 1 // serialize so exactly one batch fails

	ranking.Score(context.Background(), sc, oracle, cfg, discardLogger())

	assert.False(t, sc.Degraded, "partial failure is not degradation")
	assert.Len(t, sc.Ranked, 12, "stories from the failed batch are absent")
}

func TestScore_AllBatchesFail_FallbackRanking(t *testing.T) {
	oracle := &fakeOracle{scoreFn: func(batch []domain.Story) ([]domain.BatchScore, error) {
		return nil, errors.New("oracle down")
	}}
	stories := makeStories(40, time.Now().Add(-time.Hour))
	sc := newStageContext(stories)

	ranking.Score(context.Background(), sc, oracle, testScoreConfig(), discardLogger())

	assert.True(t, sc.Degraded)
	require.Len(t, sc.Ranked, 30)

	// Fallback preserves upstream order and yields a monotonically
	// non-increasing score curve within [1,100].
	for i, rs := range sc.Ranked {
		assert.Equal(t, stories[i].ID, rs.Story.ID)
		assert.GreaterOrEqual(t, rs.Relevance, 1.0)
		assert.LessOrEqual(t, rs.Relevance, 100.0)
		if i > 0 {
			assert.LessOrEqual(t, rs.Relevance, sc.Ranked[i-1].Relevance)
		}
	}
	assert.Equal(t, 85.0, sc.Ranked[0].Relevance)
	assert.Equal(t, 40.0, sc.Ranked[len(sc.Ranked)-1].Relevance)
}

func TestScore_EmptyCandidates(t *testing.T) {
	oracle := &fakeOracle{scoreFn: constantScores(50)}
	sc := newStageContext(nil)

	ranking.Score(context.Background(), sc, oracle, testScoreConfig(), discardLogger())

	assert.Empty(t, sc.Ranked)
	assert.False(t, sc.Degraded)
}

func TestFallback_SingleCandidate(t *testing.T) {
	cfg := testScoreConfig()
	ranked := ranking.Fallback(makeStories(1, time.Now()), cfg)

	require.Len(t, ranked, 1)
	assert.Equal(t, 85.0, ranked[0].Relevance)
}

package di

import (
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"feed-ranker/internal/adapter/feed_http"
	"feed-ranker/internal/adapter/oracle"
	"feed-ranker/internal/adapter/repository"
	"feed-ranker/internal/domain"
	"feed-ranker/internal/infra/config"
	"feed-ranker/internal/infra/httpclient"
	"feed-ranker/internal/infra/retry"
	"feed-ranker/internal/usecase"
	"feed-ranker/internal/usecase/ranking"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	StoryRepo   domain.StoryRepository
	Embedder    domain.VectorEncoder
	Scorer      domain.RelevanceOracle
	RankUsecase usecase.RankFeedUsecase
	Handler     *feed_http.Handler
}

// NewApplicationComponents wires all dependencies from config and database pool.
func NewApplicationComponents(cfg *config.Config, pool *pgxpool.Pool, log *slog.Logger) *ApplicationComponents {
	storyRepo := repository.NewStoryRepository(pool)

	// Shared HTTP clients with connection pooling
	embedderHTTP := httpclient.NewPooledClient(time.Duration(cfg.Embedder.Timeout) * time.Second)
	scorerHTTP := httpclient.NewPooledClient(time.Duration(cfg.Scorer.Timeout) * time.Second)

	embedder := oracle.NewEmbedder(
		cfg.Embedder.URL, cfg.Embedder.Model,
		time.Duration(cfg.Embedder.Timeout)*time.Second,
		cfg.Embedder.CacheSize,
		embedderHTTP,
	)
	scorer := oracle.NewScorerClient(
		cfg.Scorer.URL, cfg.Scorer.Model,
		time.Duration(cfg.Scorer.Timeout)*time.Second,
		cfg.Scorer.RequestsPerS,
		log,
		scorerHTTP,
	)

	rankingConfig := usecase.RankingConfig{
		Encode: ranking.EncodeConfig{
			ExpectedDims: cfg.Embedder.Dims,
		},
		Retrieve: ranking.RetrieveConfig{
			PoolSize:            cfg.Ranking.PoolSize,
			SimilarityThreshold: cfg.Ranking.SimilarityThreshold,
			RecencyWindow:       time.Duration(cfg.Ranking.RecencyWindowDays) * 24 * time.Hour,
		},
		Constrain: ranking.ConstrainConfig{
			PerSourceMax:    cfg.Ranking.PerSourceMax,
			SourceBlocklist: cfg.Ranking.SourceBlocklist,
			FreshnessWeight: cfg.Ranking.FreshnessWeight,
			DecayWindowDays: cfg.Ranking.DecayWindowDays,
		},
		Score: ranking.ScoreConfig{
			FinalSize:       cfg.Ranking.FinalSize,
			BatchSize:       cfg.Ranking.BatchSize,
			MaxInFlight:     cfg.Ranking.MaxInFlight,
			BatchTimeout:    time.Duration(cfg.Ranking.BatchTimeoutSecs) * time.Second,
			RecencyBonusMax: cfg.Ranking.RecencyBonusMax,
			DecayWindowDays: cfg.Ranking.DecayWindowDays,
			FallbackHigh:    cfg.Ranking.FallbackHigh,
			FallbackLow:     cfg.Ranking.FallbackLow,
		},
		Retry: retry.Policy{
			MaxRetries: uint(cfg.Retry.MaxRetries),
			Delay:      time.Duration(cfg.Retry.DelayMS) * time.Millisecond,
			Retryable:  retry.Transient,
		},
	}

	rankUsecase := usecase.NewRankFeedUsecase(storyRepo, embedder, scorer, rankingConfig, log)
	handler := feed_http.NewHandler(rankUsecase)

	return &ApplicationComponents{
		StoryRepo:   storyRepo,
		Embedder:    embedder,
		Scorer:      scorer,
		RankUsecase: rankUsecase,
		Handler:     handler,
	}
}

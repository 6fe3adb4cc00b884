package usecase

import (
	"context"
	"log/slog"
	"time"

	"feed-ranker/internal/domain"
	"feed-ranker/internal/infra/logger"
	"feed-ranker/internal/infra/retry"
	"feed-ranker/internal/usecase/ranking"

	"github.com/google/uuid"
)

// RankFeedInput defines the input for RankFeed.
type RankFeedInput struct {
	Profile domain.UserProfile
}

// RankFeedOutput defines the output for RankFeed. Degraded is observability
// only: a degraded list has the same shape as a fully scored one.
type RankFeedOutput struct {
	Stories  []domain.RankedStory
	Degraded bool
}

// RankFeedUsecase is the pipeline's sole public entry point.
type RankFeedUsecase interface {
	Execute(ctx context.Context, input RankFeedInput) (*RankFeedOutput, error)
}

// RankingConfig aggregates the per-stage configuration. Immutable after
// construction; per-request overrides build a new usecase instead of
// mutating shared state.
type RankingConfig struct {
	Encode    ranking.EncodeConfig
	Retrieve  ranking.RetrieveConfig
	Constrain ranking.ConstrainConfig
	Score     ranking.ScoreConfig
	Retry     retry.Policy
}

type rankFeedUsecase struct {
	repo    domain.StoryRepository
	encoder domain.VectorEncoder
	oracle  domain.RelevanceOracle
	cfg     RankingConfig
	logger  *slog.Logger
	now     func() time.Time
}

// NewRankFeedUsecase creates a new RankFeedUsecase.
func NewRankFeedUsecase(
	repo domain.StoryRepository,
	encoder domain.VectorEncoder,
	oracle domain.RelevanceOracle,
	cfg RankingConfig,
	logger *slog.Logger,
) RankFeedUsecase {
	return &rankFeedUsecase{
		repo:    repo,
		encoder: encoder,
		oracle:  oracle,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

func (u *rankFeedUsecase) Execute(ctx context.Context, input RankFeedInput) (*RankFeedOutput, error) {
	if err := input.Profile.Validate(); err != nil {
		return nil, err
	}

	sc := &ranking.StageContext{
		RankingID: uuid.NewString(),
		Profile:   input.Profile,
		Now:       u.now(),
	}
	ctx = logger.WithRankingID(ctx, sc.RankingID)

	pipelineStart := time.Now()

	if err := ranking.EncodeProfile(logger.WithStage(ctx, "encode"), sc, u.encoder, u.cfg.Encode, u.logger); err != nil {
		return nil, &domain.PipelineError{Stage: "encode", Err: err}
	}

	if err := ranking.Retrieve(logger.WithStage(ctx, "retrieve"), sc, u.repo, u.cfg.Retry, u.cfg.Retrieve, u.logger); err != nil {
		return nil, &domain.PipelineError{Stage: "retrieve", Err: err}
	}

	if len(sc.Candidates) == 0 {
		u.logger.Info("no_candidates_found",
			slog.String("ranking_id", sc.RankingID))
		return &RankFeedOutput{Stories: []domain.RankedStory{}}, nil
	}

	sc.Constrained = ranking.Constrain(sc.Candidates, u.cfg.Constrain, sc.Now)

	ranking.Score(logger.WithStage(ctx, "score"), sc, u.oracle, u.cfg.Score, u.logger)

	for i := range sc.Ranked {
		sc.Ranked[i].DisplayTime = domain.RelativeTime(sc.Ranked[i].Story.PublishedAt, sc.Now)
	}

	u.logger.Info("ranking_completed",
		slog.String("ranking_id", sc.RankingID),
		slog.Int("candidate_count", len(sc.Candidates)),
		slog.Int("constrained_count", len(sc.Constrained)),
		slog.Int("ranked_count", len(sc.Ranked)),
		slog.Bool("degraded", sc.Degraded),
		slog.Int64("duration_ms", time.Since(pipelineStart).Milliseconds()))

	return &RankFeedOutput{Stories: sc.Ranked, Degraded: sc.Degraded}, nil
}

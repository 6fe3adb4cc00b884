package logger

import (
	"context"
	"log/slog"
)

type ContextKey string

const (
	// Business context keys following OpenTelemetry semantic conventions
	// with a 'feed.' prefix
	RankingIDKey ContextKey = "feed.ranking.id"
	StageKey     ContextKey = "feed.pipeline.stage"
)

// WithRankingID adds the per-request ranking id to context for observability
func WithRankingID(ctx context.Context, rankingID string) context.Context {
	return context.WithValue(ctx, RankingIDKey, rankingID)
}

// WithStage adds the pipeline stage to context for observability
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, StageKey, stage)
}

// FromContext returns a logger enriched with any business context present.
func FromContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	log := base

	if rankingID := ctx.Value(RankingIDKey); rankingID != nil {
		log = log.With(string(RankingIDKey), rankingID)
	}
	if stage := ctx.Value(StageKey); stage != nil {
		log = log.With(string(StageKey), stage)
	}

	return log
}

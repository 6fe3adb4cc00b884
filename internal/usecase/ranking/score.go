package ranking

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"feed-ranker/internal/domain"

	"golang.org/x/sync/errgroup"
)

// Score runs the second-stage relevance scoring (Stage 4): the constrained
// candidates are split into batches dispatched with bounded concurrency
// against the scoring oracle, merged by story id, combined with a small
// recency bonus and truncated to the final size. A failed batch contributes
// nothing; zero scored stories triggers the deterministic fallback ranking.
// Score never fails the pipeline.
func Score(
	ctx context.Context,
	sc *StageContext,
	oracle domain.RelevanceOracle,
	cfg ScoreConfig,
	logger *slog.Logger,
) {
	candidates := sc.Constrained
	if len(candidates) == 0 {
		sc.Ranked = []domain.RankedStory{}
		return
	}

	scoreStart := time.Now()
	oracleScores := dispatchBatches(ctx, sc, oracle, candidates, cfg, logger)

	if len(oracleScores) == 0 {
		logger.Warn("scoring_oracle_unavailable_using_fallback",
			slog.String("ranking_id", sc.RankingID),
			slog.Int("candidate_count", len(candidates)),
			slog.Int64("duration_ms", time.Since(scoreStart).Milliseconds()))
		sc.Ranked = Fallback(candidates, cfg)
		sc.Degraded = true
		return
	}

	ranked := make([]domain.RankedStory, 0, len(oracleScores))
	for _, story := range candidates {
		score, ok := oracleScores[story.ID]
		if !ok {
			// Story's batch failed; scored with fewer oracle votes than
			// intended, which partial-failure semantics accept.
			continue
		}
		composite := score + recencyBonus(story.PublishedAt, sc.Now, cfg)
		ranked = append(ranked, domain.RankedStory{
			Story:     story,
			Relevance: clampScore(composite),
		})
	}

	sortRanked(ranked)
	if len(ranked) > cfg.FinalSize {
		ranked = ranked[:cfg.FinalSize]
	}
	sc.Ranked = ranked

	logger.Info("scoring_completed",
		slog.String("ranking_id", sc.RankingID),
		slog.String("model", oracle.ModelName()),
		slog.Int("candidate_count", len(candidates)),
		slog.Int("scored_count", len(oracleScores)),
		slog.Int("ranked_count", len(ranked)),
		slog.Int64("duration_ms", time.Since(scoreStart).Milliseconds()))
}

// dispatchBatches fans the candidates out to the oracle in fixed-size
// batches with a bounded number of in-flight calls, joining before return.
// Batch-level failure is isolated: the batch simply contributes no scores.
func dispatchBatches(
	ctx context.Context,
	sc *StageContext,
	oracle domain.RelevanceOracle,
	candidates []domain.Story,
	cfg ScoreConfig,
	logger *slog.Logger,
) map[string]float64 {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = len(candidates)
	}

	members := make(map[string]bool, len(candidates))
	for _, story := range candidates {
		members[story.ID] = true
	}

	var mu sync.Mutex
	scores := make(map[string]float64)

	g, gctx := errgroup.WithContext(ctx)
	if cfg.MaxInFlight > 0 {
		g.SetLimit(cfg.MaxInFlight)
	}

	for start := 0; start < len(candidates); start += batchSize {
		end := start + batchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		batch := candidates[start:end]
		batchIndex := start / batchSize

		g.Go(func() error {
			batchCtx := gctx
			if cfg.BatchTimeout > 0 {
				var cancel context.CancelFunc
				batchCtx, cancel = context.WithTimeout(gctx, cfg.BatchTimeout)
				defer cancel()
			}

			results, err := oracle.ScoreBatch(batchCtx, sc.Profile, batch)
			if err != nil {
				logger.Warn("score_batch_failed",
					slog.String("ranking_id", sc.RankingID),
					slog.Int("batch_index", batchIndex),
					slog.Int("batch_size", len(batch)),
					slog.String("error", err.Error()))
				return nil // isolated: sibling batches proceed
			}

			mu.Lock()
			defer mu.Unlock()
			for _, r := range results {
				if !members[r.StoryID] {
					logger.Warn("score_batch_unmatched_id",
						slog.String("ranking_id", sc.RankingID),
						slog.Int("batch_index", batchIndex),
						slog.String("story_id", r.StoryID))
					continue
				}
				scores[r.StoryID] = r.Score
			}
			return nil
		})
	}

	_ = g.Wait()
	return scores
}

// recencyBonus is a small bounded bonus decaying linearly over the same
// freshness window the constraint filter uses.
func recencyBonus(publishedAt, now time.Time, cfg ScoreConfig) float64 {
	return cfg.RecencyBonusMax * freshness(publishedAt, now, cfg.DecayWindowDays)
}

func clampScore(score float64) float64 {
	if score < 1 {
		return 1
	}
	if score > 100 {
		return 100
	}
	return score
}

// sortRanked orders by descending relevance with a lexical story-id
// tie-break, so identical inputs produce byte-identical ordering.
func sortRanked(ranked []domain.RankedStory) {
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Relevance != ranked[j].Relevance {
			return ranked[i].Relevance > ranked[j].Relevance
		}
		return ranked[i].Story.ID < ranked[j].Story.ID
	})
}

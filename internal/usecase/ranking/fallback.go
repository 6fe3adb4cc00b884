package ranking

import "feed-ranker/internal/domain"

// Fallback produces the degraded ranking used when the scoring oracle was
// unavailable for the entire stage: candidates keep their upstream
// similarity/freshness order and receive a positional score curve descending
// from FallbackHigh to FallbackLow, so every result still carries a score.
// Terminal for the request; never retried.
func Fallback(candidates []domain.Story, cfg ScoreConfig) []domain.RankedStory {
	n := len(candidates)
	if n > cfg.FinalSize && cfg.FinalSize > 0 {
		n = cfg.FinalSize
	}

	ranked := make([]domain.RankedStory, 0, n)
	for i := 0; i < n; i++ {
		score := cfg.FallbackHigh
		if n > 1 {
			score = cfg.FallbackHigh - (cfg.FallbackHigh-cfg.FallbackLow)*float64(i)/float64(n-1)
		}
		ranked = append(ranked, domain.RankedStory{
			Story:     candidates[i],
			Relevance: clampScore(score),
		})
	}
	return ranked
}

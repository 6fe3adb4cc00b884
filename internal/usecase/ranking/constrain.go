package ranking

import (
	"sort"
	"strings"
	"time"

	"feed-ranker/internal/domain"
)

// Constrain applies the deterministic business constraints to the candidate
// pool (Stage 3): duplicate-id guard, near-duplicate title guard, per-source
// diversity cap, source blocklist, then a freshness-biased stable re-sort.
// Pure function: no I/O, no randomness; applying it to its own output is a
// no-op.
func Constrain(stories []domain.Story, cfg ConstrainConfig, now time.Time) []domain.Story {
	blocked := make(map[string]bool, len(cfg.SourceBlocklist))
	for _, src := range cfg.SourceBlocklist {
		blocked[domain.NormalizeSource(src)] = true
	}

	seenIDs := make(map[string]bool, len(stories))
	seenTitles := make(map[string]bool, len(stories))
	sourceCounts := make(map[string]int)

	survivors := make([]domain.Story, 0, len(stories))
	for _, story := range stories {
		if seenIDs[story.ID] {
			continue
		}
		title := normalizeTitle(story.Title)
		if seenTitles[title] {
			continue
		}
		source := domain.NormalizeSource(story.SourceName)
		if cfg.PerSourceMax > 0 && sourceCounts[source] >= cfg.PerSourceMax {
			continue
		}
		if blocked[source] {
			continue
		}

		seenIDs[story.ID] = true
		seenTitles[title] = true
		sourceCounts[source]++
		survivors = append(survivors, story)
	}

	// Partial re-sort: freshness carries only its configured share of the
	// ranking signal; the remainder stays with the incoming similarity
	// order, which stability preserves across freshness ties.
	sort.SliceStable(survivors, func(i, j int) bool {
		fi := cfg.FreshnessWeight * freshness(survivors[i].PublishedAt, now, cfg.DecayWindowDays)
		fj := cfg.FreshnessWeight * freshness(survivors[j].PublishedAt, now, cfg.DecayWindowDays)
		return fi > fj
	})

	return survivors
}

// freshness is the normalized recency score max(0, 1 - age/decayWindow).
func freshness(publishedAt, now time.Time, decayWindowDays float64) float64 {
	if decayWindowDays <= 0 {
		return 0
	}
	ageDays := now.Sub(publishedAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	f := 1 - ageDays/decayWindowDays
	if f < 0 {
		return 0
	}
	return f
}

func normalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

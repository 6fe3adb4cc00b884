package domain

import (
	"fmt"
	"strings"
	"time"
)

// UnknownSource is the sentinel assigned to stories without a source name.
const UnknownSource = "unknown"

// Story is a read-only snapshot of a document fetched from the store.
type Story struct {
	ID          string
	Title       string
	URL         string
	Content     string
	Tags        []string
	SourceName  string
	PublishedAt time.Time

	// RawEmbedding is the embedding as delivered by the store, which may be
	// a string-encoded vector such as "[0.1, 0.2, 0.3]".
	RawEmbedding string
	// Embedding is the normalized numeric vector parsed from RawEmbedding.
	// Nil when the raw value was missing or malformed.
	Embedding []float32
	// Similarity is the cosine similarity against the query vector,
	// clamped to [0,1]. Derived, not intrinsic to the story.
	Similarity float64
}

// RankedStory is the pipeline's sole output artifact.
type RankedStory struct {
	Story       Story
	Relevance   float64
	DisplayTime string
}

// NormalizeSource lower-cases and trims a source name, mapping empty values
// to the UnknownSource sentinel.
func NormalizeSource(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return UnknownSource
	}
	return name
}

// RelativeTime renders a published timestamp as a feed-friendly relative
// string ("3h ago"). Timestamps in the future render as "just now".
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}

package ranking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"feed-ranker/internal/domain"
)

// RenderProfile builds the natural-language representation of a profile in a
// fixed field order, so encoding is deterministic for identical input.
func RenderProfile(p domain.UserProfile) string {
	interests := make([]string, 0, len(p.Interests))
	for _, it := range p.Interests {
		if trimmed := strings.TrimSpace(it); trimmed != "" {
			interests = append(interests, trimmed)
		}
	}

	var b strings.Builder
	b.WriteString("I work as a ")
	b.WriteString(strings.TrimSpace(p.Role))
	b.WriteString(". I am interested in: ")
	b.WriteString(strings.Join(interests, ", "))
	b.WriteString(". I am currently working on: ")
	b.WriteString(strings.TrimSpace(p.Projects))
	b.WriteString(".")
	return b.String()
}

// EncodeProfile turns the profile into the dense query vector (Stage 1).
// Oracle failures and malformed vectors are pipeline-fatal: no
// personalization is possible without a query vector.
func EncodeProfile(
	ctx context.Context,
	sc *StageContext,
	encoder domain.VectorEncoder,
	cfg EncodeConfig,
	logger *slog.Logger,
) error {
	text := RenderProfile(sc.Profile)

	encodeStart := time.Now()
	embeddings, err := encoder.Encode(ctx, []string{text})
	if err != nil {
		return &domain.EncodingError{Err: err}
	}
	if len(embeddings) == 0 {
		return &domain.EncodingError{Err: fmt.Errorf("no embedding returned for profile")}
	}

	vec := embeddings[0]
	if cfg.ExpectedDims > 0 && len(vec) != cfg.ExpectedDims {
		return &domain.EncodingError{
			Err: fmt.Errorf("expected %d dimensions, got %d", cfg.ExpectedDims, len(vec)),
		}
	}
	if !domain.IsFiniteVector(vec) {
		return &domain.EncodingError{Err: fmt.Errorf("embedding contains non-finite components")}
	}

	sc.QueryVector = vec

	logger.Info("profile_encoded",
		slog.String("ranking_id", sc.RankingID),
		slog.String("model", encoder.Version()),
		slog.Int("dimensions", len(vec)),
		slog.Int64("duration_ms", time.Since(encodeStart).Milliseconds()))

	return nil
}

package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"feed-ranker/internal/domain"
	"feed-ranker/internal/infra/logger"

	"golang.org/x/time/rate"
)

const scoringRubric = `Score each story from 0 to 100 for how relevant it is to this reader. ` +
	`Weigh direct overlap with the reader's interests and current projects highest, ` +
	`professional usefulness for their role next, and general appeal last. ` +
	`Return a score for every story id you can judge.`

// maxContentChars bounds the per-story context sent to the oracle so a batch
// stays within its context window.
const maxContentChars = 500

// ScoreRequest is the request payload for the scoring endpoint.
type ScoreRequest struct {
	Model   string       `json:"model,omitempty"`
	Profile scoreProfile `json:"profile"`
	Stories []scoreStory `json:"stories"`
	Rubric  string       `json:"rubric"`
}

type scoreProfile struct {
	Role      string   `json:"role"`
	Interests []string `json:"interests"`
	Projects  string   `json:"projects"`
}

type scoreStory struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Content     string   `json:"content,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Source      string   `json:"source"`
	PublishedAt string   `json:"published_at"`
}

// ScoreResponseResult is a single result in the scoring response.
type ScoreResponseResult struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// ScoreResponse is the response from the scoring endpoint.
type ScoreResponse struct {
	Results []ScoreResponseResult `json:"results"`
	Model   string                `json:"model"`
}

// ScorerClient implements domain.RelevanceOracle via HTTP calls to the
// scoring service. Calls are rate-limited to protect the oracle from
// fan-out bursts.
type ScorerClient struct {
	BaseURL string
	Model   string
	Client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewScorerClient constructs a new ScorerClient. requestsPerSecond <= 0
// disables rate limiting. If client is nil, a default http.Client is created
// with the given timeout.
func NewScorerClient(baseURL, model string, timeout time.Duration, requestsPerSecond float64, logger *slog.Logger, client ...*http.Client) *ScorerClient {
	var c *http.Client
	if len(client) > 0 && client[0] != nil {
		c = client[0]
	} else {
		c = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}

	return &ScorerClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		Client:  c,
		limiter: limiter,
		logger:  logger,
	}
}

// ScoreBatch scores the stories against the profile. Results come back in
// oracle order; unmatched ids are the caller's responsibility to filter.
func (c *ScorerClient) ScoreBatch(ctx context.Context, profile domain.UserProfile, stories []domain.Story) ([]domain.BatchScore, error) {
	if len(stories) == 0 {
		return []domain.BatchScore{}, nil
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	log := logger.FromContext(ctx, c.logger)

	startTime := time.Now()
	log.Info("scoring_started",
		slog.Int("story_count", len(stories)),
		slog.String("model", c.Model))

	reqStories := make([]scoreStory, len(stories))
	for i, s := range stories {
		reqStories[i] = scoreStory{
			ID:          s.ID,
			Title:       s.Title,
			Content:     truncateString(s.Content, maxContentChars),
			Tags:        s.Tags,
			Source:      s.SourceName,
			PublishedAt: s.PublishedAt.Format(time.RFC3339),
		}
	}

	reqBody := ScoreRequest{
		Model: c.Model,
		Profile: scoreProfile{
			Role:      profile.Role,
			Interests: profile.Interests,
			Projects:  profile.Projects,
		},
		Stories: reqStories,
		Rubric:  scoringRubric,
	}

	jsonPayload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal score request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/score", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("failed to create score request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		log.Warn("scoring_failed",
			slog.String("error", err.Error()),
			slog.Int64("elapsed_ms", time.Since(startTime).Milliseconds()))
		return nil, fmt.Errorf("failed to call score endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Warn("scoring_failed",
			slog.Int("status_code", resp.StatusCode),
			slog.String("body", truncateString(string(body), 500)),
			slog.Int64("elapsed_ms", time.Since(startTime).Milliseconds()))
		return nil, fmt.Errorf("score endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var scoreResp ScoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&scoreResp); err != nil {
		return nil, fmt.Errorf("failed to decode score response: %w", err)
	}

	results := make([]domain.BatchScore, 0, len(scoreResp.Results))
	for _, r := range scoreResp.Results {
		results = append(results, domain.BatchScore{
			StoryID: r.ID,
			Score:   r.Score,
		})
	}

	log.Info("scoring_batch_completed",
		slog.Int("result_count", len(results)),
		slog.String("model", scoreResp.Model),
		slog.Int64("elapsed_ms", time.Since(startTime).Milliseconds()))

	return results, nil
}

// ModelName returns the model identifier for logging/debugging.
func (c *ScorerClient) ModelName() string {
	return c.Model
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

var _ domain.RelevanceOracle = (*ScorerClient)(nil)

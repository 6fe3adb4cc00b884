package feed_http

import (
	"errors"
	"net/http"
	"time"

	"feed-ranker/internal/domain"
	"feed-ranker/internal/usecase"

	"github.com/labstack/echo/v4"
)

// Handler exposes the ranking pipeline over HTTP.
type Handler struct {
	rankUsecase usecase.RankFeedUsecase
}

func NewHandler(rankUsecase usecase.RankFeedUsecase) *Handler {
	return &Handler{rankUsecase: rankUsecase}
}

// RankRequest is the profile-shaped payload accepted by the rank endpoint.
type RankRequest struct {
	Role      string   `json:"role"`
	Interests []string `json:"interests"`
	Projects  string   `json:"projects"`
}

// RankedStoryResponse is a single ranked story in the response.
type RankedStoryResponse struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Tags        []string `json:"tags,omitempty"`
	Source      string   `json:"source"`
	PublishedAt string   `json:"published_at"`
	Relevance   float64  `json:"relevance"`
	DisplayTime string   `json:"display_time"`
}

// RankResponse is the success payload.
type RankResponse struct {
	Stories  []RankedStoryResponse `json:"stories"`
	Degraded bool                  `json:"degraded"`
}

// ErrorResponse is the structured failure payload.
type ErrorResponse struct {
	Error     string `json:"error"`
	Reason    string `json:"reason"`
	Timestamp string `json:"timestamp"`
}

// RankFeed handles POST /v1/feed/rank. Validation failures are a client
// error class, distinct from pipeline failures.
func (h *Handler) RankFeed(c echo.Context) error {
	var req RankRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, newErrorResponse("invalid_request", "request body is not valid JSON"))
	}

	profile := domain.UserProfile{
		Role:      req.Role,
		Interests: req.Interests,
		Projects:  req.Projects,
		CreatedAt: time.Now(),
	}
	if err := profile.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, newErrorResponse("validation_failed", err.Error()))
	}

	output, err := h.rankUsecase.Execute(c.Request().Context(), usecase.RankFeedInput{Profile: profile})
	if err != nil {
		var valErr *domain.ValidationError
		if errors.As(err, &valErr) {
			return c.JSON(http.StatusBadRequest, newErrorResponse("validation_failed", err.Error()))
		}
		return c.JSON(http.StatusBadGateway, newErrorResponse("pipeline_failed", err.Error()))
	}

	stories := make([]RankedStoryResponse, 0, len(output.Stories))
	for _, rs := range output.Stories {
		stories = append(stories, RankedStoryResponse{
			ID:          rs.Story.ID,
			Title:       rs.Story.Title,
			URL:         rs.Story.URL,
			Tags:        rs.Story.Tags,
			Source:      rs.Story.SourceName,
			PublishedAt: rs.Story.PublishedAt.Format(time.RFC3339),
			Relevance:   rs.Relevance,
			DisplayTime: rs.DisplayTime,
		})
	}

	return c.JSON(http.StatusOK, RankResponse{
		Stories:  stories,
		Degraded: output.Degraded,
	})
}

func newErrorResponse(kind, reason string) ErrorResponse {
	return ErrorResponse{
		Error:     kind,
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

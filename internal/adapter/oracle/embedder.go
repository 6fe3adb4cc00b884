package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"feed-ranker/internal/domain"
	"feed-ranker/internal/infra/logger"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Embedder calls an Ollama-compatible embedding endpoint. The oracle is
// idempotent for identical text, so results are memoized in a small LRU
// cache keyed by input text.
type Embedder struct {
	BaseURL string
	Model   string
	Client  *http.Client
	cache   *lru.Cache[string, []float32]
}

// NewEmbedder constructs an Embedder. If client is nil, a default
// http.Client is created with the given timeout. cacheSize <= 0 disables
// caching.
func NewEmbedder(baseURL, model string, timeout time.Duration, cacheSize int, client ...*http.Client) *Embedder {
	var c *http.Client
	if len(client) > 0 && client[0] != nil {
		c = client[0]
	} else {
		c = &http.Client{Timeout: timeout}
	}

	var cache *lru.Cache[string, []float32]
	if cacheSize > 0 {
		cache, _ = lru.New[string, []float32](cacheSize)
	}

	return &Embedder{
		BaseURL: baseURL,
		Model:   model,
		Client:  c,
		cache:   cache,
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (e *Embedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	missing := make([]int, 0, len(texts))
	for i, text := range texts {
		if e.cache != nil {
			if vec, ok := e.cache.Get(text); ok {
				results[i] = vec
				continue
			}
		}
		missing = append(missing, i)
	}
	if len(missing) == 0 {
		return results, nil
	}

	input := make([]string, len(missing))
	for i, idx := range missing {
		input[i] = texts[idx]
	}

	log := logger.FromContext(ctx, slog.Default())
	log.Info("embed_started",
		slog.Int("text_count", len(texts)),
		slog.Int("cache_hits", len(texts)-len(missing)),
		slog.String("model", e.Model))
	start := time.Now()

	reqBody := embedRequest{
		Model: e.Model,
		Input: input,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/embed", e.BaseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.Client.Do(req)
	if err != nil {
		log.Error("embed_failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("failed to call embedder: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		log.Error("embed_bad_status",
			slog.Int("status", resp.StatusCode),
			slog.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("embedder returned status: %d", resp.StatusCode)
	}

	var respBody embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(respBody.Embeddings) != len(input) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(input), len(respBody.Embeddings))
	}

	for i, idx := range missing {
		results[idx] = respBody.Embeddings[i]
		if e.cache != nil {
			e.cache.Add(texts[idx], respBody.Embeddings[i])
		}
	}

	log.Info("embed_completed",
		slog.Int("embedding_count", len(respBody.Embeddings)),
		slog.Duration("elapsed", time.Since(start)))

	return results, nil
}

func (e *Embedder) Version() string {
	return e.Model
}

var _ domain.VectorEncoder = (*Embedder)(nil)

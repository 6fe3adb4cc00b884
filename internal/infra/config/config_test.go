package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "9020", cfg.Port)

	assert.Equal(t, "feed-db", cfg.DB.Host)
	assert.Equal(t, "5432", cfg.DB.Port)

	assert.Equal(t, "embeddinggemma", cfg.Embedder.Model)
	assert.Equal(t, 768, cfg.Embedder.Dims)
	assert.Equal(t, 256, cfg.Embedder.CacheSize)

	assert.Equal(t, "gpt-oss20b-cpu", cfg.Scorer.Model)
	assert.Equal(t, 5.0, cfg.Scorer.RequestsPerS)

	assert.Equal(t, 80, cfg.Ranking.PoolSize)
	assert.Equal(t, 0.30, cfg.Ranking.SimilarityThreshold)
	assert.Equal(t, 30, cfg.Ranking.RecencyWindowDays)
	assert.Equal(t, 10, cfg.Ranking.PerSourceMax)
	assert.Nil(t, cfg.Ranking.SourceBlocklist)
	assert.Equal(t, 30, cfg.Ranking.FinalSize)
	assert.Equal(t, 12, cfg.Ranking.BatchSize)
	assert.Equal(t, 3, cfg.Ranking.MaxInFlight)
	assert.Equal(t, 85.0, cfg.Ranking.FallbackHigh)
	assert.Equal(t, 40.0, cfg.Ranking.FallbackLow)

	assert.Equal(t, 2, cfg.Retry.MaxRetries)
	assert.Equal(t, 500, cfg.Retry.DelayMS)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("PORT", "8080")
	t.Setenv("RANK_POOL_SIZE", "120")
	t.Setenv("RANK_SIMILARITY_THRESHOLD", "0.45")
	t.Setenv("RANK_SOURCE_BLOCKLIST", "spamsite, contentfarm ,")
	t.Setenv("SCORER_RPS", "2.5")
	t.Setenv("RETRY_MAX_RETRIES", "5")

	cfg := Load()

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 120, cfg.Ranking.PoolSize)
	assert.Equal(t, 0.45, cfg.Ranking.SimilarityThreshold)
	assert.Equal(t, []string{"spamsite", "contentfarm"}, cfg.Ranking.SourceBlocklist)
	assert.Equal(t, 2.5, cfg.Scorer.RequestsPerS)
	assert.Equal(t, 5, cfg.Retry.MaxRetries)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("RANK_POOL_SIZE", "not-a-number")
	t.Setenv("RANK_FRESHNESS_WEIGHT", "lots")

	cfg := Load()

	assert.Equal(t, 80, cfg.Ranking.PoolSize)
	assert.Equal(t, 0.3, cfg.Ranking.FreshnessWeight)
}

func TestGetSecret_PrefersEnvOverFile(t *testing.T) {
	secretFile := filepath.Join(t.TempDir(), "db_password")
	require.NoError(t, os.WriteFile(secretFile, []byte("file-secret\n"), 0o600))

	t.Setenv("DB_PASSWORD_FILE", secretFile)
	assert.Equal(t, "file-secret", getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "fallback"))

	t.Setenv("DB_PASSWORD", "env-secret")
	assert.Equal(t, "env-secret", getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "fallback"))
}

func TestGetSecret_FallbackWhenFileMissing(t *testing.T) {
	t.Setenv("DB_PASSWORD_FILE", filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Equal(t, "fallback", getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "fallback"))
}

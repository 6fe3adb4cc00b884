package config

import (
	"os"
	"strconv"
	"strings"
)

// Config is the immutable service configuration. All ranking tunables live
// here so tests and per-deployment overrides never touch package globals.
type Config struct {
	Env  string
	Port string

	DB       DBConfig
	Embedder EmbedderConfig
	Scorer   ScorerConfig
	Ranking  RankingConfig
	Retry    RetryConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type EmbedderConfig struct {
	URL       string
	Model     string
	Timeout   int // seconds
	Dims      int
	CacheSize int
}

type ScorerConfig struct {
	URL          string
	Model        string
	Timeout      int // seconds
	RequestsPerS float64
}

type RankingConfig struct {
	PoolSize            int
	SimilarityThreshold float64
	RecencyWindowDays   int
	PerSourceMax        int
	SourceBlocklist     []string
	FreshnessWeight     float64
	DecayWindowDays     float64
	FinalSize           int
	BatchSize           int
	MaxInFlight         int
	BatchTimeoutSecs    int
	RecencyBonusMax     float64
	FallbackHigh        float64
	FallbackLow         float64
}

type RetryConfig struct {
	MaxRetries int
	DelayMS    int
}

func Load() *Config {
	return &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "9020"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "feed-db"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "feed_user"),
			Password: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "feed_password"),
			Name:     getEnv("DB_NAME", "feed_db"),
		},
		Embedder: EmbedderConfig{
			URL:       getEnv("EMBEDDER_URL", "http://augur-external:11434"),
			Model:     getEnv("EMBEDDING_MODEL", "embeddinggemma"),
			Timeout:   getEnvInt("EMBEDDER_TIMEOUT", 30),
			Dims:      getEnvInt("EMBEDDING_DIMS", 768),
			CacheSize: getEnvInt("EMBEDDER_CACHE_SIZE", 256),
		},
		Scorer: ScorerConfig{
			URL:          getEnv("SCORER_URL", "http://augur-external:11435"),
			Model:        getEnv("SCORER_MODEL", "gpt-oss20b-cpu"),
			Timeout:      getEnvInt("SCORER_TIMEOUT", 45),
			RequestsPerS: getEnvFloat("SCORER_RPS", 5.0),
		},
		Ranking: RankingConfig{
			PoolSize:            getEnvInt("RANK_POOL_SIZE", 80),
			SimilarityThreshold: getEnvFloat("RANK_SIMILARITY_THRESHOLD", 0.30),
			RecencyWindowDays:   getEnvInt("RANK_RECENCY_WINDOW_DAYS", 30),
			PerSourceMax:        getEnvInt("RANK_PER_SOURCE_MAX", 10),
			SourceBlocklist:     getEnvList("RANK_SOURCE_BLOCKLIST", nil),
			FreshnessWeight:     getEnvFloat("RANK_FRESHNESS_WEIGHT", 0.3),
			DecayWindowDays:     getEnvFloat("RANK_DECAY_WINDOW_DAYS", 7),
			FinalSize:           getEnvInt("RANK_FINAL_SIZE", 30),
			BatchSize:           getEnvInt("RANK_BATCH_SIZE", 12),
			MaxInFlight:         getEnvInt("RANK_MAX_IN_FLIGHT", 3),
			BatchTimeoutSecs:    getEnvInt("RANK_BATCH_TIMEOUT", 60),
			RecencyBonusMax:     getEnvFloat("RANK_RECENCY_BONUS_MAX", 5),
			FallbackHigh:        getEnvFloat("RANK_FALLBACK_HIGH", 85),
			FallbackLow:         getEnvFloat("RANK_FALLBACK_LOW", 40),
		},
		Retry: RetryConfig{
			MaxRetries: getEnvInt("RETRY_MAX_RETRIES", 2),
			DelayMS:    getEnvInt("RETRY_DELAY_MS", 500),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		var items []string
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				items = append(items, trimmed)
			}
		}
		return items
	}
	return fallback
}

// Package config loads runtime settings from the environment and the source
// catalog from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidMode      = errors.New("MODE must be 'cluster' or 'pairwise'")
	ErrInvalidFeatures  = errors.New("FEATURES must be 'text' or 'entities'")
	ErrInvalidCluster   = errors.New("CLUSTER_EPS must be > 0 and CLUSTER_MIN_SAMPLES >= 1")
	ErrTelegramChat     = errors.New("TELEGRAM_CHAT_ID is required when TELEGRAM_TOKEN is set")
	ErrInvalidThreshold = errors.New("SIMILARITY_THRESHOLD must be in (0, 1]")
)

type Config struct {
	// Engine settings
	Strategy            string // count | tfidf, checked by the similarity engine
	Features            string // text | entities
	Mode                string // cluster | pairwise
	ClusterEps          float64
	ClusterMinSamples   int
	SimilarityThreshold float64
	NameTopN            int
	MaxBatchSize        int // 0 = unlimited
	NERModelPath        string

	// RSS settings
	SourcesConfigPath string
	PollInterval      time.Duration

	// Scraper settings
	ScrapeEnabled     bool
	ScrapeMaxArticles int
	ScrapeRate        float64 // requests per second

	// Gemini settings
	GeminiAPIKey      string
	MaxGeminiRequests int // daily budget (0 = unlimited)

	// Telegram settings
	TelegramToken  string
	TelegramChatID string
	MaxStories     int

	// App settings
	Debug          bool
	LogLevel       string
	RequestTimeout time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration

	// Monitoring
	EnableHTTPMonitoring bool
	MonitoringPort       string
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		Strategy:            "tfidf",
		Features:            "text",
		Mode:                "cluster",
		ClusterEps:          0.8,
		ClusterMinSamples:   2,
		SimilarityThreshold: 0.4,
		NameTopN:            5,
		MaxBatchSize:        500,
		SourcesConfigPath:   "configs/sources.yaml",
		PollInterval:        60 * time.Second,
		ScrapeMaxArticles:   10,
		ScrapeRate:          2,
		MaxGeminiRequests:   50,
		MaxStories:          10,
		RequestTimeout:      10 * time.Second,
		RetryAttempts:       3,
		RetryDelay:          2 * time.Second,
		MonitoringPort:      "8080",
	}

	cfg.Strategy = getEnvOrDefault("STRATEGY", cfg.Strategy)
	cfg.Features = getEnvOrDefault("FEATURES", cfg.Features)
	cfg.Mode = getEnvOrDefault("MODE", cfg.Mode)
	cfg.NERModelPath = os.Getenv("NER_MODEL_PATH")
	cfg.SourcesConfigPath = getEnvOrDefault("SOURCES_CONFIG_PATH", cfg.SourcesConfigPath)

	if v := os.Getenv("CLUSTER_EPS"); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.ClusterEps = val
		}
	}
	cfg.ClusterMinSamples = getEnvIntOrDefault("CLUSTER_MIN_SAMPLES", cfg.ClusterMinSamples)
	if v := os.Getenv("SIMILARITY_THRESHOLD"); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.SimilarityThreshold = val
		}
	}
	if v := os.Getenv("NAME_TOP_N"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.NameTopN = val
		}
	}
	if v := os.Getenv("MAX_BATCH_SIZE"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val >= 0 {
			cfg.MaxBatchSize = val
		}
	}

	cfg.PollInterval = getEnvDurationOrDefault("POLL_INTERVAL", cfg.PollInterval)
	cfg.RequestTimeout = getEnvDurationOrDefault("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.RetryDelay = getEnvDurationOrDefault("RETRY_DELAY", cfg.RetryDelay)
	if v := os.Getenv("RETRY_ATTEMPTS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.RetryAttempts = val
		}
	}

	cfg.ScrapeEnabled = os.Getenv("SCRAPE_ENABLED") == "true"
	if v := os.Getenv("SCRAPE_MAX_ARTICLES"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.ScrapeMaxArticles = val
		}
	}
	if v := os.Getenv("SCRAPE_RATE"); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil && val > 0 {
			cfg.ScrapeRate = val
		}
	}

	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	if gr := os.Getenv("MAX_GEMINI_REQUESTS"); gr != "" {
		if val, err := strconv.Atoi(gr); err == nil && val >= 0 {
			cfg.MaxGeminiRequests = val
		}
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.TelegramChatID = os.Getenv("TELEGRAM_CHAT_ID")
	if v := os.Getenv("MAX_STORIES"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.MaxStories = val
		}
	}

	cfg.Debug = os.Getenv("DEBUG") == "true"
	cfg.LogLevel = os.Getenv("LOG_LEVEL")
	cfg.EnableHTTPMonitoring = os.Getenv("ENABLE_HTTP_MONITORING") == "true"
	cfg.MonitoringPort = getEnvOrDefault("MONITORING_PORT", cfg.MonitoringPort)

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDurationOrDefault accepts Go durations ("90s") or whole seconds.
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// Validate checks the settings the engine does not check itself. The
// vectorization strategy is validated when the engine is built.
func (c *Config) Validate() error {
	if c.Mode != "cluster" && c.Mode != "pairwise" {
		return ErrInvalidMode
	}
	if c.Features != "text" && c.Features != "entities" {
		return ErrInvalidFeatures
	}
	if c.ClusterEps <= 0 || c.ClusterMinSamples < 1 {
		return fmt.Errorf("%w: eps=%v min_samples=%d", ErrInvalidCluster, c.ClusterEps, c.ClusterMinSamples)
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidThreshold, c.SimilarityThreshold)
	}
	if c.TelegramToken != "" && c.TelegramChatID == "" {
		return ErrTelegramChat
	}
	return nil
}

// TelegramEnabled reports whether digests should be delivered to Telegram.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != ""
}

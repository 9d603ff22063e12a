package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/deusflow/dedupnews/internal/app"
	"github.com/deusflow/dedupnews/internal/article"
	"github.com/deusflow/dedupnews/internal/config"
	"github.com/deusflow/dedupnews/internal/engine"
	"github.com/deusflow/dedupnews/internal/gemini"
	"github.com/deusflow/dedupnews/internal/logger"
	"github.com/deusflow/dedupnews/internal/metrics"
	"github.com/deusflow/dedupnews/internal/nlp"
	"github.com/deusflow/dedupnews/internal/ratelimit"
	"github.com/deusflow/dedupnews/internal/retry"
	"github.com/deusflow/dedupnews/internal/rss"
	"github.com/deusflow/dedupnews/internal/scraper"
	"github.com/deusflow/dedupnews/internal/telegram"
)

var (
	jsonOutput bool
	noSend     bool
)

func main() {
	// A missing .env is fine: the environment may already be set.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		os.Exit(1)
	}
	logger.Init()

	rootCmd := &cobra.Command{
		Use:           "dedupnews",
		Short:         "Group news stories from many feeds into events",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print the digest as JSON")
	rootCmd.PersistentFlags().BoolVar(&noSend, "no-send", false, "do not deliver the digest to Telegram")

	rootCmd.AddCommand(runCmd, onceCmd, clusterCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll the feeds and cluster every cycle until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, cfg, cleanup, err := build(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if cfg.EnableHTTPMonitoring {
			go startMonitoringServer(cfg.MonitoringPort)
		}
		return a.Run(ctx)
	},
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single fetch and cluster cycle",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, cleanup, err := build(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		_, err = a.RunOnce(cmd.Context())
		return err
	},
}

var clusterCmd = &cobra.Command{
	Use:   "cluster [articles.json]",
	Short: "Cluster a JSON array of articles without fetching feeds",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read articles: %w", err)
		}
		var records []article.Record
		if err := json.Unmarshal(data, &records); err != nil {
			return fmt.Errorf("failed to parse articles: %w", err)
		}

		a, _, cleanup, err := build(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		batch := article.Dedupe(article.FromRecords(records))
		logger.Info("Loaded articles", "file", args[0], "records", len(records), "articles", len(batch))
		_, err = a.Process(cmd.Context(), uuid.NewString(), batch, nil)
		return err
	},
}

// build loads configuration and models and wires the optional services.
// The returned cleanup releases the Gemini client.
func build(ctx context.Context) (*app.App, *config.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	catalog, err := config.LoadCatalog(cfg.SourcesConfigPath)
	if err != nil {
		return nil, nil, nil, err
	}

	models, err := nlp.Load(nlp.Options{NERModelPath: cfg.NERModelPath})
	if err != nil {
		return nil, nil, nil, err
	}
	eng, err := engine.New(models, app.EngineOptions(cfg, catalog))
	if err != nil {
		return nil, nil, nil, err
	}

	retryCfg := retry.RetryConfig{MaxAttempts: cfg.RetryAttempts, Delay: cfg.RetryDelay, Exponential: true}
	deps := app.Deps{
		Fetcher: &rss.Fetcher{Timeout: cfg.RequestTimeout, Retry: retryCfg},
		Metrics: metrics.Global,
		Out:     os.Stdout,
		JSON:    jsonOutput,
	}
	if cfg.ScrapeEnabled {
		deps.Scraper = scraper.New(scraper.Config{
			Timeout:     cfg.RequestTimeout,
			RateLimit:   cfg.ScrapeRate,
			MaxArticles: cfg.ScrapeMaxArticles,
		})
	}

	cleanup := func() {}
	if cfg.GeminiAPIKey != "" {
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			logger.Warn("Gemini disabled", "error", err)
		} else {
			deps.Headliner = client
			deps.Budget = ratelimit.NewBudget("gemini", cfg.MaxGeminiRequests)
			cleanup = client.Close
		}
	}
	if cfg.TelegramEnabled() && !noSend {
		tg := telegram.NewClient(cfg.TelegramToken, cfg.TelegramChatID)
		tg.Retry = retryCfg
		deps.Sender = tg
	}

	logger.Info("Configuration loaded",
		"strategy", cfg.Strategy,
		"features", cfg.Features,
		"mode", cfg.Mode,
		"feeds", len(catalog.Feeds),
		"scrape", cfg.ScrapeEnabled,
		"headlines", deps.Headliner != nil,
		"telegram", deps.Sender != nil,
		"debug", cfg.Debug)

	a, err := app.New(cfg, catalog, eng, deps)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	return a, cfg, cleanup, nil
}

func startMonitoringServer(port string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/metrics", metricsHandler)

	logger.Info("Starting monitoring server", "port", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		logger.Error("Monitoring server error", "error", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	code := http.StatusOK
	if !metrics.Global.Healthy() {
		status = "error"
		code = http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_cycle": stats["last_cycle_id"],
		"last_error": stats["last_error"],
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(response)
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(metrics.Global.GetStats())
}

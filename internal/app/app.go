// Package app runs the poll cycle around the deduplication engine: fetch the
// catalog feeds, build one in-memory batch, cluster it and deliver the
// digest. Nothing is kept between cycles.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/deusflow/dedupnews/internal/article"
	"github.com/deusflow/dedupnews/internal/cluster"
	"github.com/deusflow/dedupnews/internal/config"
	"github.com/deusflow/dedupnews/internal/engine"
	"github.com/deusflow/dedupnews/internal/logger"
	"github.com/deusflow/dedupnews/internal/metrics"
	"github.com/deusflow/dedupnews/internal/ratelimit"
	"github.com/deusflow/dedupnews/internal/report"
	"github.com/deusflow/dedupnews/internal/rss"
)

// FeedFetcher downloads the catalog feeds.
type FeedFetcher interface {
	FetchAll(ctx context.Context, feeds []config.Feed) (*rss.Result, error)
}

// Enricher fills in missing article bodies.
type Enricher interface {
	Enrich(ctx context.Context, items []rss.Item) []rss.Item
}

// Headliner writes one headline for a story from its member titles.
type Headliner interface {
	Headline(ctx context.Context, titles []string) (string, error)
}

// Sender delivers a rendered digest.
type Sender interface {
	SendMessage(ctx context.Context, text string) error
}

// Deps are the collaborators of an App. Only Fetcher is required.
type Deps struct {
	Fetcher   FeedFetcher
	Scraper   Enricher
	Headliner Headliner
	Budget    *ratelimit.Budget
	Sender    Sender
	Metrics   *metrics.Metrics

	// Out receives the console or JSON digest; nil disables printing.
	Out  io.Writer
	JSON bool
}

type App struct {
	cfg     *config.Config
	catalog *config.Catalog
	engine  *engine.Engine
	deps    Deps
}

func New(cfg *config.Config, catalog *config.Catalog, eng *engine.Engine, deps Deps) (*App, error) {
	if deps.Fetcher == nil {
		return nil, errors.New("app: feed fetcher is required")
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Global
	}
	return &App{cfg: cfg, catalog: catalog, engine: eng, deps: deps}, nil
}

// EngineOptions maps the runtime configuration and the catalog tables onto
// engine options.
func EngineOptions(cfg *config.Config, catalog *config.Catalog) engine.Options {
	opts := engine.Options{
		Strategy:  cfg.Strategy,
		Features:  engine.Features(cfg.Features),
		Cluster:   cluster.Params{Eps: cfg.ClusterEps, MinSamples: cfg.ClusterMinSamples},
		Threshold: cfg.SimilarityThreshold,
		TopN:      cfg.NameTopN,
	}
	if catalog != nil {
		opts.Boilerplate = catalog.Boilerplate
		opts.Locations = catalog.Locations
	}
	return opts
}

// Run executes a cycle immediately and then every poll interval until ctx
// is done. A failed cycle is logged and does not stop the loop.
func (a *App) Run(ctx context.Context) error {
	interval := a.cfg.PollInterval
	if interval <= 0 {
		interval = 60 * time.Second
	}
	logger.Info("Starting poll loop", "interval", interval, "feeds", len(a.catalog.Feeds), "mode", a.cfg.Mode)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := a.RunOnce(ctx); err != nil && ctx.Err() == nil {
			logger.Error("Cycle failed", "error", err)
		}
		select {
		case <-ctx.Done():
			logger.Info("Poll loop stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce fetches every feed and processes the resulting batch.
func (a *App) RunOnce(ctx context.Context) (*report.Digest, error) {
	start := time.Now()
	cycleID := uuid.NewString()
	m := a.deps.Metrics

	fetched, err := a.deps.Fetcher.FetchAll(ctx, a.catalog.Feeds)
	if err != nil {
		m.SetError(err.Error())
		return nil, fmt.Errorf("fetch feeds: %w", err)
	}
	items := fetched.Items
	if a.deps.Scraper != nil {
		items = a.deps.Scraper.Enrich(ctx, items)
	}

	links := make(report.Links, len(items))
	for _, it := range items {
		key := it.Article().Key()
		if _, ok := links[key]; !ok && it.Link != "" {
			links[key] = it.Link
		}
	}

	all := rss.Articles(items)
	batch := article.Dedupe(all)
	duplicates := len(all) - len(batch)
	if limit := a.cfg.MaxBatchSize; limit > 0 && len(batch) > limit {
		logger.Warn("Batch capped", "cycle", cycleID, "articles", len(batch), "max", limit)
		batch = batch[:limit]
	}

	digest, err := a.Process(ctx, cycleID, batch, links)
	if err != nil {
		m.SetError(err.Error())
		return nil, err
	}

	m.RecordCycle(metrics.CycleStats{
		CycleID:    cycleID,
		Fetched:    len(all),
		Duplicates: duplicates,
		Clustered:  len(batch),
		Clusters:   len(digest.Stories),
		Noise:      len(digest.Noise),
		FeedErrors: len(fetched.Failed),
	})
	m.RecordProcessingTime(time.Since(start))
	m.SetLastRun()

	logger.Info("Cycle complete",
		"cycle", cycleID,
		"articles", len(batch),
		"duplicates", duplicates,
		"clusters", len(digest.Stories),
		"noise", len(digest.Noise),
		"took", time.Since(start).Round(time.Millisecond))
	return digest, nil
}

// Process runs the engine over an already deduplicated batch, adds
// headlines, prints the digest and sends it.
func (a *App) Process(ctx context.Context, cycleID string, batch []article.Article, links report.Links) (*report.Digest, error) {
	var digest report.Digest
	switch a.cfg.Mode {
	case "pairwise":
		matches, err := a.engine.Pairwise(batch)
		if err != nil {
			return nil, fmt.Errorf("pairwise comparison: %w", err)
		}
		digest = report.FromMatches(cycleID, len(batch), matches, links)
	default:
		res, err := a.engine.Cluster(batch)
		if err != nil {
			return nil, fmt.Errorf("cluster batch: %w", err)
		}
		digest = report.FromResult(cycleID, len(batch), res, links)
	}

	a.addHeadlines(ctx, &digest)

	if a.deps.Out != nil {
		if a.deps.JSON {
			if err := report.WriteJSON(a.deps.Out, digest); err != nil {
				return nil, err
			}
		} else {
			report.WriteConsole(a.deps.Out, digest, 100)
		}
	}

	if a.deps.Sender != nil && len(digest.Stories) > 0 {
		if err := a.deps.Sender.SendMessage(ctx, report.TelegramHTML(digest, a.cfg.MaxStories)); err != nil {
			logger.Error("Digest delivery failed", "cycle", cycleID, "error", err)
		} else {
			a.deps.Metrics.IncrementTelegramMessages()
		}
	}
	return &digest, nil
}

// addHeadlines asks the headliner for the largest stories first, within the
// request budget. Failures leave the keyword name in place.
func (a *App) addHeadlines(ctx context.Context, d *report.Digest) {
	if a.deps.Headliner == nil {
		return
	}
	for i := range d.Stories {
		if a.cfg.MaxStories > 0 && i >= a.cfg.MaxStories {
			return
		}
		if a.deps.Budget != nil && !a.deps.Budget.Allow() {
			return
		}
		titles := make([]string, len(d.Stories[i].Articles))
		for k, e := range d.Stories[i].Articles {
			titles[k] = e.Title
		}
		headline, err := a.deps.Headliner.Headline(ctx, titles)
		a.deps.Metrics.IncrementHeadlines(err == nil)
		if err != nil {
			logger.Warn("Headline generation failed", "cycle", d.CycleID, "story", d.Stories[i].Name, "error", err)
			continue
		}
		d.Stories[i].Headline = headline
	}
}

// Package rss fetches the catalog feeds and turns their items into articles.
package rss

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/deusflow/dedupnews/internal/article"
	"github.com/deusflow/dedupnews/internal/config"
	"github.com/deusflow/dedupnews/internal/logger"
	"github.com/deusflow/dedupnews/internal/retry"
)

// Item is one feed entry reduced to the fields the engine needs. Summary and
// Content are kept raw, HTML included.
type Item struct {
	Source  string
	Title   string
	Summary string
	Content string
	Link    string
}

// Article converts the item into an immutable Article.
func (it Item) Article() article.Article {
	return article.New(it.Source, it.Title, it.Summary, it.Content)
}

// Fetcher downloads feeds with a per-request timeout and retries.
type Fetcher struct {
	Client  *http.Client
	Timeout time.Duration
	Retry   retry.RetryConfig
}

// Result is the outcome of one fetch round.
type Result struct {
	Items  []Item
	Failed []string // names of feeds that could not be fetched
}

// FetchAll downloads every feed in order. A failing feed is logged and
// skipped; the round only fails when ctx is done.
func (f *Fetcher) FetchAll(ctx context.Context, feeds []config.Feed) (*Result, error) {
	res := &Result{}
	for _, feed := range feeds {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		items, err := f.Fetch(ctx, feed)
		if err != nil {
			logger.Warn("Feed fetch failed", "source", feed.Name, "error", err)
			res.Failed = append(res.Failed, feed.Name)
			continue
		}
		res.Items = append(res.Items, items...)
		logger.Debug("Feed loaded", "source", feed.Name, "items", len(items))
	}

	logger.Info("Processed RSS feeds",
		"ok", len(feeds)-len(res.Failed),
		"total", len(feeds),
		"items", len(res.Items))
	return res, nil
}

// Fetch downloads and parses a single feed.
func (f *Fetcher) Fetch(ctx context.Context, feed config.Feed) ([]Item, error) {
	timeout := feed.Timeout
	if timeout <= 0 {
		timeout = f.Timeout
	}

	parser := gofeed.NewParser()
	if f.Client != nil {
		parser.Client = f.Client
	}

	var parsed *gofeed.Feed
	err := retry.WithRetry(ctx, f.Retry, func() error {
		reqCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			reqCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		p, err := parser.ParseURLWithContext(feed.URL, reqCtx)
		if err != nil {
			var httpErr gofeed.HTTPError
			if asHTTPError(err, &httpErr) && httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 {
				return &retry.Permanent{Err: err}
			}
			return err
		}
		parsed = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", feed.Name, err)
	}

	items := make([]Item, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		if item, ok := toItem(feed, it); ok {
			items = append(items, item)
		}
	}
	return items, nil
}

func asHTTPError(err error, target *gofeed.HTTPError) bool {
	if e, ok := err.(gofeed.HTTPError); ok {
		*target = e
		return true
	}
	return false
}

// toItem keeps only the fields the feed is configured to provide. Items
// without a title are dropped.
func toItem(feed config.Feed, it *gofeed.Item) (Item, bool) {
	title := strings.TrimSpace(it.Title)
	if title == "" {
		return Item{}, false
	}
	item := Item{Source: feed.Name, Title: title, Link: it.Link}
	if feed.Summary {
		item.Summary = strings.TrimSpace(it.Description)
	}
	if feed.Content {
		item.Content = strings.TrimSpace(it.Content)
	}
	return item, true
}

// Articles converts items into articles, keeping order.
func Articles(items []Item) []article.Article {
	out := make([]article.Article, len(items))
	for i, it := range items {
		out[i] = it.Article()
	}
	return out
}

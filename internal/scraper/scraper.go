// Package scraper fills in article bodies for feed items that carry only a
// title or a short summary.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/time/rate"

	"github.com/deusflow/dedupnews/internal/logger"
	"github.com/deusflow/dedupnews/internal/rss"
)

const (
	maxPageBytes = 2 << 20
	// minReadableChars is the shortest readability result accepted before
	// falling back to paragraph selectors.
	minReadableChars = 200
)

type Config struct {
	Timeout     time.Duration
	RateLimit   float64 // requests per second
	MaxArticles int
}

// Scraper downloads article pages, rate limited across all hosts.
type Scraper struct {
	client      *http.Client
	limiter     *rate.Limiter
	maxArticles int
}

func New(cfg Config) *Scraper {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 2
	}
	return &Scraper{
		client:      &http.Client{Timeout: cfg.Timeout},
		limiter:     rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		maxArticles: cfg.MaxArticles,
	}
}

// Enrich fetches the page of every item without content, up to the
// configured maximum, and stores the extracted text as its content. Failed
// pages are logged and the item is kept as it was.
func (s *Scraper) Enrich(ctx context.Context, items []rss.Item) []rss.Item {
	out := make([]rss.Item, len(items))
	copy(out, items)

	fetched := 0
	for i := range out {
		if s.maxArticles > 0 && fetched >= s.maxArticles {
			break
		}
		if out[i].Content != "" || out[i].Link == "" {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		fetched++

		content, err := s.Extract(ctx, out[i].Link)
		if err != nil {
			logger.Debug("Article extraction failed", "source", out[i].Source, "url", out[i].Link, "error", err)
			continue
		}
		out[i].Content = content
	}
	return out
}

// Extract returns the readable text of the page at pageURL.
func (s *Scraper) Extract(ctx context.Context, pageURL string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("invalid article url %q", pageURL)
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "dedupnews/1.0 (+https://github.com/deusflow/dedupnews)")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error loading page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("read page: %w", err)
	}

	text := ""
	if art, err := readability.FromReader(bytes.NewReader(body), base); err == nil {
		text = cleanContent(art.TextContent)
	}
	if len(text) < minReadableChars {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("error parsing HTML: %w", err)
		}
		if fallback := cleanContent(extractGenericContent(doc)); len(fallback) > len(text) {
			text = fallback
		}
	}
	if text == "" {
		return "", fmt.Errorf("can't get content")
	}
	return text, nil
}

// extractGenericContent collects paragraphs from the most common article
// containers, stopping at the first selector that yields three.
func extractGenericContent(doc *goquery.Document) string {
	var paragraphs []string

	selectors := []string{
		"article p",
		".article-body p",
		".content p",
		".post-content p",
		".entry-content p",
		"main p",
		"#content p",
		"p",
	}

	for _, selector := range selectors {
		doc.Find(selector).Each(func(i int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if len(text) > 20 {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) >= 3 {
			break
		}
	}

	return strings.Join(paragraphs, "\n\n")
}

var junkIndicators = []string{
	"cookie", "advertisement", "sign up for", "subscribe to",
	"read more:", "follow us on", "all rights reserved",
}

// cleanContent drops short and junk lines and collapses whitespace inside
// the remaining ones.
func cleanContent(content string) string {
	var kept []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if len(line) < 8 {
			continue
		}
		lower := strings.ToLower(line)
		junk := false
		for _, indicator := range junkIndicators {
			if strings.Contains(lower, indicator) {
				junk = true
				break
			}
		}
		if !junk {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/dedupnews/internal/article"
	"github.com/deusflow/dedupnews/internal/config"
	"github.com/deusflow/dedupnews/internal/engine"
	"github.com/deusflow/dedupnews/internal/entity"
	"github.com/deusflow/dedupnews/internal/metrics"
	"github.com/deusflow/dedupnews/internal/nlp"
	"github.com/deusflow/dedupnews/internal/ratelimit"
	"github.com/deusflow/dedupnews/internal/report"
	"github.com/deusflow/dedupnews/internal/rss"
)

type noEntities struct{}

func (noEntities) Recognize(string) ([]entity.Span, error) { return nil, nil }

type fakeFetcher struct {
	res *rss.Result
	err error
}

func (f fakeFetcher) FetchAll(context.Context, []config.Feed) (*rss.Result, error) {
	return f.res, f.err
}

type fakeHeadliner struct{ calls int }

func (f *fakeHeadliner) Headline(_ context.Context, titles []string) (string, error) {
	f.calls++
	return "Headline for " + titles[0], nil
}

type fakeSender struct{ sent []string }

func (f *fakeSender) SendMessage(_ context.Context, text string) error {
	f.sent = append(f.sent, text)
	return nil
}

var items = []rss.Item{
	{Source: "cnbc", Title: "Markets rally on rate cut news", Link: "https://cnbc.example/1"},
	{Source: "cnn", Title: "Markets rally after rate cut announcement", Link: "https://cnn.example/1"},
	{Source: "cnn", Title: "Markets rally after rate cut announcement", Summary: "repeat"},
	{Source: "skynews", Title: "Championship final postponed due to weather"},
}

func testConfig() *config.Config {
	return &config.Config{
		Strategy: "tfidf", Features: "text", Mode: "cluster",
		ClusterEps: 0.8, ClusterMinSamples: 2, SimilarityThreshold: 0.4, NameTopN: 3,
		MaxStories: 5, PollInterval: time.Hour,
	}
}

func newTestApp(t *testing.T, cfg *config.Config, deps Deps) *App {
	t.Helper()
	catalog := &config.Catalog{Feeds: []config.Feed{{Name: "cnn", URL: "http://example.invalid"}}}
	eng, err := engine.New(&nlp.Models{Recognizer: noEntities{}}, EngineOptions(cfg, catalog))
	require.NoError(t, err)
	a, err := New(cfg, catalog, eng, deps)
	require.NoError(t, err)
	return a
}

func TestRunOnce_ClustersDeduplicatedBatch(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer
	m := metrics.New()
	head := &fakeHeadliner{}
	send := &fakeSender{}

	a := newTestApp(t, testConfig(), Deps{
		Fetcher:   fakeFetcher{res: &rss.Result{Items: items, Failed: []string{"rt"}}},
		Headliner: head,
		Budget:    ratelimit.NewBudget("gemini", 10),
		Sender:    send,
		Metrics:   m,
		Out:       &out,
	})

	d, err := a.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, d.Articles)
	require.Len(t, d.Stories, 1)
	assert.Equal(t, "markets, rally, rate", d.Stories[0].Name)
	assert.Equal(t, "Headline for Markets rally on rate cut news", d.Stories[0].Headline)
	assert.Equal(t, "https://cnbc.example/1", d.Stories[0].Articles[0].Link)
	require.Len(t, d.Noise, 1)
	assert.NotEmpty(t, d.CycleID)

	assert.Equal(t, 1, head.calls)
	require.Len(t, send.sent, 1)
	assert.Contains(t, send.sent[0], "Headline for Markets rally")
	assert.Contains(t, out.String(), "#1 [markets, rally, rate]")

	stats := m.GetStats()
	assert.Equal(t, int64(4), stats["articles_fetched"])
	assert.Equal(t, int64(1), stats["duplicates_filtered"])
	assert.Equal(t, int64(1), stats["feed_errors"])
	assert.Equal(t, int64(1), stats["telegram_messages_sent"])
	assert.True(t, m.Healthy())
}

func TestRunOnce_PairwiseJSON(t *testing.T) {
	cfg := testConfig()
	cfg.Mode = "pairwise"
	var out bytes.Buffer

	a := newTestApp(t, cfg, Deps{
		Fetcher: fakeFetcher{res: &rss.Result{Items: items}},
		Metrics: metrics.New(),
		Out:     &out,
		JSON:    true,
	})

	_, err := a.RunOnce(context.Background())
	require.NoError(t, err)

	var d report.Digest
	require.NoError(t, json.Unmarshal(out.Bytes(), &d))
	assert.Equal(t, "pairwise", d.Mode)
	require.Len(t, d.Stories, 1)
	assert.Len(t, d.Stories[0].Articles, 2)
}

func TestRunOnce_BatchCap(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBatchSize = 1

	a := newTestApp(t, cfg, Deps{Fetcher: fakeFetcher{res: &rss.Result{Items: items}}, Metrics: metrics.New()})

	d, err := a.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, d.Articles)
	assert.Empty(t, d.Stories)
}

func TestRunOnce_HeadlineBudget(t *testing.T) {
	head := &fakeHeadliner{}
	a := newTestApp(t, testConfig(), Deps{
		Fetcher:   fakeFetcher{res: &rss.Result{Items: items}},
		Headliner: head,
		Budget:    ratelimit.NewBudget("gemini", 1),
		Metrics:   metrics.New(),
	})

	for i := 0; i < 2; i++ {
		_, err := a.RunOnce(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 1, head.calls)
}

func TestRunOnce_FetchError(t *testing.T) {
	m := metrics.New()
	a := newTestApp(t, testConfig(), Deps{Fetcher: fakeFetcher{err: errors.New("offline")}, Metrics: m})

	_, err := a.RunOnce(context.Background())
	assert.Error(t, err)
	assert.False(t, m.Healthy())
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := newTestApp(t, testConfig(), Deps{Fetcher: fakeFetcher{res: &rss.Result{}}, Metrics: metrics.New()})
	assert.NoError(t, a.Run(ctx))
}

func TestNew_RequiresFetcher(t *testing.T) {
	_, err := New(testConfig(), &config.Catalog{}, nil, Deps{})
	assert.Error(t, err)
}

func TestEngineOptions(t *testing.T) {
	catalog := &config.Catalog{
		Boilerplate: []string{"Read Full Article at RT.com"},
		Locations:   map[string][]string{"united states": {"us"}},
	}
	opts := EngineOptions(testConfig(), catalog)

	assert.Equal(t, "tfidf", opts.Strategy)
	assert.Equal(t, engine.TextFeatures, opts.Features)
	assert.Equal(t, 0.8, opts.Cluster.Eps)
	assert.Equal(t, 3, opts.TopN)
	assert.Equal(t, catalog.Boilerplate, opts.Boilerplate)
	assert.Equal(t, catalog.Locations, opts.Locations)
}

func TestProcess_DirectBatch(t *testing.T) {
	a := newTestApp(t, testConfig(), Deps{Fetcher: fakeFetcher{}, Metrics: metrics.New()})

	batch := article.Dedupe(rss.Articles(items))
	d, err := a.Process(context.Background(), "offline", batch, nil)
	require.NoError(t, err)
	assert.Equal(t, "offline", d.CycleID)
	assert.Len(t, d.Stories, 1)
}

// Package engine wires the normalizer, entity extractor, similarity engine,
// DBSCAN and group namer into the batch deduplication core. It performs no
// I/O: every call is a function of the batch it is given and the models it
// was built with.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/deusflow/dedupnews/internal/article"
	"github.com/deusflow/dedupnews/internal/cluster"
	"github.com/deusflow/dedupnews/internal/entity"
	"github.com/deusflow/dedupnews/internal/logger"
	"github.com/deusflow/dedupnews/internal/namer"
	"github.com/deusflow/dedupnews/internal/nlp"
	"github.com/deusflow/dedupnews/internal/normalize"
	"github.com/deusflow/dedupnews/internal/similarity"
)

// Features selects what the similarity engine vectorizes.
type Features string

const (
	TextFeatures   Features = "text"
	EntityFeatures Features = "entities"
)

const DefaultThreshold = 0.4

var (
	// ErrUnsupportedFeatures is returned for an unknown feature representation.
	ErrUnsupportedFeatures = errors.New("unsupported feature representation")
	ErrInvalidThreshold    = errors.New("pairwise threshold must be in (0, 1]")
)

// Options configures an Engine. Zero values fall back to the defaults, so a
// Threshold of 0 means DefaultThreshold.
type Options struct {
	Strategy    string
	Features    Features
	Cluster     cluster.Params
	Threshold   float64
	TopN        int
	Boilerplate []string

	// Locations maps a canonical location name to its variants, e.g.
	// "united states": {"us", "usa"}.
	Locations map[string][]string
}

// DefaultOptions returns tfidf over normalized text, eps 0.8, min samples 2,
// threshold 0.4 and five keywords per group name.
func DefaultOptions() Options {
	return Options{
		Strategy:  string(similarity.TFIDF),
		Features:  TextFeatures,
		Cluster:   cluster.DefaultParams(),
		Threshold: DefaultThreshold,
		TopN:      namer.DefaultTopN,
	}
}

// Engine is safe for concurrent use: it holds only read-only models and
// configuration.
type Engine struct {
	opts       Options
	normalizer *normalize.Normalizer
	extractor  *entity.Extractor
	canon      *entity.Canonicalizer
	sim        *similarity.Engine
}

// New validates opts and builds an Engine. Configuration errors are reported
// here, before any batch is processed.
func New(models *nlp.Models, opts Options) (*Engine, error) {
	if models == nil || models.Recognizer == nil {
		return nil, errors.New("engine: models are required")
	}
	if opts.Strategy == "" {
		opts.Strategy = string(similarity.TFIDF)
	}
	if opts.Features == "" {
		opts.Features = TextFeatures
	}
	if opts.Cluster == (cluster.Params{}) {
		opts.Cluster = cluster.DefaultParams()
	}
	if opts.Threshold == 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.TopN == 0 {
		opts.TopN = namer.DefaultTopN
	}

	sim, err := similarity.New(opts.Strategy)
	if err != nil {
		return nil, err
	}
	if opts.Features != TextFeatures && opts.Features != EntityFeatures {
		return nil, fmt.Errorf("%w: %q (want %q or %q)", ErrUnsupportedFeatures, opts.Features, TextFeatures, EntityFeatures)
	}
	if opts.Threshold < 0 || opts.Threshold > 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidThreshold, opts.Threshold)
	}
	if err := opts.Cluster.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		opts: opts,
		normalizer: normalize.New(normalize.Config{
			Boilerplate: opts.Boilerplate,
			Lemmatizer:  models.Lemmatizer,
		}),
		extractor: entity.NewExtractor(models.Recognizer),
		sim:       sim,
	}
	if len(opts.Locations) > 0 {
		e.canon = entity.NewCanonicalizer(models.Recognizer, opts.Locations)
	}
	return e, nil
}

// Options returns the effective configuration.
func (e *Engine) Options() Options { return e.opts }

// Group is one story: the articles that describe it and a keyword label.
type Group struct {
	Label    int
	Name     string
	Articles []article.Article
}

// Result is the outcome of Cluster. Groups are ordered largest first; Noise
// holds the articles that matched nothing, in batch order.
type Result struct {
	Groups []Group
	Noise  []article.Article
}

// Match is the outcome of pairwise mode: a representative article and the
// articles scoring at or above the threshold against it.
type Match struct {
	Representative article.Article
	Similar        []article.Article
	Scores         []float64
}

// Cluster groups the batch with DBSCAN. The batch must already be
// deduplicated by article key.
func (e *Engine) Cluster(articles []article.Article) (*Result, error) {
	res := &Result{Groups: []Group{}, Noise: []article.Article{}}
	if len(articles) == 0 {
		return res, nil
	}
	start := time.Now()

	m, normalized, err := e.matrix(articles)
	if err != nil {
		return nil, err
	}
	labels, err := cluster.DBSCAN(cluster.Distances(m), e.opts.Cluster)
	if err != nil {
		return nil, err
	}

	groups := cluster.Groups(labels)
	for _, label := range cluster.SortedLabels(groups) {
		members := groups[label]
		g := Group{Label: label, Articles: make([]article.Article, len(members))}
		texts := make([]string, len(members))
		for k, idx := range members {
			g.Articles[k] = articles[idx]
			texts[k] = normalized[idx]
		}
		g.Name = namer.Name(texts, e.opts.TopN)
		res.Groups = append(res.Groups, g)
	}
	for _, idx := range groups[cluster.Noise] {
		res.Noise = append(res.Noise, articles[idx])
	}

	logger.Debug("Batch clustered",
		"articles", len(articles),
		"clusters", len(res.Groups),
		"noise", len(res.Noise),
		"took", time.Since(start))
	return res, nil
}

// Pairwise compares every article with every other one. Articles are taken
// in batch order; each one not yet claimed by an earlier match becomes a
// representative and claims the unclaimed articles scoring at least the
// threshold against it. Articles matching nothing are left out.
func (e *Engine) Pairwise(articles []article.Article) ([]Match, error) {
	matches := []Match{}
	if len(articles) < 2 {
		return matches, nil
	}

	m, _, err := e.matrix(articles)
	if err != nil {
		return nil, err
	}

	claimed := make([]bool, len(articles))
	for i := range articles {
		if claimed[i] {
			continue
		}
		match := Match{Representative: articles[i]}
		for j := range articles {
			if j == i || claimed[j] {
				continue
			}
			if s := m.At(i, j); s >= e.opts.Threshold {
				match.Similar = append(match.Similar, articles[j])
				match.Scores = append(match.Scores, s)
				claimed[j] = true
			}
		}
		if len(match.Similar) > 0 {
			claimed[i] = true
			matches = append(matches, match)
		}
	}
	return matches, nil
}

// Normalize exposes the engine's normalizer for a single article.
func (e *Engine) Normalize(a article.Article) string {
	return e.normalizer.Normalize(a.Text())
}

// Entities extracts the entity bundle of one article from its raw text.
func (e *Engine) Entities(a article.Article) (entity.Bundle, error) {
	text, err := e.rawText(a)
	if err != nil {
		return nil, err
	}
	return e.extractor.Extract(text)
}

// matrix returns the similarity matrix of the batch under the configured
// features, plus the normalized text of every article for naming.
func (e *Engine) matrix(articles []article.Article) (*similarity.Matrix, []string, error) {
	raw := make([]string, len(articles))
	for i, a := range articles {
		text, err := e.rawText(a)
		if err != nil {
			return nil, nil, fmt.Errorf("article %q: %w", a.Title(), err)
		}
		raw[i] = text
	}
	normalized := e.normalizer.NormalizeAll(raw)

	if e.opts.Features == EntityFeatures {
		// NER runs on raw text: casing and punctuation help the model.
		bundles, err := e.extractor.ExtractAll(raw)
		if err != nil {
			return nil, nil, err
		}
		return e.sim.EntityMatrix(bundles), normalized, nil
	}
	return e.sim.Matrix(normalized), normalized, nil
}

func (e *Engine) rawText(a article.Article) (string, error) {
	text := a.Text()
	if e.canon == nil {
		return text, nil
	}
	return e.canon.Apply(text)
}

// Package namer derives a short keyword label for a cluster of articles.
package namer

import (
	"sort"
	"strings"

	"github.com/deusflow/dedupnews/internal/similarity"
)

const (
	DefaultTopN = 5

	// maxTerms caps the vocabulary at the most frequent terms.
	maxTerms = 100
)

// Name joins the member texts into one document and returns the topN terms
// with the highest TF-IDF weight, highest first, separated by ", ".
//
// The corpus is that single document, so every term shares the same IDF and
// the ranking is by term frequency. Equal scores keep the order in which the
// terms first appear.
func Name(memberTexts []string, topN int) string {
	if topN <= 0 {
		return ""
	}
	doc := strings.Join(memberTexts, " ")

	vec := similarity.TFIDFVectorizer{MaxFeatures: maxTerms}
	x, vocab := vec.FitTransform([]string{doc})
	if x == nil {
		return ""
	}

	firstSeen := make(map[string]int, len(vocab))
	for i, tok := range similarity.Tokenize(doc) {
		if _, ok := firstSeen[tok]; !ok {
			firstSeen[tok] = i
		}
	}

	type term struct {
		text  string
		score float64
	}
	terms := make([]term, len(vocab))
	for j, t := range vocab {
		terms[j] = term{text: t, score: x.At(0, j)}
	}
	sort.SliceStable(terms, func(i, j int) bool {
		if terms[i].score != terms[j].score {
			return terms[i].score > terms[j].score
		}
		return firstSeen[terms[i].text] < firstSeen[terms[j].text]
	})

	if len(terms) > topN {
		terms = terms[:topN]
	}
	words := make([]string, len(terms))
	for i, t := range terms {
		words[i] = t.text
	}
	return strings.Join(words, ", ")
}

// Package similarity turns a batch of documents into term vectors and a
// pairwise cosine similarity matrix.
package similarity

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Tokenize lowercases doc and returns its runs of two or more word
// characters, in order.
func Tokenize(doc string) []string {
	return tokenPattern.FindAllString(strings.ToLower(doc), -1)
}

// Vectorizer fits a vocabulary on docs and returns one row per document plus
// the vocabulary in column order. The matrix is nil when docs is empty or no
// token survives filtering.
type Vectorizer interface {
	FitTransform(docs []string) (*mat.Dense, []string)
}

// CountVectorizer produces raw term counts.
type CountVectorizer struct {
	StopWords   map[string]struct{}
	MaxFeatures int
}

// FitTransform implements Vectorizer.
func (v CountVectorizer) FitTransform(docs []string) (*mat.Dense, []string) {
	return countMatrix(docs, v.StopWords, v.MaxFeatures)
}

// TFIDFVectorizer weights counts by smoothed inverse document frequency,
// idf = ln((1+n)/(1+df)) + 1, and L2-normalizes every row.
type TFIDFVectorizer struct {
	StopWords   map[string]struct{}
	MaxFeatures int
}

// FitTransform implements Vectorizer.
func (v TFIDFVectorizer) FitTransform(docs []string) (*mat.Dense, []string) {
	x, vocab := countMatrix(docs, v.StopWords, v.MaxFeatures)
	if x == nil {
		return nil, vocab
	}

	n, cols := x.Dims()
	for j := 0; j < cols; j++ {
		df := 0
		for i := 0; i < n; i++ {
			if x.At(i, j) > 0 {
				df++
			}
		}
		idf := math.Log(float64(1+n)/float64(1+df)) + 1
		for i := 0; i < n; i++ {
			if c := x.At(i, j); c > 0 {
				x.Set(i, j, c*idf)
			}
		}
	}
	normalizeRows(x)
	return x, vocab
}

func countMatrix(docs []string, stop map[string]struct{}, maxFeatures int) (*mat.Dense, []string) {
	tokenized := make([][]string, len(docs))
	freq := make(map[string]int)
	for i, d := range docs {
		for _, t := range Tokenize(d) {
			if _, skip := stop[t]; skip {
				continue
			}
			tokenized[i] = append(tokenized[i], t)
			freq[t]++
		}
	}

	vocab := make([]string, 0, len(freq))
	for t := range freq {
		vocab = append(vocab, t)
	}
	sort.Strings(vocab)
	if maxFeatures > 0 && len(vocab) > maxFeatures {
		sort.SliceStable(vocab, func(i, j int) bool { return freq[vocab[i]] > freq[vocab[j]] })
		vocab = vocab[:maxFeatures]
		sort.Strings(vocab)
	}
	if len(docs) == 0 || len(vocab) == 0 {
		return nil, vocab
	}

	index := make(map[string]int, len(vocab))
	for j, t := range vocab {
		index[t] = j
	}
	x := mat.NewDense(len(docs), len(vocab), nil)
	for i, toks := range tokenized {
		for _, t := range toks {
			if j, ok := index[t]; ok {
				x.Set(i, j, x.At(i, j)+1)
			}
		}
	}
	return x, vocab
}

func normalizeRows(x *mat.Dense) {
	n, _ := x.Dims()
	for i := 0; i < n; i++ {
		// The row view aliases x, so scale it with itself as receiver.
		row := x.RowView(i).(*mat.VecDense)
		norm := mat.Norm(row, 2)
		if norm == 0 {
			continue
		}
		row.ScaleVec(1/norm, row)
	}
}

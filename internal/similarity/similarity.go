package similarity

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/deusflow/dedupnews/internal/entity"
)

// ErrUnsupportedStrategy is returned for an unknown vectorization strategy.
var ErrUnsupportedStrategy = errors.New("unsupported vectorization strategy")

// Strategy selects how documents become vectors.
type Strategy string

const (
	Count Strategy = "count"
	TFIDF Strategy = "tfidf"
)

// ParseStrategy validates name.
func ParseStrategy(name string) (Strategy, error) {
	switch s := Strategy(name); s {
	case Count, TFIDF:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q (want %q or %q)", ErrUnsupportedStrategy, name, Count, TFIDF)
	}
}

// Engine computes similarity matrices for one fixed strategy. It holds no
// per-batch state: every call fits a fresh vocabulary.
type Engine struct {
	strategy Strategy
	vec      Vectorizer
}

// New returns an Engine for the named strategy. An unknown name fails before
// any vectorizer is built.
func New(strategy string) (*Engine, error) {
	s, err := ParseStrategy(strategy)
	if err != nil {
		return nil, err
	}
	e := &Engine{strategy: s}
	switch s {
	case Count:
		e.vec = CountVectorizer{}
	case TFIDF:
		e.vec = TFIDFVectorizer{StopWords: EnglishStopWords}
	}
	return e, nil
}

// Strategy returns the configured strategy.
func (e *Engine) Strategy() Strategy { return e.strategy }

// Matrix returns the cosine similarity of every pair of docs.
func (e *Engine) Matrix(docs []string) *Matrix {
	x, _ := e.vec.FitTransform(docs)
	return Cosine(x, len(docs))
}

// EntityMatrix scores articles by their flattened entity bundles instead of
// their text.
func (e *Engine) EntityMatrix(bundles []entity.Bundle) *Matrix {
	docs := make([]string, len(bundles))
	for i, b := range bundles {
		docs[i] = b.Flatten()
	}
	return e.Matrix(docs)
}

// Matrix is a symmetric similarity matrix with values in [0,1] and a
// diagonal of exactly 1.
type Matrix struct {
	sym *mat.SymDense
}

// Cosine builds the similarity matrix of the n rows of x. A nil x means
// every document vector is zero.
func Cosine(x *mat.Dense, n int) *Matrix {
	if n == 0 {
		return &Matrix{}
	}

	var sym *mat.SymDense
	if x == nil {
		sym = mat.NewSymDense(n, nil)
	} else {
		unit := mat.DenseCopyOf(x)
		normalizeRows(unit)
		sym = &mat.SymDense{}
		sym.SymOuterK(1, unit)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sym.SetSym(i, j, clamp(sym.At(i, j)))
		}
		sym.SetSym(i, i, 1)
	}
	return &Matrix{sym: sym}
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Len returns the number of documents.
func (m *Matrix) Len() int {
	if m == nil || m.sym == nil {
		return 0
	}
	return m.sym.SymmetricDim()
}

// At returns the similarity of documents i and j.
func (m *Matrix) At(i, j int) float64 {
	return m.sym.At(i, j)
}

// MostSimilar returns the document closest to i, ignoring i itself. It
// returns -1 when the batch has a single document.
func (m *Matrix) MostSimilar(i int) (int, float64) {
	best, score := -1, -1.0
	for j := 0; j < m.Len(); j++ {
		if j == i {
			continue
		}
		if s := m.At(i, j); s > score {
			best, score = j, s
		}
	}
	if best < 0 {
		return -1, 0
	}
	return best, score
}

// Rows copies the matrix into nested slices.
func (m *Matrix) Rows() [][]float64 {
	n := m.Len()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
		for j := range rows[i] {
			rows[i][j] = m.At(i, j)
		}
	}
	return rows
}

package similarity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/deusflow/dedupnews/internal/entity"
)

var batch = []string{
	"markets rally rate cut news",
	"markets rally rate cut announcement",
	"championship final postponed weather",
}

func TestNew_UnsupportedStrategy(t *testing.T) {
	e, err := New("jaccard")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedStrategy))
	assert.Nil(t, e)
}

func TestMatrix_SymmetricWithUnitDiagonal(t *testing.T) {
	for _, strategy := range []string{"count", "tfidf"} {
		t.Run(strategy, func(t *testing.T) {
			e, err := New(strategy)
			require.NoError(t, err)

			m := e.Matrix(batch)
			require.Equal(t, 3, m.Len())
			for i := 0; i < m.Len(); i++ {
				assert.Equal(t, 1.0, m.At(i, i))
				for j := 0; j < m.Len(); j++ {
					assert.Equal(t, m.At(i, j), m.At(j, i))
					assert.GreaterOrEqual(t, m.At(i, j), 0.0)
					assert.LessOrEqual(t, m.At(i, j), 1.0)
				}
			}

			assert.Greater(t, m.At(0, 1), 0.5)
			assert.Equal(t, 0.0, m.At(0, 2))
		})
	}
}

func TestMatrix_CountValues(t *testing.T) {
	e, err := New("count")
	require.NoError(t, err)

	m := e.Matrix([]string{"oil oil price", "oil price"})
	// (2*1 + 1*1) / (sqrt(5) * sqrt(2))
	assert.InDelta(t, 0.9487, m.At(0, 1), 1e-4)
}

func TestMatrix_TFIDFDropsEnglishStopWords(t *testing.T) {
	e, err := New("tfidf")
	require.NoError(t, err)

	m := e.Matrix([]string{"the storm", "the election"})
	assert.Equal(t, 0.0, m.At(0, 1))
}

func TestMatrix_SmallBatches(t *testing.T) {
	e, err := New("tfidf")
	require.NoError(t, err)

	empty := e.Matrix(nil)
	assert.Equal(t, 0, empty.Len())
	assert.Empty(t, empty.Rows())

	single := e.Matrix([]string{"storm"})
	assert.Equal(t, 1, single.Len())
	best, score := single.MostSimilar(0)
	assert.Equal(t, -1, best)
	assert.Equal(t, 0.0, score)
}

func TestMatrix_EmptyDocuments(t *testing.T) {
	e, err := New("count")
	require.NoError(t, err)

	m := e.Matrix([]string{"", "", "storm"})
	assert.Equal(t, 1.0, m.At(0, 0))
	assert.Equal(t, 0.0, m.At(0, 1))
	assert.Equal(t, 0.0, m.At(1, 2))
}

func TestMostSimilar_ExcludesSelf(t *testing.T) {
	e, err := New("tfidf")
	require.NoError(t, err)

	m := e.Matrix(batch)
	best, score := m.MostSimilar(0)
	assert.Equal(t, 1, best)
	assert.Less(t, score, 1.0)
}

func TestEntityMatrix_UsesFlattenedBundles(t *testing.T) {
	e, err := New("count")
	require.NoError(t, err)

	bundles := []entity.Bundle{
		{entity.Names: {"biden"}, entity.Locations: {"paris"}},
		{entity.Locations: {"paris"}, entity.Names: {"biden"}},
		{entity.Orgs: {"fifa"}},
	}
	m := e.EntityMatrix(bundles)

	assert.InDelta(t, 1.0, m.At(0, 1), 1e-9)
	assert.Equal(t, 0.0, m.At(0, 2))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"oil", "prices", "2024"}, Tokenize("Oil, prices a 2024!"))
}

func TestCountVectorizer_MaxFeatures(t *testing.T) {
	x, vocab := CountVectorizer{MaxFeatures: 2}.FitTransform([]string{"oil oil oil supply supply surge"})

	require.NotNil(t, x)
	assert.Equal(t, []string{"oil", "supply"}, vocab)
	assert.Equal(t, 3.0, x.At(0, 0))
}

func TestNormalizeRows_ScalesInPlace(t *testing.T) {
	x := mat.NewDense(2, 2, []float64{3, 4, 0, 0})

	require.NotPanics(t, func() { normalizeRows(x) })
	assert.InDelta(t, 0.6, x.At(0, 0), 1e-9)
	assert.InDelta(t, 0.8, x.At(0, 1), 1e-9)
	assert.Equal(t, 0.0, x.At(1, 0))
	assert.Equal(t, 0.0, x.At(1, 1))
}

func TestMatrix_SharedTermsPair(t *testing.T) {
	docs := []string{"oil prices surge", "oil supply surge"}
	cases := map[string]float64{
		"count": 2.0 / 3.0,
		// idf(oil, surge) = 1, idf(prices, supply) = ln(3/2)+1
		"tfidf": 0.503,
	}
	for strategy, want := range cases {
		t.Run(strategy, func(t *testing.T) {
			e, err := New(strategy)
			require.NoError(t, err)

			var m *Matrix
			require.NotPanics(t, func() { m = e.Matrix(docs) })
			assert.InDelta(t, want, m.At(0, 1), 1e-3)
			assert.InDelta(t, m.At(0, 1), m.At(1, 0), 1e-12)
		})
	}
}

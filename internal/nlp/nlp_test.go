package nlp

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/dedupnews/internal/entity"
)

func TestLoad_DefaultModels(t *testing.T) {
	m, err := Load(Options{})
	require.NoError(t, err)
	require.NotNil(t, m.Lemmatizer)
	require.NotNil(t, m.Recognizer)

	rec, ok := m.Recognizer.(*entity.ProseRecognizer)
	require.True(t, ok)
	assert.NotNil(t, rec.Model())
}

func TestLoad_Lemmatizer(t *testing.T) {
	m, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, "price", m.Lemmatizer.Lemma("prices"))
}

func TestLoad_RecognizerFindsNamedEntities(t *testing.T) {
	m, err := Load(Options{})
	require.NoError(t, err)

	text := "Barack Obama visited Paris on Tuesday."
	spans, err := m.Recognizer.Recognize(text)
	require.NoError(t, err)
	require.NotEmpty(t, spans)

	var labels []string
	for _, s := range spans {
		labels = append(labels, s.Label)
		if s.Start >= 0 {
			assert.Equal(t, s.Text, text[s.Start:s.End])
		}
	}
	assert.Condition(t, func() bool {
		for _, l := range labels {
			if l == "PERSON" || l == "GPE" {
				return true
			}
		}
		return false
	}, "labels %v", labels)
}

func TestLoad_MissingModelPath(t *testing.T) {
	_, err := Load(Options{NERModelPath: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}

// The bundled prose model only knows PERSON and GPE, so the org, event and
// product buckets stay empty unless NER_MODEL_PATH supplies another model.
func TestLoad_DefaultModelLabelSet(t *testing.T) {
	m, err := Load(Options{})
	require.NoError(t, err)

	text := "Microsoft and NATO officials met Angela Merkel in Berlin before the Olympics."
	spans, err := m.Recognizer.Recognize(text)
	require.NoError(t, err)
	for _, s := range spans {
		assert.Contains(t, []string{"PERSON", "GPE"}, s.Label, s.Text)
	}

	b, err := entity.NewExtractor(m.Recognizer).Extract(text)
	require.NoError(t, err)
	assert.Empty(t, b[entity.Orgs])
	assert.Empty(t, b[entity.Events])
	assert.Empty(t, b[entity.Products])
}

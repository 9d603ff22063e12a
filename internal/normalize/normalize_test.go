package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type mapLemmatizer map[string]string

func (m mapLemmatizer) Lemma(word string) string {
	if l, ok := m[word]; ok {
		return l
	}
	return word
}

func TestNormalize_EmptyInput(t *testing.T) {
	n := New(Config{})
	assert.Equal(t, "", n.Normalize(""))
}

func TestNormalize_OnlyStopwords(t *testing.T) {
	n := New(Config{})
	assert.Equal(t, "", n.Normalize("The and of it is IN a"))
	assert.Equal(t, "", n.Normalize("They won't do that"))
}

func TestNormalize_Pipeline(t *testing.T) {
	n := New(Config{
		Boilerplate: []string{"Read Full Article at RT.com"},
		Lemmatizer:  mapLemmatizer{"markets": "market", "cuts": "cut"},
	})

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase and stopwords", "Markets Rally on the Rate Cuts", "market rally rate cut"},
		{"punctuation deleted not spaced", "Oil-prices, surge!", "oilprices surge"},
		{"whitespace collapsed", "  oil\n\tprices   surge  ", "oil prices surge"},
		{"boilerplate removed", "Sanctions expanded Read Full Article at RT.com", "sanctions expanded"},
		{"markup stripped", "<p>Storm <b>hits</b> coast</p><script>var x=1</script>", "storm hits coast"},
		{"entities decoded", "Profits &amp; losses", "profits losses"},
		{"contraction expanded before punctuation", "Investors can't relax", "investors cannot relax"},
		{"curly apostrophe", "Investors can’t relax", "investors cannot relax"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	n := New(Config{Lemmatizer: mapLemmatizer{"markets": "market"}})

	inputs := []string{
		"Markets rally on rate cut news",
		"<div>Championship final postponed due to weather</div>",
		"Oil prices surge amid supply concerns!",
	}
	for _, in := range inputs {
		once := n.Normalize(in)
		assert.Equal(t, once, n.Normalize(once), in)
	}
}

func TestNormalizeAll_KeepsPositions(t *testing.T) {
	n := New(Config{})
	out := n.NormalizeAll([]string{"Storm hits", "", "the"})
	assert.Equal(t, []string{"storm hits", "", ""}, out)
}

func TestIsStopword(t *testing.T) {
	assert.True(t, IsStopword("the"))
	assert.True(t, IsStopword("don't"))
	assert.False(t, IsStopword("The"))
	assert.False(t, IsStopword("oil"))
}

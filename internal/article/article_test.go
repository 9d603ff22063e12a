package article

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArticle_IdentityIgnoresSummaryAndContent(t *testing.T) {
	a := New("cnn", "Markets rally", "short", "long body")
	b := New("cnn", "Markets rally", "different", "")

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Key(), b.Key())

	set := map[Key]Article{a.Key(): a}
	_, ok := set[b.Key()]
	assert.True(t, ok, "equal articles must hash identically")
}

func TestArticle_DifferentSourceIsDifferentArticle(t *testing.T) {
	a := New("cnn", "Markets rally", "", "")
	b := New("cnbc", "Markets rally", "", "")

	assert.False(t, a.Equal(b))
}

func TestArticle_Text(t *testing.T) {
	tests := []struct {
		name string
		a    Article
		want string
	}{
		{"title only", New("rt", "Title", "", ""), "Title"},
		{"all fields", New("rt", "Title", "Summary", "Content"), "Title Summary Content"},
		{"skips empty summary", New("rt", "Title", "", "Content"), "Title Content"},
		{"empty", Article{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Text())
		})
	}
}

func TestDedupe_KeepsFirstOccurrenceInOrder(t *testing.T) {
	in := []Article{
		New("cnn", "A", "first", ""),
		New("bbc", "B", "", ""),
		New("cnn", "A", "second", ""),
		New("cnn", "C", "", ""),
	}

	out := Dedupe(in)

	assert.Len(t, out, 3)
	assert.Equal(t, "first", out[0].Summary())
	assert.Equal(t, "B", out[1].Title())
	assert.Equal(t, "C", out[2].Title())
}

func TestFromRecords_SkipsUntitled(t *testing.T) {
	out := FromRecords([]Record{
		{Source: "cnn", Title: "Kept"},
		{Source: "cnn", Summary: "no title"},
	})

	assert.Len(t, out, 1)
	assert.Equal(t, Record{Source: "cnn", Title: "Kept"}, out[0].ToRecord())
}

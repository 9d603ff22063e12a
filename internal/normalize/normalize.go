// Package normalize turns raw article text into the canonical string used for
// similarity scoring and group naming.
package normalize

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Lemmatizer maps a token to its dictionary base form. Unknown tokens must be
// returned unchanged.
type Lemmatizer interface {
	Lemma(word string) string
}

// Config holds the externally supplied tables of the pipeline.
type Config struct {
	// Boilerplate lists literal substrings removed before any other step,
	// e.g. "Read Full Article at RT.com".
	Boilerplate []string
	// Lemmatizer may be nil, in which case tokens pass through unchanged.
	Lemmatizer Lemmatizer
}

// Normalizer is safe for concurrent use once constructed.
type Normalizer struct {
	boilerplate []string
	lemmatizer  Lemmatizer
}

var (
	markupPattern      = regexp.MustCompile(`<[a-z!/][^>]*>|&#?[a-z0-9]+;`)
	contractionPattern = regexp.MustCompile(`[a-z]+(?:'[a-z]+)+`)
)

// New creates a Normalizer from cfg.
func New(cfg Config) *Normalizer {
	bp := make([]string, 0, len(cfg.Boilerplate))
	for _, b := range cfg.Boilerplate {
		if b != "" {
			bp = append(bp, b)
		}
	}
	return &Normalizer{
		boilerplate: bp,
		lemmatizer:  cfg.Lemmatizer,
	}
}

// Normalize runs the cleaning pipeline. Empty input returns "" without
// running any step.
//
// Contractions are expanded right after markup removal, while apostrophes are
// still present, instead of after punctuation removal. "can't" therefore
// becomes "cannot" rather than "cant".
func (n *Normalizer) Normalize(text string) string {
	if text == "" {
		return ""
	}

	text = n.stripBoilerplate(text)
	text = strings.ToLower(text)
	text = stripMarkup(text)
	text = expandContractions(text)
	text = removePunctuation(text)
	text = strings.Join(strings.Fields(text), " ")
	text = removeStopwords(text)
	return n.lemmatize(text)
}

// NormalizeAll normalizes each text, keeping positions.
func (n *Normalizer) NormalizeAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = n.Normalize(t)
	}
	return out
}

func (n *Normalizer) stripBoilerplate(text string) string {
	for _, b := range n.boilerplate {
		text = strings.ReplaceAll(text, b, "")
	}
	return text
}

// stripMarkup keeps only the visible text of HTML input. Text without markup
// and text the parser rejects is returned as is.
func stripMarkup(text string) string {
	if !markupPattern.MatchString(text) {
		return text
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return text
	}
	doc.Find("script, style, noscript").Remove()
	return doc.Text()
}

func expandContractions(text string) string {
	text = strings.NewReplacer("’", "'", "‘", "'").Replace(text)
	return contractionPattern.ReplaceAllStringFunc(text, func(word string) string {
		if full, ok := contractions[word]; ok {
			return full
		}
		return word
	})
}

const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

func removePunctuation(text string) string {
	return strings.Map(func(r rune) rune {
		if r < 128 && strings.ContainsRune(asciiPunctuation, r) {
			return -1
		}
		return r
	}, text)
}

func removeStopwords(text string) string {
	words := strings.Fields(text)
	kept := words[:0]
	for _, w := range words {
		if !IsStopword(w) {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

func (n *Normalizer) lemmatize(text string) string {
	if n.lemmatizer == nil || text == "" {
		return text
	}
	words := strings.Fields(text)
	for i, w := range words {
		if lemma := n.lemmatizer.Lemma(w); lemma != "" {
			words[i] = lemma
		}
	}
	return strings.Join(words, " ")
}

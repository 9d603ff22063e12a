// Package entity extracts named entities from raw article text and buckets
// them by coarse category.
package entity

import (
	"fmt"
	"strings"
)

// Category is a coarse entity bucket.
type Category string

const (
	Names     Category = "names"
	Locations Category = "locations"
	Orgs      Category = "orgs"
	Events    Category = "events"
	Products  Category = "products"
)

// Categories lists every bucket in output order.
var Categories = []Category{Names, Locations, Orgs, Events, Products}

// categoryOf maps NER labels onto buckets. Labels not listed are dropped.
var categoryOf = map[string]Category{
	"PERSON":  Names,
	"GPE":     Locations,
	"LOC":     Locations,
	"ORG":     Orgs,
	"EVENT":   Events,
	"PRODUCT": Products,
}

// Span is one recognized entity. Start and End are byte offsets into the text
// the recognizer was given; both are -1 when the span could not be located.
type Span struct {
	Text  string
	Label string
	Start int
	End   int
}

// Located reports whether the span carries usable offsets.
func (s Span) Located() bool {
	return s.Start >= 0 && s.End > s.Start
}

// IsLocation reports whether the span is a geopolitical or location entity.
func (s Span) IsLocation() bool {
	return categoryOf[s.Label] == Locations
}

// Recognizer runs a named-entity model over text. Implementations must be
// safe for concurrent use and return no error for empty text.
type Recognizer interface {
	Recognize(text string) ([]Span, error)
}

// Bundle maps each category to lowercased entity texts in order of
// appearance.
type Bundle map[Category][]string

// Flatten joins every entity of every non-empty category with single spaces,
// in Categories order.
func (b Bundle) Flatten() string {
	var parts []string
	for _, c := range Categories {
		parts = append(parts, b[c]...)
	}
	return strings.Join(parts, " ")
}

// Extractor buckets recognizer output.
type Extractor struct {
	rec Recognizer
}

// NewExtractor wraps rec.
func NewExtractor(rec Recognizer) *Extractor {
	return &Extractor{rec: rec}
}

// Extract returns all entities of text grouped by category. Text should be
// the raw, unnormalized article text: casing and punctuation help the model.
// Repeated entities are kept.
func (e *Extractor) Extract(text string) (Bundle, error) {
	b := make(Bundle, len(Categories))
	for _, c := range Categories {
		b[c] = []string{}
	}
	if strings.TrimSpace(text) == "" {
		return b, nil
	}

	spans, err := e.rec.Recognize(text)
	if err != nil {
		return nil, fmt.Errorf("recognize entities: %w", err)
	}
	for _, s := range spans {
		c, ok := categoryOf[s.Label]
		if !ok {
			continue
		}
		b[c] = append(b[c], strings.ToLower(s.Text))
	}
	return b, nil
}

// ExtractLocations returns the distinct lowercased location entities of text,
// first occurrence wins.
func (e *Extractor) ExtractLocations(text string) ([]string, error) {
	locations := []string{}
	if strings.TrimSpace(text) == "" {
		return locations, nil
	}

	spans, err := e.rec.Recognize(text)
	if err != nil {
		return nil, fmt.Errorf("recognize entities: %w", err)
	}
	seen := make(map[string]struct{})
	for _, s := range spans {
		if !s.IsLocation() {
			continue
		}
		loc := strings.ToLower(s.Text)
		if _, dup := seen[loc]; dup {
			continue
		}
		seen[loc] = struct{}{}
		locations = append(locations, loc)
	}
	return locations, nil
}

// ExtractAll runs Extract over every text, keeping positions.
func (e *Extractor) ExtractAll(texts []string) ([]Bundle, error) {
	out := make([]Bundle, len(texts))
	for i, t := range texts {
		b, err := e.Extract(t)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		out[i] = b
	}
	return out, nil
}

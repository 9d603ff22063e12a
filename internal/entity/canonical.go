package entity

import (
	"fmt"
	"sort"
	"strings"
)

// Canonicalizer rewrites location variants to a canonical name, e.g. "USA"
// to "united states".
//
// Only location spans are rewritten, and only at their recorded offsets. A
// short variant such as "us" never touches "focus" or "campus".
type Canonicalizer struct {
	rec      Recognizer
	variants map[string]string
}

// NewCanonicalizer builds a canonicalizer from a {canonical: [variants]}
// table. Variants match case-insensitively.
func NewCanonicalizer(rec Recognizer, table map[string][]string) *Canonicalizer {
	variants := make(map[string]string)
	// Sorted so a variant listed under two canonical names resolves the same
	// way on every run.
	canon := make([]string, 0, len(table))
	for c := range table {
		canon = append(canon, c)
	}
	sort.Strings(canon)
	for _, c := range canon {
		for _, v := range table[c] {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "" {
				continue
			}
			if _, taken := variants[v]; !taken {
				variants[v] = c
			}
		}
	}
	return &Canonicalizer{rec: rec, variants: variants}
}

// Apply returns text with every located location variant replaced by its
// canonical name. Overlapping spans keep the first one.
func (c *Canonicalizer) Apply(text string) (string, error) {
	if len(c.variants) == 0 || strings.TrimSpace(text) == "" {
		return text, nil
	}

	spans, err := c.rec.Recognize(text)
	if err != nil {
		return "", fmt.Errorf("recognize entities: %w", err)
	}

	var eligible []Span
	for _, s := range spans {
		if !s.IsLocation() || !s.Located() || s.End > len(text) {
			continue
		}
		if _, ok := c.variants[strings.ToLower(text[s.Start:s.End])]; ok {
			eligible = append(eligible, s)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool { return eligible[i].Start < eligible[j].Start })

	var b strings.Builder
	last := 0
	for _, s := range eligible {
		if s.Start < last {
			continue
		}
		b.WriteString(text[last:s.Start])
		b.WriteString(c.variants[strings.ToLower(text[s.Start:s.End])])
		last = s.End
	}
	b.WriteString(text[last:])
	return b.String(), nil
}

// Package article defines the immutable article record handed from the fetch
// layer to the clustering engine.
package article

import "strings"

// Key identifies an article. Two articles with the same source and title are
// the same article no matter what their summary or content says.
type Key struct {
	Source string
	Title  string
}

// Article is a single fetched news story. Fields are unexported so a value
// cannot change after New returns it.
type Article struct {
	source  string
	title   string
	summary string
	content string
}

// New builds an Article. Summary and content may be empty.
func New(source, title, summary, content string) Article {
	return Article{
		source:  source,
		title:   title,
		summary: summary,
		content: content,
	}
}

func (a Article) Source() string  { return a.source }
func (a Article) Title() string   { return a.title }
func (a Article) Summary() string { return a.summary }
func (a Article) Content() string { return a.content }

// Key returns the identity of the article.
func (a Article) Key() Key {
	return Key{Source: a.source, Title: a.title}
}

// Equal reports whether a and b share the same identity key.
func (a Article) Equal(b Article) bool {
	return a.Key() == b.Key()
}

// Text joins the non-empty title, summary and content with single spaces.
// It is the only place an Article is turned into text.
func (a Article) Text() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.title, a.summary, a.content} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func (a Article) String() string {
	return "<Article source=" + a.source + " title=" + a.title + ">"
}

// Dedupe drops every article whose key was already seen, keeping the first
// occurrence and the original order.
func Dedupe(articles []Article) []Article {
	seen := make(map[Key]struct{}, len(articles))
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		if _, dup := seen[a.Key()]; dup {
			continue
		}
		seen[a.Key()] = struct{}{}
		out = append(out, a)
	}
	return out
}

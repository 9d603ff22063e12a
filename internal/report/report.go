// Package report renders clustering results for the console, as JSON and as
// a Telegram HTML digest. The engine returns structured data only; every
// presentation concern lives here.
package report

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/deusflow/dedupnews/internal/article"
	"github.com/deusflow/dedupnews/internal/engine"
)

// Entry is one article as shown in a report.
type Entry struct {
	Source string  `json:"source"`
	Title  string  `json:"title"`
	Link   string  `json:"link,omitempty"`
	Score  float64 `json:"score,omitempty"`
}

// Story is a group of articles covering the same event.
type Story struct {
	Label    int     `json:"label"`
	Name     string  `json:"name"`
	Headline string  `json:"headline,omitempty"`
	Articles []Entry `json:"articles"`
}

// Digest is the result of one cycle in presentation form.
type Digest struct {
	CycleID  string  `json:"cycle_id,omitempty"`
	Mode     string  `json:"mode"`
	Articles int     `json:"articles"`
	Stories  []Story `json:"stories"`
	Noise    []Entry `json:"noise,omitempty"`
}

// Links maps an article to its URL. A nil Links is valid.
type Links map[article.Key]string

func (l Links) entry(a article.Article) Entry {
	return Entry{Source: a.Source(), Title: a.Title(), Link: l[a.Key()]}
}

// FromResult builds a digest from density-clustering output.
func FromResult(cycleID string, total int, res *engine.Result, links Links) Digest {
	d := Digest{CycleID: cycleID, Mode: "cluster", Articles: total, Stories: []Story{}}
	for _, g := range res.Groups {
		s := Story{Label: g.Label, Name: g.Name}
		for _, a := range g.Articles {
			s.Articles = append(s.Articles, links.entry(a))
		}
		d.Stories = append(d.Stories, s)
	}
	for _, a := range res.Noise {
		d.Noise = append(d.Noise, links.entry(a))
	}
	return d
}

// FromMatches builds a digest from pairwise-threshold output. Each match
// becomes a story led by its representative; the story name is the
// representative's title.
func FromMatches(cycleID string, total int, matches []engine.Match, links Links) Digest {
	d := Digest{CycleID: cycleID, Mode: "pairwise", Articles: total, Stories: []Story{}}
	for i, m := range matches {
		s := Story{Label: i, Name: m.Representative.Title()}
		s.Articles = append(s.Articles, links.entry(m.Representative))
		for k, a := range m.Similar {
			e := links.entry(a)
			e.Score = m.Scores[k]
			s.Articles = append(s.Articles, e)
		}
		d.Stories = append(d.Stories, s)
	}
	return d
}

// WriteJSON writes d as indented JSON.
func WriteJSON(w io.Writer, d Digest) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode digest: %w", err)
	}
	return nil
}

// WriteConsole prints d for a terminal, truncating titles to width columns.
// Colors follow the fatih/color NoColor switch, so redirected output is
// plain.
func WriteConsole(w io.Writer, d Digest, width int) {
	if width <= 0 {
		width = 100
	}
	header := color.New(color.FgCyan, color.Bold)
	name := color.New(color.FgGreen)
	dim := color.New(color.Faint)

	header.Fprintf(w, "%d articles, %d stories (%s)\n", d.Articles, len(d.Stories), d.Mode)
	for i, s := range d.Stories {
		fmt.Fprintln(w)
		name.Fprintf(w, "#%d [%s]", i+1, s.Name)
		fmt.Fprintf(w, " %d articles\n", len(s.Articles))
		if s.Headline != "" {
			fmt.Fprintf(w, "  %s\n", runewidth.Truncate(s.Headline, width, "…"))
		}
		for _, e := range s.Articles {
			line := fmt.Sprintf("  - %-10s %s", e.Source, e.Title)
			fmt.Fprintln(w, runewidth.Truncate(line, width, "…"))
		}
	}
	if len(d.Noise) > 0 {
		fmt.Fprintln(w)
		dim.Fprintf(w, "%d unmatched articles\n", len(d.Noise))
	}
}

// telegramLimit leaves headroom under Telegram's 4096 character cap.
const telegramLimit = 4000

// TelegramHTML renders at most maxStories stories as Telegram HTML. Stories
// that would push the message past the size limit are dropped.
func TelegramHTML(d Digest, maxStories int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📰 <b>%d stories</b> from %d articles\n", len(d.Stories), d.Articles)

	for i, s := range d.Stories {
		if maxStories > 0 && i >= maxStories {
			break
		}
		var sb strings.Builder
		title := s.Headline
		if title == "" {
			title = s.Name
		}
		fmt.Fprintf(&sb, "\n<b>%d. %s</b>\n", i+1, html.EscapeString(title))
		for _, e := range s.Articles {
			if e.Link != "" {
				fmt.Fprintf(&sb, "• %s: <a href=\"%s\">%s</a>\n",
					html.EscapeString(e.Source), html.EscapeString(e.Link), html.EscapeString(e.Title))
			} else {
				fmt.Fprintf(&sb, "• %s: %s\n", html.EscapeString(e.Source), html.EscapeString(e.Title))
			}
		}
		if utf8.RuneCountInString(b.String())+utf8.RuneCountInString(sb.String()) > telegramLimit {
			break
		}
		b.WriteString(sb.String())
	}
	return b.String()
}

package article

// Record is the serialized form of an Article used by JSON input and output.
type Record struct {
	Source  string `json:"source"`
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
	Content string `json:"content,omitempty"`
}

// Article converts the record into an immutable Article.
func (r Record) Article() Article {
	return New(r.Source, r.Title, r.Summary, r.Content)
}

// ToRecord returns the serializable form of a.
func (a Article) ToRecord() Record {
	return Record{
		Source:  a.source,
		Title:   a.title,
		Summary: a.summary,
		Content: a.content,
	}
}

// FromRecords converts a slice of records, skipping records without a title.
func FromRecords(records []Record) []Article {
	out := make([]Article, 0, len(records))
	for _, r := range records {
		if r.Title == "" {
			continue
		}
		out = append(out, r.Article())
	}
	return out
}

package entity

import (
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"
)

// ProseRecognizer runs the prose averaged-perceptron NER model.
type ProseRecognizer struct {
	model *prose.Model
}

// DefaultModelName names the model bundled with prose.
const DefaultModelName = "en"

// NewProseRecognizer uses model when non-nil and the model bundled with prose
// otherwise. The model is built here once; prose would otherwise deserialize
// it on every document.
func NewProseRecognizer(model *prose.Model) *ProseRecognizer {
	if model == nil {
		model = prose.ModelFromData(DefaultModelName)
	}
	return &ProseRecognizer{model: model}
}

// Model returns the model shared by every Recognize call.
func (r *ProseRecognizer) Model() *prose.Model { return r.model }

// Recognize implements Recognizer.
func (r *ProseRecognizer) Recognize(text string) ([]Span, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	doc, err := prose.NewDocument(text, prose.WithSegmentation(false), prose.UsingModel(r.model))
	if err != nil {
		return nil, fmt.Errorf("prose document: %w", err)
	}
	return locate(text, doc.Entities()), nil
}

// locate recovers byte offsets for entities, which prose reports without
// positions. Entities come in text order, so each search starts where the
// previous match ended.
func locate(text string, ents []prose.Entity) []Span {
	spans := make([]Span, 0, len(ents))
	cursor := 0
	for _, ent := range ents {
		s := Span{Text: ent.Text, Label: ent.Label, Start: -1, End: -1}
		if ent.Text != "" {
			if idx := strings.Index(text[cursor:], ent.Text); idx >= 0 {
				s.Start = cursor + idx
				s.End = s.Start + len(ent.Text)
				cursor = s.End
			}
		}
		spans = append(spans, s)
	}
	return spans
}

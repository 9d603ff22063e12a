// Package nlp loads the language models shared by the clustering engine. The
// models are built once at startup and are read-only afterwards.
package nlp

import (
	"fmt"
	"os"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/jdkato/prose/v2"

	"github.com/deusflow/dedupnews/internal/entity"
	"github.com/deusflow/dedupnews/internal/logger"
	"github.com/deusflow/dedupnews/internal/normalize"
)

// Models is the explicit model context handed to the engine. Tests build it
// directly with fakes.
type Models struct {
	Lemmatizer normalize.Lemmatizer
	Recognizer entity.Recognizer
}

// Options controls model loading.
type Options struct {
	// NERModelPath points at a prose model directory. Empty means the model
	// bundled with prose.
	NERModelPath string
}

// Load builds the lemmatizer and NER model. Any error is fatal for the
// caller: the engine cannot run without its models.
func Load(opts Options) (*Models, error) {
	lem, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("load lemmatizer: %w", err)
	}

	var model *prose.Model
	if opts.NERModelPath != "" {
		if _, err := os.Stat(opts.NERModelPath); err != nil {
			return nil, fmt.Errorf("load NER model: %w", err)
		}
		model = prose.ModelFromDisk(opts.NERModelPath)
	} else {
		model = prose.ModelFromData(entity.DefaultModelName)
	}
	rec := entity.NewProseRecognizer(model)

	// Surface a broken model now rather than on the first batch.
	if _, err := rec.Recognize("Reuters reported from London on Monday."); err != nil {
		return nil, fmt.Errorf("load NER model: %w", err)
	}

	logger.Info("NLP models loaded", "ner_model", modelName(opts.NERModelPath))
	return &Models{Lemmatizer: lem, Recognizer: rec}, nil
}

func modelName(path string) string {
	if path == "" {
		return "prose-default"
	}
	return path
}

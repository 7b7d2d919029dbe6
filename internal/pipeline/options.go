// Package pipeline holds the conversion pipeline configuration and the
// shared handle built from it at startup.
package pipeline

import (
	"errors"
	"slices"
	"strings"
)

// Defaults for a pipeline built from an empty config.
const (
	DefaultOCREngine        = "easyocr"
	DefaultImageScale       = 2.0
	DefaultDescriptionModel = "HuggingFaceTB/SmolVLM-256M-Instruct"
	DefaultMaxNewTokens     = 200
	DefaultPrompt           = "Describe the image in three sentences. Be concise and accurate. " +
		"If it shows a table try to extract the data formatted as markdown. " +
		"Do not repeat the sentence the image shows"
)

// Description configures the picture description stage. An empty APIURL
// runs the model inside the engine; otherwise the engine calls an
// OpenAI-compatible vision endpoint.
type Description struct {
	Prompt       string
	Model        string
	APIURL       string
	APIKey       string
	MaxNewTokens int
}

// Options is the pipeline configuration shared by every conversion.
type Options struct {
	OCREngine             string
	OCRLanguages          []string
	ImageScale            float64
	GeneratePictureImages bool
	TableStructure        bool
	CodeEnrichment        bool
	FormulaEnrichment     bool
	PictureClassification bool
	PictureDescription    bool
	Description           Description
}

// DefaultOptions enables every enrichment stage with English OCR.
func DefaultOptions() Options {
	return Options{
		OCREngine:             DefaultOCREngine,
		OCRLanguages:          []string{"en"},
		ImageScale:            DefaultImageScale,
		GeneratePictureImages: true,
		TableStructure:        true,
		CodeEnrichment:        true,
		FormulaEnrichment:     true,
		PictureClassification: true,
		PictureDescription:    true,
		Description: Description{
			Prompt:       DefaultPrompt,
			Model:        DefaultDescriptionModel,
			MaxNewTokens: DefaultMaxNewTokens,
		},
	}
}

// ParseLanguages splits a comma-separated language list, trimming blanks
// and dropping duplicates while keeping the first occurrence's position.
func ParseLanguages(s string) []string {
	return normalizeLanguages(strings.Split(s, ","))
}

func normalizeLanguages(in []string) []string {
	out := make([]string, 0, len(in))
	for _, l := range in {
		l = strings.TrimSpace(l)
		if l == "" || slices.Contains(out, l) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// Validate checks the invariants Build relies on.
func (o *Options) Validate() error {
	if len(normalizeLanguages(o.OCRLanguages)) == 0 {
		return errors.New("at least one OCR language is required")
	}
	if o.ImageScale <= 0 {
		return errors.New("image scale must be positive")
	}
	if strings.TrimSpace(o.Description.Prompt) == "" {
		return errors.New("description prompt must not be empty")
	}
	if o.Description.MaxNewTokens < 0 {
		return errors.New("description max_new_tokens must not be negative")
	}
	return nil
}

func (o Options) clone() Options {
	o.OCRLanguages = slices.Clone(o.OCRLanguages)
	return o
}

package docling

import (
	"encoding/json"
	"strings"

	"github.com/kailas-cloud/docparse/internal/domain/conversion"
	"github.com/kailas-cloud/docparse/internal/pipeline"
)

// convertRequest is the body of POST /v1/convert/source.
type convertRequest struct {
	Options convertOptions `json:"options"`
	Sources []source       `json:"sources"`
}

type source struct {
	Kind         string `json:"kind"`
	URL          string `json:"url,omitempty"`
	Base64String string `json:"base64_string,omitempty"`
	Filename     string `json:"filename,omitempty"`
}

type convertOptions struct {
	ToFormats               []string                 `json:"to_formats"`
	DoOCR                   bool                     `json:"do_ocr"`
	OCREngine               string                   `json:"ocr_engine"`
	OCRLang                 []string                 `json:"ocr_lang"`
	ImagesScale             float64                  `json:"images_scale"`
	IncludeImages           bool                     `json:"include_images"`
	DoTableStructure        bool                     `json:"do_table_structure"`
	DoCodeEnrichment        bool                     `json:"do_code_enrichment"`
	DoFormulaEnrichment     bool                     `json:"do_formula_enrichment"`
	DoPictureClassification bool                     `json:"do_picture_classification"`
	DoPictureDescription    bool                     `json:"do_picture_description"`
	AbortOnError            bool                     `json:"abort_on_error"`
	PictureDescriptionLocal *pictureDescriptionLocal `json:"picture_description_local,omitempty"`
	PictureDescriptionAPI   *pictureDescriptionAPI   `json:"picture_description_api,omitempty"`
}

type pictureDescriptionLocal struct {
	RepoID           string         `json:"repo_id"`
	Prompt           string         `json:"prompt"`
	GenerationConfig map[string]any `json:"generation_config"`
}

type pictureDescriptionAPI struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Params  map[string]any    `json:"params"`
	Prompt  string            `json:"prompt"`
}

// convertResponse is the engine's answer for a single-source conversion.
type convertResponse struct {
	Document struct {
		Filename    string          `json:"filename"`
		JSONContent json.RawMessage `json:"json_content"`
	} `json:"document"`
	Status         conversion.Status      `json:"status"`
	Errors         []conversion.ErrorItem `json:"errors"`
	ProcessingTime float64                `json:"processing_time"`
}

// errorResponse is the FastAPI error body.
type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

func buildOptions(o pipeline.Options) convertOptions {
	out := convertOptions{
		ToFormats:               []string{"json"},
		DoOCR:                   true,
		OCREngine:               o.OCREngine,
		OCRLang:                 o.OCRLanguages,
		ImagesScale:             o.ImageScale,
		IncludeImages:           o.GeneratePictureImages,
		DoTableStructure:        o.TableStructure,
		DoCodeEnrichment:        o.CodeEnrichment,
		DoFormulaEnrichment:     o.FormulaEnrichment,
		DoPictureClassification: o.PictureClassification,
		DoPictureDescription:    o.PictureDescription,
	}
	if !o.PictureDescription {
		return out
	}

	d := o.Description
	if d.APIURL == "" {
		gen := map[string]any{"do_sample": false}
		if d.MaxNewTokens > 0 {
			gen["max_new_tokens"] = d.MaxNewTokens
		}
		out.PictureDescriptionLocal = &pictureDescriptionLocal{
			RepoID:           d.Model,
			Prompt:           d.Prompt,
			GenerationConfig: gen,
		}
		return out
	}

	params := map[string]any{"model": d.Model}
	if d.MaxNewTokens > 0 {
		params["max_completion_tokens"] = d.MaxNewTokens
	}
	api := &pictureDescriptionAPI{
		URL:    strings.TrimRight(d.APIURL, "/") + "/chat/completions",
		Params: params,
		Prompt: d.Prompt,
	}
	if d.APIKey != "" {
		api.Headers = map[string]string{"Authorization": "Bearer " + d.APIKey}
	}
	out.PictureDescriptionAPI = api
	return out
}

// Package render produces the textual artifacts of a converted document.
package render

import (
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/kailas-cloud/docparse/internal/domain/document"
)

// Format selects the output rendering.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatHTML     Format = "html"
)

// ParseFormat validates a format name; empty means markdown.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatMarkdown, nil
	case FormatMarkdown, FormatText, FormatHTML:
		return f, nil
	default:
		return "", fmt.Errorf("output_format must be one of markdown, text, html, got %q", s)
	}
}

// Renderer is safe for concurrent use; it holds no per-document state.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// New creates a Renderer.
func New() *Renderer {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("figure", "figcaption")

	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			// Raw HTML from document text passes through and is sanitized afterwards.
			goldmark.WithRendererOptions(goldhtml.WithUnsafe()),
		),
		policy: policy,
	}
}

// Render produces doc in the requested format. Output depends only on doc and format.
func (r *Renderer) Render(doc *document.Document, format Format) (string, error) {
	switch format {
	case FormatMarkdown:
		return markdown(doc, false), nil
	case FormatText:
		return text(doc), nil
	case FormatHTML:
		return r.html(doc)
	default:
		return "", fmt.Errorf("render: unknown format %q", format)
	}
}

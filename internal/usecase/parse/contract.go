package parse

import (
	"context"

	"github.com/kailas-cloud/docparse/internal/domain/conversion"
	"github.com/kailas-cloud/docparse/internal/domain/document"
	"github.com/kailas-cloud/docparse/internal/render"
)

// Converter runs one classified conversion.
type Converter interface {
	Convert(ctx context.Context, src conversion.Source) (*conversion.Result, error)
}

// Renderer produces the textual output of a document.
type Renderer interface {
	Render(doc *document.Document, format render.Format) (string, error)
}

// Package parse is the request flow shared by every entry point: convert,
// aggregate picture annotations, render.
package parse

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/docparse/internal/domain"
	"github.com/kailas-cloud/docparse/internal/domain/conversion"
	"github.com/kailas-cloud/docparse/internal/render"
	"github.com/kailas-cloud/docparse/internal/usecase/picture"
)

// PictureDataKey is the json_output key carrying picture records.
const PictureDataKey = "picture_data"

// Request describes one parse.
type Request struct {
	Source      conversion.Source
	Format      render.Format
	IncludeJSON bool
}

// Result is what a caller needs to build a response.
type Result struct {
	Status conversion.Status
	Output string
	// JSON is the structural export of the document when requested, or an
	// empty object, with picture records under PictureDataKey in both cases.
	JSON     map[string]any
	Pictures []picture.Record
}

// Service runs the parse flow.
type Service struct {
	converter Converter
	renderer  Renderer
}

// New creates a parse service.
func New(c Converter, r Renderer) *Service {
	return &Service{converter: c, renderer: r}
}

// Parse converts req.Source and derives output and picture records from the
// same document. Conversion errors are returned unchanged.
func (s *Service) Parse(ctx context.Context, req Request) (*Result, error) {
	res, err := s.converter.Convert(ctx, req.Source)
	if err != nil {
		return nil, err //nolint:wrapcheck // already classified by the converter
	}
	doc := res.Document

	pictures := picture.Extract(doc)

	output, err := s.renderer.Render(doc, req.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: render %s: %w", domain.ErrConversionFailed, req.Format, err)
	}

	jsonOut := map[string]any{}
	if req.IncludeJSON {
		jsonOut, err = doc.ExportToDict()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrConversionFailed, err)
		}
	}
	jsonOut[PictureDataKey] = pictures

	return &Result{
		Status:   res.Status,
		Output:   output,
		JSON:     jsonOut,
		Pictures: pictures,
	}, nil
}

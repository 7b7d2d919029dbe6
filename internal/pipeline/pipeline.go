package pipeline

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docparse/internal/domain/conversion"
)

// Engine runs conversions. Implementations must be safe for concurrent use.
type Engine interface {
	Convert(ctx context.Context, src conversion.Source, opts Options) (*conversion.Result, error)
	Warm(ctx context.Context, format conversion.Format, opts Options) error
}

// Handle is the configured pipeline. It is immutable once built.
type Handle struct {
	engine  Engine
	opts    Options
	formats []conversion.Format
}

// Build validates opts, freezes them and warms the engine for every format
// in order. Any warm-up failure is returned and the handle is discarded.
func Build(
	ctx context.Context, engine Engine, opts Options, formats []conversion.Format, logger *zap.Logger,
) (*Handle, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline options: %w", err)
	}
	if len(formats) == 0 {
		formats = conversion.AllFormats()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	frozen := opts.clone()
	frozen.OCRLanguages = normalizeLanguages(frozen.OCRLanguages)
	if frozen.OCREngine == "" {
		frozen.OCREngine = DefaultOCREngine
	}
	if frozen.Description.Model == "" {
		frozen.Description.Model = DefaultDescriptionModel
	}

	h := &Handle{engine: engine, opts: frozen, formats: slices.Clone(formats)}
	for i, f := range h.formats {
		logger.Info(fmt.Sprintf("Initializing %s pipeline %d/%d", f, i+1, len(h.formats)))
		if err := engine.Warm(ctx, f, h.Options()); err != nil {
			return nil, fmt.Errorf("warm %s pipeline: %w", f, err)
		}
	}
	return h, nil
}

// Convert runs one conversion with the frozen options.
func (h *Handle) Convert(ctx context.Context, src conversion.Source) (*conversion.Result, error) {
	return h.engine.Convert(ctx, src, h.Options()) //nolint:wrapcheck // invoker classifies engine errors
}

// Options returns a copy of the frozen options.
func (h *Handle) Options() Options {
	return h.opts.clone()
}

// Formats lists the warmed input formats.
func (h *Handle) Formats() []conversion.Format {
	return slices.Clone(h.formats)
}

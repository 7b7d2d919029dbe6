package convert

import (
	"context"

	"github.com/kailas-cloud/docparse/internal/domain/conversion"
)

// Pipeline runs one conversion with the shared pipeline configuration.
type Pipeline interface {
	Convert(ctx context.Context, src conversion.Source) (*conversion.Result, error)
}

// Inspector rejects sources that break input limits before conversion.
type Inspector interface {
	Inspect(ctx context.Context, src conversion.Source) error
}

// Limiter bounds concurrent conversions. Acquire blocks until a slot is
// free or ctx is done; the returned func releases the slot.
type Limiter interface {
	Acquire(ctx context.Context) (func(), error)
}

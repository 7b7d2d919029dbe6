// Package slots bounds the number of conversions running at once, either
// in-process or across replicas through a shared store.
package slots

import (
	"context"
	"fmt"
	"sync"

	"github.com/kailas-cloud/docparse/internal/domain"
)

// Local is an in-process semaphore.
type Local struct {
	sem chan struct{}
}

// NewLocal creates a semaphore with n slots (n < 1 is treated as 1).
func NewLocal(n int) *Local {
	return &Local{sem: make(chan struct{}, max(n, 1))}
}

// Acquire blocks until a slot is free or ctx is done. The returned release
// func is idempotent.
func (l *Local) Acquire(ctx context.Context) (func(), error) {
	select {
	case l.sem <- struct{}{}:
		return sync.OnceFunc(func() { <-l.sem }), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for conversion slot: %w: %w", domain.ErrBusy, ctx.Err())
	}
}

// InUse reports how many slots are held.
func (l *Local) InUse() int { return len(l.sem) }


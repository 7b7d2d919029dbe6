package slots

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docparse/internal/domain"
	"github.com/kailas-cloud/docparse/internal/logger"
)

const keyPrefix = "docparse:slot:"

// store is the consumer interface for slot operations (ISP).
type store interface {
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	DelIfEqual(ctx context.Context, key string, value []byte) (bool, error)
}

// Shared keeps one key per slot in Redis so every replica sees the same
// limit. Keys expire after ttl, which must exceed the conversion timeout.
type Shared struct {
	store    store
	n        int
	ttl      time.Duration
	interval time.Duration
	token    func() string
}

// NewShared creates a shared limiter with n slots.
func NewShared(s store, n int, ttl time.Duration) *Shared {
	return &Shared{
		store:    s,
		n:        max(n, 1),
		ttl:      ttl,
		interval: 200 * time.Millisecond,
		token:    func() string { return uuid.NewString() },
	}
}

// WithPollInterval overrides how often a waiting request retries.
func (s *Shared) WithPollInterval(d time.Duration) *Shared {
	s.interval = d
	return s
}

// Acquire claims the first free slot, polling until ctx is done.
func (s *Shared) Acquire(ctx context.Context) (func(), error) {
	token := []byte(s.token())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		key, err := s.tryAcquire(ctx, token)
		if err != nil {
			return nil, err
		}
		if key != "" {
			return sync.OnceFunc(func() { s.release(ctx, key, token) }), nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for shared conversion slot: %w: %w", domain.ErrBusy, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (s *Shared) tryAcquire(ctx context.Context, token []byte) (string, error) {
	for i := range s.n {
		key := keyPrefix + strconv.Itoa(i)
		ok, err := s.store.SetNX(ctx, key, token, s.ttl)
		if err != nil {
			return "", fmt.Errorf("claim slot %s: %w", key, err)
		}
		if ok {
			return key, nil
		}
	}
	return "", nil
}

// release runs after the conversion, when the request context may already
// be cancelled, so it uses a short detached context.
func (s *Shared) release(ctx context.Context, key string, token []byte) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	released, err := s.store.DelIfEqual(rctx, key, token)
	switch {
	case err != nil:
		logger.FromContext(ctx).Warn("release conversion slot failed", zap.String("key", key), zap.Error(err))
	case !released:
		logger.FromContext(ctx).Warn("conversion slot expired before release", zap.String("key", key))
	}
}

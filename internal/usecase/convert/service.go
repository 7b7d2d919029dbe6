package convert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docparse/internal/domain"
	"github.com/kailas-cloud/docparse/internal/domain/conversion"
	"github.com/kailas-cloud/docparse/internal/logger"
	"github.com/kailas-cloud/docparse/internal/metrics"
)

// Outcome labels for conversion metrics.
const (
	outcomeClientInput = "client_input"
	outcomeNotFound    = "not_found"
	outcomeFailed      = "failed"
	outcomeTimeout     = "timeout"
	outcomeBusy        = "busy"
)

// Service invokes the pipeline and maps every outcome to either a usable
// result or one of the domain conversion errors.
type Service struct {
	pipeline     Pipeline
	inspector    Inspector
	limiter      Limiter
	timeout      time.Duration
	queueTimeout time.Duration
	logger       *zap.Logger
}

// New creates a conversion service.
func New(p Pipeline, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{pipeline: p, logger: logger}
}

// WithInspector enables input limit checks.
func (s *Service) WithInspector(i Inspector) *Service {
	s.inspector = i
	return s
}

// WithLimiter bounds concurrent conversions. queueTimeout caps how long a
// request waits for a slot; zero waits until the request is cancelled.
func (s *Service) WithLimiter(l Limiter, queueTimeout time.Duration) *Service {
	s.limiter = l
	s.queueTimeout = queueTimeout
	return s
}

// WithTimeout caps the duration of a single engine call.
func (s *Service) WithTimeout(d time.Duration) *Service {
	s.timeout = d
	return s
}

// Convert runs one conversion. On success the result's status is success or
// partial_success and Document is set. Errors wrap one of
// domain.ErrClientInput (as *domain.ClientInputError), domain.ErrSourceUnavailable,
// domain.ErrConversionFailed, domain.ErrConversionTimeout or domain.ErrBusy.
func (s *Service) Convert(ctx context.Context, src conversion.Source) (*conversion.Result, error) {
	log := logger.FromContextOr(ctx, s.logger).With(
		zap.String("source_kind", src.Kind.String()),
		zap.String("source", src.Name()),
	)
	start := time.Now()

	res, outcome, err := s.convert(ctx, log, src)

	metrics.ConversionsTotal.WithLabelValues(src.Kind.String(), outcome).Inc()
	metrics.ConversionDuration.WithLabelValues(src.Kind.String()).Observe(time.Since(start).Seconds())
	return res, err
}

func (s *Service) convert(ctx context.Context, log *zap.Logger, src conversion.Source) (*conversion.Result, string, error) {
	if s.inspector != nil {
		if err := s.inspector.Inspect(ctx, src); err != nil {
			outcome, mapped := classifyInputError(err)
			log.Info("Source rejected before conversion", zap.Error(err))
			return nil, outcome, mapped
		}
	}

	if s.limiter != nil {
		release, err := s.acquire(ctx)
		if err != nil {
			log.Warn("No conversion slot available", zap.Error(err))
			return nil, outcomeBusy, err
		}
		metrics.ConversionSlotsInUse.Inc()
		defer func() {
			release()
			metrics.ConversionSlotsInUse.Dec()
		}()
	}

	convCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		convCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	res, err := s.pipeline.Convert(convCtx, src)
	if err != nil {
		outcome, mapped := s.classifyCallError(log, err)
		return nil, outcome, mapped
	}
	return s.classifyResult(log, res)
}

func (s *Service) acquire(ctx context.Context) (func(), error) {
	if s.queueTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.queueTimeout)
		defer cancel()
	}
	release, err := s.limiter.Acquire(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrBusy) {
			return nil, err
		}
		return nil, fmt.Errorf("acquire conversion slot: %w: %w", domain.ErrBusy, err)
	}
	return release, nil
}

func classifyInputError(err error) (string, error) {
	var limit *conversion.LimitError
	switch {
	case errors.As(err, &limit):
		return outcomeClientInput, domain.NewClientInput(limit.Message)
	case errors.Is(err, conversion.ErrSourceNotFound):
		return outcomeNotFound, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	default:
		return outcomeFailed, fmt.Errorf("%w: preflight: %w", domain.ErrConversionFailed, err)
	}
}

func (s *Service) classifyCallError(log *zap.Logger, err error) (string, error) {
	switch {
	case errors.Is(err, conversion.ErrSourceNotFound):
		log.Info("Conversion source not found", zap.Error(err))
		return outcomeNotFound, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn("Conversion timed out", zap.Duration("timeout", s.timeout), zap.Error(err))
		return outcomeTimeout, fmt.Errorf("%w: %w", domain.ErrConversionTimeout, err)
	default:
		log.Error("Conversion call failed", zap.Error(err))
		return outcomeFailed, fmt.Errorf("%w: %w", domain.ErrConversionFailed, err)
	}
}

func (s *Service) classifyResult(log *zap.Logger, res *conversion.Result) (*conversion.Result, string, error) {
	for _, e := range res.Errors {
		metrics.ConversionErrorRecordsTotal.WithLabelValues(string(e.ComponentType)).Inc()
	}

	if res.Status.Usable() {
		if res.Status == conversion.StatusPartialSuccess {
			for _, e := range res.Errors {
				log.Warn("Conversion partially succeeded", errorFields(e)...)
			}
		}
		if res.Document == nil {
			log.Error("Usable conversion status without a document", zap.String("status", string(res.Status)))
			return nil, outcomeFailed, fmt.Errorf("%w: %s without document", domain.ErrConversionFailed, res.Status)
		}
		return res, string(res.Status), nil
	}

	for _, e := range res.Errors {
		log.Error("Conversion failed", append(errorFields(e), zap.String("status", string(res.Status)))...)
	}
	if e, ok := res.FirstUserInputError(); ok {
		return nil, outcomeClientInput, domain.NewClientInput(e.Message)
	}
	if len(res.Errors) == 0 {
		log.Error("Conversion failed without error records", zap.String("status", string(res.Status)))
	}
	return nil, outcomeFailed, fmt.Errorf("%w: status %s", domain.ErrConversionFailed, res.Status)
}

func errorFields(e conversion.ErrorItem) []zap.Field {
	return []zap.Field{
		zap.String("component", string(e.ComponentType)),
		zap.String("module", e.ModuleName),
		zap.String("error_message", e.Message),
	}
}

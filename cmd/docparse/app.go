package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docparse/internal/config"
	"github.com/kailas-cloud/docparse/internal/domain/conversion"
	dbRedis "github.com/kailas-cloud/docparse/internal/db/redis"
	"github.com/kailas-cloud/docparse/internal/metrics"
	"github.com/kailas-cloud/docparse/internal/pipeline"
	"github.com/kailas-cloud/docparse/internal/preflight"
	"github.com/kailas-cloud/docparse/internal/render"
	"github.com/kailas-cloud/docparse/internal/repository/slots"
	"github.com/kailas-cloud/docparse/internal/transport/docling"
	openaiProbe "github.com/kailas-cloud/docparse/internal/transport/openai"
	convertuc "github.com/kailas-cloud/docparse/internal/usecase/convert"
	healthuc "github.com/kailas-cloud/docparse/internal/usecase/health"
	parseuc "github.com/kailas-cloud/docparse/internal/usecase/parse"
)

// app is the wired service graph shared by serve and convert.
type app struct {
	parser *parseuc.Service
	health *healthuc.Service
	close  func()
}

// buildApp is the composition root. formats overrides the configured
// warm-up formats when non-empty.
func buildApp(ctx context.Context, cfg config.Config, logger *zap.Logger, formats []conversion.Format) (*app, error) {
	metrics.RegisterConversionMetrics()

	engine := docling.NewClient(&docling.Config{
		BaseURL: cfg.Engine.BaseURL,
		APIKey:  cfg.Engine.APIKey,
		Logger:  logger,
	})

	if len(formats) == 0 {
		var err error
		if formats, err = cfg.Pipeline.FormatList(); err != nil {
			return nil, fmt.Errorf("pipeline formats: %w", err)
		}
	}

	opts := cfg.Pipeline.Options()
	healthSvc := healthuc.New(engine)

	// An external description endpoint must serve the model before we warm
	// the pipeline against it.
	if opts.PictureDescription && opts.Description.APIURL != "" {
		probe := openaiProbe.NewModelProbe(&openaiProbe.Config{
			APIKey:  opts.Description.APIKey,
			BaseURL: opts.Description.APIURL,
			Model:   opts.Description.Model,
			Logger:  logger,
		})
		if err := probe.CheckModel(ctx); err != nil {
			return nil, fmt.Errorf("picture description endpoint: %w", err)
		}
		healthSvc.WithDescriptionModel(probe)
	}

	warmCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Engine.WarmupTimeoutSec)*time.Second)
	defer cancel()
	started := time.Now()
	handle, err := pipeline.Build(warmCtx, engine, opts, formats, logger)
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	logger.Info("Pipeline ready",
		zap.Int("formats", len(handle.Formats())),
		zap.Strings("ocr_languages", handle.Options().OCRLanguages),
		zap.Duration("warmup", time.Since(started)),
	)

	closeFn := func() {}
	var limiter convertuc.Limiter
	switch cfg.Coordinator.Driver {
	case "redis", "valkey":
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Coordinator.Addrs,
			Password: cfg.Coordinator.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create coordinator store: %w", err)
		}
		if err := store.WaitForReady(ctx, time.Duration(cfg.Coordinator.ReadinessTimeout)*time.Second); err != nil {
			store.Close()
			return nil, fmt.Errorf("coordinator not ready: %w", err)
		}
		logger.Info("Connected to coordinator", zap.Strings("addrs", cfg.Coordinator.Addrs))
		limiter = slots.NewShared(store, cfg.Limits.MaxConcurrent, time.Duration(cfg.Coordinator.SlotTTLSec)*time.Second)
		healthSvc.WithCoordinator(store)
		closeFn = store.Close
	default:
		limiter = slots.NewLocal(cfg.Limits.MaxConcurrent)
	}

	converter := convertuc.New(handle, logger).
		WithInspector(preflight.New(cfg.Limits.MaxFileSizeBytes(), cfg.Limits.MaxPages)).
		WithLimiter(limiter, time.Duration(cfg.Limits.QueueTimeoutSec)*time.Second).
		WithTimeout(time.Duration(cfg.Limits.ConversionTimeoutSec) * time.Second)

	return &app{
		parser: parseuc.New(converter, render.New()),
		health: healthSvc,
		close:  closeFn,
	}, nil
}

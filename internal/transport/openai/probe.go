// Package openai checks the OpenAI-compatible vision endpoint the engine
// calls for picture descriptions.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ErrModelUnavailable is returned when the endpoint is down or does not serve the model.
var ErrModelUnavailable = errors.New("description model unavailable")

// ModelProbe verifies that a vision model is served.
type ModelProbe struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// Config holds the description endpoint settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewModelProbe creates a probe for an OpenAI-compatible endpoint (vLLM, Ollama, LM Studio).
func NewModelProbe(cfg *Config) *ModelProbe {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL

	l := cfg.Logger
	if l == nil {
		l = zap.NewNop()
	}
	return &ModelProbe{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: l,
	}
}

// CheckModel lists served models and fails unless the configured one is among them.
// ListModels is used rather than GetModel because not every server routes /models/{id}.
func (p *ModelProbe) CheckModel(ctx context.Context) error {
	start := time.Now()
	list, err := p.client.ListModels(ctx)
	if err != nil {
		return parseAPIError(err)
	}

	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	if !slices.Contains(ids, p.model) {
		return fmt.Errorf("model %q not served (available: %s): %w",
			p.model, strings.Join(ids, ", "), ErrModelUnavailable)
	}

	p.logger.Debug("Description model available",
		zap.String("model", p.model),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// HealthCheck fails when the API is down or no longer serves the model.
func (p *ModelProbe) HealthCheck(ctx context.Context) error {
	return p.CheckModel(ctx)
}

// parseAPIError extracts a human-readable error from the API response.
func parseAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("description API error %d: %s: %w",
			reqErr.HTTPStatusCode, detail, ErrModelUnavailable)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("description API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, ErrModelUnavailable)
	}

	return fmt.Errorf("description API request failed: %w: %w", ErrModelUnavailable, err)
}

// extractDetail extracts the "detail" field from a JSON error body (vLLM/FastAPI error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}

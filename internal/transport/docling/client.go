// Package docling talks to a docling-serve compatible conversion engine.
package docling

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docparse/internal/domain/conversion"
	"github.com/kailas-cloud/docparse/internal/domain/document"
	"github.com/kailas-cloud/docparse/internal/metrics"
	"github.com/kailas-cloud/docparse/internal/pipeline"
	"github.com/kailas-cloud/docparse/internal/samples"
)

const (
	convertPath  = "/v1/convert/source"
	healthPath   = "/health"
	maxErrorBody = 4 << 10
)

// Compile-time check: Client implements pipeline.Engine.
var _ pipeline.Engine = (*Client)(nil)

// Config holds the engine connection settings.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client is a pipeline.Engine backed by docling-serve.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates an engine client. Request lifetime is bounded by the
// caller's context; set HTTPClient.Timeout for a hard cap.
func NewClient(cfg *Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	l := cfg.Logger
	if l == nil {
		l = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    hc,
		logger:  l,
	}
}

// Convert sends src to the engine and decodes the result. A fatal status is
// not an error here: the result carries the status and error records.
func (c *Client) Convert(ctx context.Context, src conversion.Source, opts pipeline.Options) (*conversion.Result, error) {
	s, err := toWire(src)
	if err != nil {
		return nil, err
	}
	return c.convert(ctx, "convert", s, opts)
}

// Warm converts the built-in sample for format so the engine loads the
// models that format needs.
func (c *Client) Warm(ctx context.Context, format conversion.Format, opts pipeline.Options) error {
	name, data, err := samples.For(format)
	if err != nil {
		return fmt.Errorf("warm-up sample: %w", err)
	}

	res, err := c.convert(ctx, "warm", fileSource(name, data), opts)
	if err != nil {
		return err
	}
	if !res.Status.Usable() {
		msg := ""
		if len(res.Errors) > 0 {
			msg = ": " + res.Errors[0].Message
		}
		return fmt.Errorf("warm-up conversion of %s returned %s%s", name, res.Status, msg)
	}
	return nil
}

// HealthCheck calls the engine's health endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, http.NoBody)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.EngineRequestsTotal.WithLabelValues("health", "error").Inc()
		return fmt.Errorf("engine health: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		metrics.EngineRequestsTotal.WithLabelValues("health", "error").Inc()
		return fmt.Errorf("engine health: status %d", resp.StatusCode)
	}
	metrics.EngineRequestsTotal.WithLabelValues("health", "ok").Inc()
	return nil
}

func (c *Client) convert(ctx context.Context, op string, s source, opts pipeline.Options) (*conversion.Result, error) {
	body, err := json.Marshal(convertRequest{Options: buildOptions(opts), Sources: []source{s}})
	if err != nil {
		return nil, fmt.Errorf("encode convert request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+convertPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build convert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.EngineRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.EngineRequestsTotal.WithLabelValues(op, "error").Inc()
		return nil, fmt.Errorf("engine request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.EngineRequestsTotal.WithLabelValues(op, "error").Inc()
		return nil, parseHTTPError(resp)
	}

	var out convertResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		metrics.EngineRequestsTotal.WithLabelValues(op, "error").Inc()
		return nil, fmt.Errorf("decode engine response: %w", err)
	}
	metrics.EngineRequestsTotal.WithLabelValues(op, "ok").Inc()

	res := &conversion.Result{
		Status:         out.Status,
		Errors:         out.Errors,
		ProcessingTime: time.Duration(out.ProcessingTime * float64(time.Second)),
	}
	if !res.Status.Usable() {
		return res, nil
	}

	doc, err := document.Parse(out.Document.JSONContent)
	if err != nil {
		return nil, fmt.Errorf("engine returned %s without a usable document: %w", res.Status, err)
	}
	res.Document = doc

	c.logger.Debug("Engine conversion completed",
		zap.String("op", op),
		zap.String("filename", out.Document.Filename),
		zap.String("status", string(res.Status)),
		zap.Duration("processing_time", res.ProcessingTime),
	)
	return res, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
}

func toWire(src conversion.Source) (source, error) {
	switch src.Kind {
	case conversion.SourceURL:
		return source{Kind: "http", URL: src.Location}, nil
	case conversion.SourceStream:
		return fileSource(src.Filename, src.Data), nil
	case conversion.SourcePath:
		data, err := os.ReadFile(src.Location)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return source{}, fmt.Errorf("%s: %w", src.Location, conversion.ErrSourceNotFound)
			}
			return source{}, fmt.Errorf("read %s: %w", src.Location, err)
		}
		return fileSource(filepath.Base(src.Location), data), nil
	default:
		return source{}, fmt.Errorf("unsupported source kind %s", src.Kind)
	}
}

func fileSource(name string, data []byte) source {
	return source{
		Kind:         "file",
		Base64String: base64.StdEncoding.EncodeToString(data),
		Filename:     name,
	}
}

// parseHTTPError turns a non-200 engine response into an error. 404 means
// the engine could not fetch the source.
func parseHTTPError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	detail := extractDetail(raw)

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("engine: %s: %w", detail, conversion.ErrSourceNotFound)
	}
	return fmt.Errorf("engine returned %d: %s", resp.StatusCode, detail)
}

// extractDetail pulls FastAPI's "detail" out of an error body, falling back
// to the raw text.
func extractDetail(body []byte) string {
	var parsed errorResponse
	if json.Unmarshal(body, &parsed) == nil && len(parsed.Detail) > 0 {
		var s string
		if json.Unmarshal(parsed.Detail, &s) == nil {
			return s
		}
		return string(parsed.Detail)
	}
	return strings.TrimSpace(string(body))
}

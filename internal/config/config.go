package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/docparse/internal/domain/conversion"
	"github.com/kailas-cloud/docparse/internal/pipeline"
)

// Config holds the docparse service configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Auth        AuthConfig        `yaml:"auth"`
	Engine      EngineConfig      `yaml:"engine"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
	Limits      LimitsConfig      `yaml:"limits"`
	Coordinator CoordinatorConfig `yaml:"coordinator"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. No keys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// EngineConfig holds the conversion engine connection settings.
type EngineConfig struct {
	BaseURL          string `yaml:"base_url"`
	APIKey           string `yaml:"api_key"`
	WarmupTimeoutSec int    `yaml:"warmup_timeout_sec"`
}

// PipelineConfig holds the shared pipeline options. Unset flags default to true.
type PipelineConfig struct {
	OCREngine             string            `yaml:"ocr_engine"`
	OCRLanguages          string            `yaml:"ocr_languages"` // comma-separated
	ImageScale            float64           `yaml:"image_scale"`
	GeneratePictureImages *bool             `yaml:"generate_picture_images"`
	TableStructure        *bool             `yaml:"table_structure"`
	CodeEnrichment        *bool             `yaml:"code_enrichment"`
	FormulaEnrichment     *bool             `yaml:"formula_enrichment"`
	PictureClassification *bool             `yaml:"picture_classification"`
	PictureDescription    *bool             `yaml:"picture_description"`
	Description           DescriptionConfig `yaml:"description"`
	Formats               []string          `yaml:"formats"`
}

// DescriptionConfig holds picture description settings. An empty APIURL
// runs the model inside the engine.
type DescriptionConfig struct {
	Prompt       string `yaml:"prompt"`
	Model        string `yaml:"model"`
	APIURL       string `yaml:"api_url"`
	APIKey       string `yaml:"api_key"`
	MaxNewTokens int    `yaml:"max_new_tokens"`
}

// LimitsConfig holds per-request limits. Zero size and page limits mean unlimited.
type LimitsConfig struct {
	MaxFileSizeMB        int  `yaml:"max_file_size_mb"`
	MaxPages             int  `yaml:"max_pages"`
	MaxConcurrent        int  `yaml:"max_concurrent_conversions"`
	ConversionTimeoutSec int  `yaml:"conversion_timeout_sec"`
	QueueTimeoutSec      int  `yaml:"queue_timeout_sec"`
	AllowLocalPaths      bool `yaml:"allow_local_paths"`
}

// CoordinatorConfig selects where conversion slots live.
type CoordinatorConfig struct {
	Driver           string   `yaml:"driver"` // local, redis, valkey (default: local)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	SlotTTLSec       int      `yaml:"slot_ttl_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Load reads configuration from a YAML file by environment name (local, docker, prod).
// A .env file in the working directory is loaded first when present.
func Load(env string) (Config, error) {
	_ = godotenv.Load()

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML config data, expanding ${VAR} references, then applies
// defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	// unset ${API_KEY} references expand to empty strings
	keys := c.Auth.APIKeys[:0]
	for _, k := range c.Auth.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	c.Auth.APIKeys = keys

	if c.Limits.MaxConcurrent <= 0 {
		c.Limits.MaxConcurrent = 2
	}
	if c.Limits.ConversionTimeoutSec <= 0 {
		c.Limits.ConversionTimeoutSec = 300
	}
	if c.Limits.QueueTimeoutSec <= 0 {
		c.Limits.QueueTimeoutSec = 30
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 60
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = c.Limits.QueueTimeoutSec + c.Limits.ConversionTimeoutSec + 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Engine.WarmupTimeoutSec <= 0 {
		c.Engine.WarmupTimeoutSec = 1800
	}
	if c.Pipeline.OCREngine == "" {
		c.Pipeline.OCREngine = pipeline.DefaultOCREngine
	}
	if strings.TrimSpace(c.Pipeline.OCRLanguages) == "" {
		c.Pipeline.OCRLanguages = "en"
	}
	if c.Pipeline.ImageScale == 0 {
		c.Pipeline.ImageScale = pipeline.DefaultImageScale
	}
	if c.Pipeline.Description.Prompt == "" {
		c.Pipeline.Description.Prompt = pipeline.DefaultPrompt
	}
	if c.Pipeline.Description.Model == "" {
		c.Pipeline.Description.Model = pipeline.DefaultDescriptionModel
	}
	if c.Pipeline.Description.MaxNewTokens <= 0 {
		c.Pipeline.Description.MaxNewTokens = pipeline.DefaultMaxNewTokens
	}
	if c.Coordinator.Driver == "" {
		c.Coordinator.Driver = "local"
	}
	if c.Coordinator.SlotTTLSec <= 0 {
		c.Coordinator.SlotTTLSec = c.Limits.ConversionTimeoutSec + 60
	}
	if c.Coordinator.ReadinessTimeout <= 0 {
		c.Coordinator.ReadinessTimeout = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Engine.BaseURL == "" {
		return fmt.Errorf("engine.base_url is required")
	}
	if c.HTTP.WriteTimeoutSec <= c.Limits.ConversionTimeoutSec {
		return fmt.Errorf("http.write_timeout_sec (%d) must exceed limits.conversion_timeout_sec (%d)",
			c.HTTP.WriteTimeoutSec, c.Limits.ConversionTimeoutSec)
	}
	if c.Limits.MaxFileSizeMB < 0 || c.Limits.MaxPages < 0 {
		return fmt.Errorf("limits must not be negative")
	}
	if _, err := c.Pipeline.FormatList(); err != nil {
		return fmt.Errorf("pipeline.formats: %w", err)
	}
	opts := c.Pipeline.Options()
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	switch c.Coordinator.Driver {
	case "local":
	case "redis", "valkey":
		if len(c.Coordinator.Addrs) == 0 {
			return fmt.Errorf("coordinator.addrs is required for the %s driver", c.Coordinator.Driver)
		}
		if c.Coordinator.SlotTTLSec <= c.Limits.ConversionTimeoutSec {
			return fmt.Errorf("coordinator.slot_ttl_sec must exceed limits.conversion_timeout_sec")
		}
	default:
		return fmt.Errorf("coordinator.driver must be \"local\", \"redis\" or \"valkey\", got %q", c.Coordinator.Driver)
	}
	return nil
}

// Options converts the pipeline section into pipeline options.
func (p *PipelineConfig) Options() pipeline.Options {
	return pipeline.Options{
		OCREngine:             p.OCREngine,
		OCRLanguages:          pipeline.ParseLanguages(p.OCRLanguages),
		ImageScale:            p.ImageScale,
		GeneratePictureImages: boolOr(p.GeneratePictureImages, true),
		TableStructure:        boolOr(p.TableStructure, true),
		CodeEnrichment:        boolOr(p.CodeEnrichment, true),
		FormulaEnrichment:     boolOr(p.FormulaEnrichment, true),
		PictureClassification: boolOr(p.PictureClassification, true),
		PictureDescription:    boolOr(p.PictureDescription, true),
		Description: pipeline.Description{
			Prompt:       p.Description.Prompt,
			Model:        p.Description.Model,
			APIURL:       p.Description.APIURL,
			APIKey:       p.Description.APIKey,
			MaxNewTokens: p.Description.MaxNewTokens,
		},
	}
}

// FormatList parses the formats to warm. Empty means every supported format.
func (p *PipelineConfig) FormatList() ([]conversion.Format, error) {
	if len(p.Formats) == 0 {
		return conversion.AllFormats(), nil
	}
	out := make([]conversion.Format, 0, len(p.Formats))
	for _, s := range p.Formats {
		f, err := conversion.ParseFormat(s)
		if err != nil {
			return nil, err //nolint:wrapcheck // message names the format
		}
		out = append(out, f)
	}
	return out, nil
}

// MaxFileSizeBytes converts the size limit to bytes.
func (l *LimitsConfig) MaxFileSizeBytes() int64 {
	return int64(l.MaxFileSizeMB) << 20
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

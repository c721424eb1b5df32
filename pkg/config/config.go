// Package config provides configuration file support for Floorgraph.
// It handles loading, validation, and environment variable interpolation
// for floorgraph.yaml configuration files.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the full Floorgraph configuration.
type Config struct {
	Chunks    ChunksConfig    `mapstructure:"chunks"`
	Index     IndexConfig     `mapstructure:"index"`
	Ollama    OllamaConfig    `mapstructure:"ollama"`
	Products  ProductsConfig  `mapstructure:"products"`
	Server    ServerConfig    `mapstructure:"server"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ChunksConfig holds chunk store settings.
type ChunksConfig struct {
	Dir string `mapstructure:"dir"`
}

// IndexConfig holds embedding index settings.
type IndexConfig struct {
	Dir      string `mapstructure:"dir"`
	MaxChars int    `mapstructure:"max_chars"`
}

// OllamaConfig holds Ollama endpoint settings.
type OllamaConfig struct {
	URL        string        `mapstructure:"url"`
	EmbedModel string        `mapstructure:"embed_model"`
	ChatModel  string        `mapstructure:"chat_model"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// ProductsConfig holds product catalog lookup settings.
type ProductsConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	EditorVersion string        `mapstructure:"editor_version"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// TelemetryConfig holds observability settings.
type TelemetryConfig struct {
	Tracing TracingConfig `mapstructure:"tracing"`
}

// TracingConfig holds OpenTelemetry tracing settings.
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	Exporter   string  `mapstructure:"exporter"`
	Endpoint   string  `mapstructure:"endpoint"`
	SampleRate float64 `mapstructure:"sample_rate"`
	Insecure   bool    `mapstructure:"insecure"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Chunks: ChunksConfig{
			Dir: "chunks",
		},
		Index: IndexConfig{
			Dir:      "index",
			MaxChars: 1200,
		},
		Ollama: OllamaConfig{
			URL:        "http://localhost:11434",
			EmbedModel: "nomic-embed-text",
			ChatModel:  "llama3.1:8b",
			Timeout:    300 * time.Second,
		},
		Products: ProductsConfig{
			BaseURL: "https://search.floorplanner.com",
			Timeout: 15 * time.Second,
		},
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Telemetry: TelemetryConfig{
			Tracing: TracingConfig{
				Enabled:    false,
				Exporter:   "otlp",
				Endpoint:   "localhost:4317",
				SampleRate: 1.0,
				Insecure:   true,
			},
		},
	}
}

// Load reads configuration from the given viper instance and returns
// a validated Config. Environment variables in string values are
// interpolated using ${VAR} syntax.
func Load(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Interpolate environment variables in string fields
	interpolateConfig(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile reads a specific config file and returns a validated Config.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return Load(v)
}

// Validate checks the configuration for errors and returns a descriptive
// error if any field is invalid.
func Validate(cfg *Config) error {
	var errs []string

	// Chunk store validation
	if cfg.Chunks.Dir == "" {
		errs = append(errs, "chunks.dir: must not be empty")
	}

	// Index validation
	if cfg.Index.Dir == "" {
		errs = append(errs, "index.dir: must not be empty")
	}
	if cfg.Index.MaxChars < 0 {
		errs = append(errs, "index.max_chars: must be non-negative")
	}

	// Ollama validation
	if cfg.Ollama.URL == "" {
		errs = append(errs, "ollama.url: must not be empty")
	}
	if cfg.Ollama.EmbedModel == "" {
		errs = append(errs, "ollama.embed_model: must not be empty")
	}
	if cfg.Ollama.Timeout < 0 {
		errs = append(errs, "ollama.timeout: must be non-negative")
	}

	// Products validation
	if cfg.Products.Timeout < 0 {
		errs = append(errs, "products.timeout: must be non-negative")
	}

	// Server validation
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port: must be between 0 and 65535, got %d", cfg.Server.Port))
	}
	if cfg.Server.ReadTimeout < 0 {
		errs = append(errs, "server.read_timeout: must be non-negative")
	}
	if cfg.Server.WriteTimeout < 0 {
		errs = append(errs, "server.write_timeout: must be non-negative")
	}

	// Telemetry validation
	validExporters := map[string]bool{"otlp": true, "stdout": true, "none": true, "": true}
	if !validExporters[cfg.Telemetry.Tracing.Exporter] {
		errs = append(errs, fmt.Sprintf("telemetry.tracing.exporter: unsupported exporter %q (supported: otlp, stdout, none)", cfg.Telemetry.Tracing.Exporter))
	}
	if cfg.Telemetry.Tracing.SampleRate < 0 || cfg.Telemetry.Tracing.SampleRate > 1 {
		errs = append(errs, fmt.Sprintf("telemetry.tracing.sample_rate: must be between 0 and 1, got %f", cfg.Telemetry.Tracing.SampleRate))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// envVarPattern matches ${VAR} or ${VAR:-default} syntax.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// InterpolateEnv replaces ${VAR} and ${VAR:-default} patterns in a string
// with the corresponding environment variable values.
func InterpolateEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		if defaultVal != "" {
			return defaultVal
		}
		return match
	})
}

// interpolateConfig applies environment variable interpolation to all
// string fields in the config.
func interpolateConfig(cfg *Config) {
	cfg.Chunks.Dir = InterpolateEnv(cfg.Chunks.Dir)
	cfg.Index.Dir = InterpolateEnv(cfg.Index.Dir)
	cfg.Ollama.URL = InterpolateEnv(cfg.Ollama.URL)
	cfg.Ollama.EmbedModel = InterpolateEnv(cfg.Ollama.EmbedModel)
	cfg.Ollama.ChatModel = InterpolateEnv(cfg.Ollama.ChatModel)
	cfg.Products.BaseURL = InterpolateEnv(cfg.Products.BaseURL)
	cfg.Products.EditorVersion = InterpolateEnv(cfg.Products.EditorVersion)
	cfg.Server.Host = InterpolateEnv(cfg.Server.Host)
	cfg.Telemetry.Tracing.Exporter = InterpolateEnv(cfg.Telemetry.Tracing.Exporter)
	cfg.Telemetry.Tracing.Endpoint = InterpolateEnv(cfg.Telemetry.Tracing.Endpoint)
}

// GenerateTemplate returns a YAML template string with all available
// configuration options and their defaults, suitable for writing to
// a floorgraph.yaml file.
func GenerateTemplate() string {
	return `# Floorgraph Configuration

chunks:
  dir: chunks

index:
  dir: index
  max_chars: 1200

ollama:
  url: ${OLLAMA_URL:-http://localhost:11434}
  embed_model: nomic-embed-text
  chat_model: llama3.1:8b
  timeout: 300s

products:
  base_url: https://search.floorplanner.com
  editor_version: ""
  timeout: 15s

server:
  port: 8080
  host: 0.0.0.0
  read_timeout: 30s
  write_timeout: 60s

telemetry:
  tracing:
    enabled: false
    exporter: otlp       # otlp, stdout, or none
    endpoint: localhost:4317
    sample_rate: 1.0     # 0.0 to 1.0
    insecure: true
`
}

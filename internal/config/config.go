// Package config handles loading and validating Rekebisha configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

func init() {
	// Load .env file if it exists
	_ = godotenv.Load()
}

// Config is the root configuration for Rekebisha.
type Config struct {
	Provider      ProviderConfig       `yaml:"provider"`
	Loop          LoopConfig           `yaml:"loop"`
	Tools         ToolsConfig          `yaml:"tools"`
	Retry         RetryConfig          `yaml:"retry"`
	History       *HistoryConfig       `yaml:"history,omitempty"`       // nil = history disabled
	Observability *ObservabilityConfig `yaml:"observability,omitempty"` // nil = observability disabled
}

// ProviderConfig selects and configures the LLM backend.
type ProviderConfig struct {
	Name        string  `yaml:"name"`        // "mistral" (default) or "gemini".
	Model       string  `yaml:"model"`       // Model identifier. Default depends on provider.
	Temperature float64 `yaml:"temperature"` // Sampling temperature. Default: 0.7.
	MaxTokens   int     `yaml:"max_tokens"`  // Default: 4096.
	TimeoutS    int     `yaml:"timeout_s"`   // Per-call timeout. Default: 120.

	// API keys come from the environment only, never from the config file.
	MistralAPIKey string `yaml:"-"`
	GoogleAPIKey  string `yaml:"-"`
}

// LoopConfig bounds the remediation loop.
type LoopConfig struct {
	MaxIterations int `yaml:"max_iterations"` // Default: 10.
}

// ToolsConfig configures the external analysis and test tools.
type ToolsConfig struct {
	Python         string `yaml:"python"`           // Interpreter to invoke. Default: "python3".
	PylintTimeoutS int    `yaml:"pylint_timeout_s"` // Default: 30.
	TestTimeoutS   int    `yaml:"test_timeout_s"`   // Default: 60.
}

// RetryConfig bounds retries around provider calls.
type RetryConfig struct {
	MaxRetries  int `yaml:"max_retries"`   // Default: 3.
	BaseDelayMS int `yaml:"base_delay_ms"` // Default: 1000.
	MaxDelayMS  int `yaml:"max_delay_ms"`  // Default: 30000.
}

// HistoryConfig enables the persistent run-history store.
type HistoryConfig struct {
	Path string `yaml:"path"` // SQLite database file path.
}

// ObservabilityConfig enables metrics and tracing.
type ObservabilityConfig struct {
	MetricsAddr string         `yaml:"metrics_addr,omitempty"` // Prometheus listen address, e.g. ":9464". Empty = no listener.
	Tracing     *TracingConfig `yaml:"tracing,omitempty"`      // nil = tracing disabled.
}

// TracingConfig configures OTLP trace export.
type TracingConfig struct {
	Endpoint    string  `yaml:"endpoint"` // OTLP/HTTP collector endpoint, host:port.
	Insecure    bool    `yaml:"insecure"`
	SampleRate  float64 `yaml:"sample_rate"`  // Default: 1.0.
	ServiceName string  `yaml:"service_name"` // Default: "rekebisha".
}

// Default returns a Config with all defaults applied.
func Default() *Config {
	return &Config{
		Provider: ProviderConfig{
			Name:        "mistral",
			Model:       "mistral-large-latest",
			Temperature: 0.7,
			MaxTokens:   4096,
			TimeoutS:    120,
		},
		Loop:  LoopConfig{MaxIterations: 10},
		Tools: ToolsConfig{Python: "python3", PylintTimeoutS: 30, TestTimeoutS: 60},
		Retry: RetryConfig{MaxRetries: 3, BaseDelayMS: 1000, MaxDelayMS: 30000},
	}
}

// Load reads configuration from an optional YAML file, then applies
// environment overrides. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to env overrides
		case err != nil:
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("REKEBISHA_PROVIDER"); v != "" {
		c.Provider.Name = v
	}
	if v := os.Getenv("REKEBISHA_MODEL"); v != "" {
		c.Provider.Model = v
	}
	if v := os.Getenv("REKEBISHA_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Loop.MaxIterations = n
		}
	}
	if v := os.Getenv("REKEBISHA_PYTHON"); v != "" {
		c.Tools.Python = v
	}
	c.Provider.MistralAPIKey = os.Getenv("MISTRAL_API_KEY")
	c.Provider.GoogleAPIKey = os.Getenv("GOOGLE_API_KEY")
}

// Validate checks the configuration for internally consistent values.
func (c *Config) Validate() error {
	switch c.Provider.Name {
	case "mistral":
		if c.Provider.MistralAPIKey == "" {
			return fmt.Errorf("MISTRAL_API_KEY not set")
		}
	case "gemini":
		if c.Provider.GoogleAPIKey == "" {
			return fmt.Errorf("GOOGLE_API_KEY not set")
		}
	default:
		return fmt.Errorf("unknown provider %q (want mistral or gemini)", c.Provider.Name)
	}
	if c.Loop.MaxIterations < 1 {
		return fmt.Errorf("loop.max_iterations must be at least 1")
	}
	if c.Provider.Temperature < 0 || c.Provider.Temperature > 1 {
		return fmt.Errorf("provider.temperature must be between 0 and 1")
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative")
	}
	if c.Retry.BaseDelayMS <= 0 {
		return fmt.Errorf("retry.base_delay_ms must be positive")
	}
	if c.Retry.MaxDelayMS < c.Retry.BaseDelayMS {
		return fmt.Errorf("retry.max_delay_ms must be at least retry.base_delay_ms")
	}
	return nil
}

// PylintTimeout returns the pylint timeout as a duration.
func (c *Config) PylintTimeout() time.Duration {
	return time.Duration(c.Tools.PylintTimeoutS) * time.Second
}

// TestTimeout returns the test-run timeout as a duration.
func (c *Config) TestTimeout() time.Duration {
	return time.Duration(c.Tools.TestTimeoutS) * time.Second
}

// LLMTimeout returns the per-call provider timeout as a duration.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.Provider.TimeoutS) * time.Second
}

// BaseDelay returns the retry base delay as a duration.
func (c *Config) BaseDelay() time.Duration {
	return time.Duration(c.Retry.BaseDelayMS) * time.Millisecond
}

// MaxDelay returns the retry delay cap as a duration.
func (c *Config) MaxDelay() time.Duration {
	return time.Duration(c.Retry.MaxDelayMS) * time.Millisecond
}

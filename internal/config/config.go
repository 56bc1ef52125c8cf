// Package config loads the YAML configuration consumed by the run
// subcommand: model endpoint & credentials, the tool catalog
// enable-list, the compaction middleware parameters,
// max_turns, and tracer sinks.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration document.
type Config struct {
	LLM        LLMConfig        `yaml:"llm"`
	Tools      ToolsConfig      `yaml:"tools"`
	Middleware MiddlewareConfig `yaml:"middleware"`
	Loop       LoopConfig       `yaml:"loop"`
	Tracing    TracingConfig    `yaml:"tracing"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LLMConfig selects and configures the model provider.
type LLMConfig struct {
	// Provider selects the backend: "anthropic" or "openai".
	Provider  string `yaml:"provider"`
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

// ToolsConfig is the tool catalog enable-list.
type ToolsConfig struct {
	// Enabled lists the tool names whose schemas are advertised to the
	// model; every catalog tool is registered regardless. An empty list
	// advertises the full default catalog.
	Enabled []string `yaml:"enabled"`
	Shell   ShellConfig `yaml:"shell"`
}

// ShellConfig configures run_shell_command defaults.
type ShellConfig struct {
	DefaultTimeoutMS int `yaml:"default_timeout_ms"`
}

// MiddlewareConfig holds middleware tuning; it carries only the
// compactor's parameters and does not configure middleware order.
type MiddlewareConfig struct {
	Compaction CompactionConfig `yaml:"compaction"`
}

// CompactionConfig mirrors compaction.Config's tunables.
type CompactionConfig struct {
	MaxContextTokens int     `yaml:"max_context_tokens"`
	Threshold        float64 `yaml:"threshold"`
	ToolOutputBudget int     `yaml:"tool_output_budget"`
	TruncateLines    int     `yaml:"truncate_lines"`
	PreserveRatio    float64 `yaml:"preserve_ratio"`
	Aggressive       bool    `yaml:"aggressive"`
}

// LoopConfig controls the run() state machine's guards.
type LoopConfig struct {
	MaxTurns   int `yaml:"max_turns"`
	TimeoutSec int `yaml:"timeout_sec"`
}

// TracingConfig selects the tracer sink.
type TracingConfig struct {
	// Sink is "jsonl", "memory", or "none".
	Sink        string `yaml:"sink"`
	EnableOtel  bool   `yaml:"enable_otel"`
	EnableMetrics bool `yaml:"enable_metrics"`
}

// LoggingConfig controls structured log verbosity.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
}

// Load reads and parses a YAML config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Loop.MaxTurns <= 0 {
		c.Loop.MaxTurns = 50
	}
	if c.Middleware.Compaction.MaxContextTokens <= 0 {
		c.Middleware.Compaction.MaxContextTokens = 200_000
	}
	if c.Tracing.Sink == "" {
		c.Tracing.Sink = "jsonl"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

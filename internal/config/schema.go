package config

import "fmt"

// Config holds redline configuration.
// Loaded from config.yaml in the working directory or ~/.redline.
type Config struct {
	Provider ProviderCfg `mapstructure:"provider" yaml:"provider"`
	Models   ModelsCfg   `mapstructure:"models" yaml:"models"`
	Pipeline PipelineCfg `mapstructure:"pipeline" yaml:"pipeline"`
}

// ProviderCfg configures the OpenAI-compatible model endpoint.
type ProviderCfg struct {
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"`
	APIKey         string `mapstructure:"api_key" yaml:"api_key"` // supports ${ENV_VAR} syntax
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	RateLimit      int    `mapstructure:"rate_limit" yaml:"rate_limit"` // requests per minute
	MaxRetries     int    `mapstructure:"max_retries" yaml:"max_retries"`
}

// ModelsCfg selects the models for each call site.
type ModelsCfg struct {
	Text           string `mapstructure:"text" yaml:"text"`
	Vision         string `mapstructure:"vision" yaml:"vision"`
	VisionFallback string `mapstructure:"vision_fallback" yaml:"vision_fallback"`
}

// PipelineCfg tunes pipeline execution.
type PipelineCfg struct {
	MaxWorkers int `mapstructure:"max_workers" yaml:"max_workers"` // page extraction concurrency
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderCfg{
			BaseURL:        "https://openrouter.ai/api/v1",
			APIKey:         "${LLM_API_KEY}",
			TimeoutSeconds: 120,
			RateLimit:      60,
			MaxRetries:     3,
		},
		Models: ModelsCfg{
			Text:           "openai/gpt-4o",
			Vision:         "openai/gpt-4o",
			VisionFallback: "google/gemini-2.5-flash",
		},
		Pipeline: PipelineCfg{
			MaxWorkers: 8,
		},
	}
}

// ConfigError reports a missing or invalid configuration value. Raised
// before any network call is made.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s %s", e.Key, e.Reason)
}

// Validate checks that everything a pipeline run needs is present.
// API key references are resolved before this is called.
func (c *Config) Validate() error {
	if c.Provider.BaseURL == "" {
		return &ConfigError{Key: "provider.base_url", Reason: "is required"}
	}
	if c.Provider.APIKey == "" {
		return &ConfigError{Key: "provider.api_key", Reason: "is required (set LLM_API_KEY or configure api_key)"}
	}
	if c.Models.Text == "" {
		return &ConfigError{Key: "models.text", Reason: "is required"}
	}
	if c.Models.Vision == "" {
		return &ConfigError{Key: "models.vision", Reason: "is required"}
	}
	if c.Models.VisionFallback == "" {
		return &ConfigError{Key: "models.vision_fallback", Reason: "is required"}
	}
	if c.Pipeline.MaxWorkers < 1 {
		return &ConfigError{Key: "pipeline.max_workers", Reason: "must be at least 1"}
	}
	return nil
}

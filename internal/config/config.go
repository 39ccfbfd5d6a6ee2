// Package config provides configuration loading and structs for the
// embedserve server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Models   []ModelConfig  `yaml:"models"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// PipelineConfig holds transform pipeline settings.
type PipelineConfig struct {
	// DefaultModel is used when a request omits the model field.
	DefaultModel string `yaml:"default_model"`
	// BatchSize is the inference sub-batch size for large requests.
	BatchSize int `yaml:"batch_size"`
	// Truncate is the default policy for over-long inputs: truncate when
	// true, reject when false. Defaults to true when unset.
	Truncate *bool `yaml:"truncate"`
}

// TruncateOrDefault returns the truncation policy; defaults to true when unset.
func (p *PipelineConfig) TruncateOrDefault() bool {
	if p.Truncate != nil {
		return *p.Truncate
	}
	return true
}

// ModelConfig declares one model for the registry.
type ModelConfig struct {
	ID             string `yaml:"id"`
	Backend        string `yaml:"backend"` // onnx | openai | hash
	Path           string `yaml:"path"`    // onnx model file
	BaseURL        string `yaml:"base_url"`
	APIKeyEnv      string `yaml:"api_key_env"`
	Dimensions     int    `yaml:"dimensions"`
	MaxInputLength int    `yaml:"max_input_length"` // runes
	MaxTokens      int    `yaml:"max_tokens"`       // onnx tensor width
	CacheSize      int    `yaml:"cache_size"`       // text→vector memoization entries
	Preload        bool   `yaml:"preload"`          // load at startup
}

// Load reads and parses the config file at path, applies defaults, expands
// model paths, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	for i := range cfg.Models {
		if cfg.Models[i].Path != "" {
			cfg.Models[i].Path = expandPath(cfg.Models[i].Path, configDir)
		}
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the config for errors that must be fatal at startup.
func Validate(cfg *Config) error {
	if len(cfg.Models) == 0 {
		return fmt.Errorf("config: at least one model must be declared")
	}
	seen := make(map[string]bool, len(cfg.Models))
	for _, m := range cfg.Models {
		if m.ID == "" {
			return fmt.Errorf("config: model id must not be empty")
		}
		if seen[m.ID] {
			return fmt.Errorf("config: duplicate model id %q", m.ID)
		}
		seen[m.ID] = true
		switch m.Backend {
		case "onnx":
			if m.Path == "" {
				return fmt.Errorf("config: model %q: onnx backend requires path", m.ID)
			}
		case "openai":
			if m.APIKeyEnv == "" {
				return fmt.Errorf("config: model %q: openai backend requires api_key_env", m.ID)
			}
		case "hash":
		default:
			return fmt.Errorf("config: model %q: unknown backend %q", m.ID, m.Backend)
		}
		if m.Dimensions <= 0 {
			return fmt.Errorf("config: model %q: dimensions must be positive", m.ID)
		}
		if m.MaxInputLength <= 0 {
			return fmt.Errorf("config: model %q: max_input_length must be positive", m.ID)
		}
	}
	if cfg.Pipeline.DefaultModel != "" && !seen[cfg.Pipeline.DefaultModel] {
		return fmt.Errorf("config: default_model %q is not declared in models", cfg.Pipeline.DefaultModel)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home
// directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}

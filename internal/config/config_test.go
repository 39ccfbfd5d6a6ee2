package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
pipeline:
  default_model: mini
  batch_size: 50
models:
  - id: mini
    backend: hash
    dimensions: 8
    max_input_length: 128
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Pipeline.DefaultModel != "mini" || cfg.Pipeline.BatchSize != 50 {
		t.Errorf("unexpected pipeline config: %+v", cfg.Pipeline)
	}
	if !cfg.Pipeline.TruncateOrDefault() {
		t.Error("truncate should default to true when unset")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
models:
  - id: only
    backend: hash
    dimensions: 4
    max_input_length: 64
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 3000 {
		t.Errorf("server defaults: %+v", cfg.Server)
	}
	if cfg.Pipeline.BatchSize != 1000 {
		t.Errorf("batch_size default: %d", cfg.Pipeline.BatchSize)
	}
	if cfg.Pipeline.DefaultModel != "only" {
		t.Errorf("default_model should fall back to the first model, got %q", cfg.Pipeline.DefaultModel)
	}
	m := cfg.Models[0]
	if m.MaxTokens != 256 || m.CacheSize != 10000 {
		t.Errorf("model defaults: %+v", m)
	}
}

func TestLoad_StrictTruncateFalse(t *testing.T) {
	path := writeConfig(t, `
pipeline:
  truncate: false
models:
  - id: m
    backend: hash
    dimensions: 4
    max_input_length: 64
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Pipeline.TruncateOrDefault() {
		t.Error("truncate: false should disable truncation")
	}
}

func TestLoad_ExpandsModelPath(t *testing.T) {
	path := writeConfig(t, `
models:
  - id: m
    backend: onnx
    path: ./models/m.onnx
    dimensions: 4
    max_input_length: 64
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(filepath.Dir(path), "models/m.onnx")
	if cfg.Models[0].Path != want {
		t.Errorf("path: got %q, want %q", cfg.Models[0].Path, want)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no models", `server: {port: 1}`},
		{"duplicate id", `
models:
  - {id: m, backend: hash, dimensions: 4, max_input_length: 64}
  - {id: m, backend: hash, dimensions: 8, max_input_length: 64}
`},
		{"unknown backend", `
models:
  - {id: m, backend: tensorflow, dimensions: 4, max_input_length: 64}
`},
		{"onnx without path", `
models:
  - {id: m, backend: onnx, dimensions: 4, max_input_length: 64}
`},
		{"openai without key env", `
models:
  - {id: m, backend: openai, dimensions: 4, max_input_length: 64}
`},
		{"zero dimensions", `
models:
  - {id: m, backend: hash, max_input_length: 64}
`},
		{"zero max length", `
models:
  - {id: m, backend: hash, dimensions: 4}
`},
		{"default model not declared", `
pipeline: {default_model: ghost}
models:
  - {id: m, backend: hash, dimensions: 4, max_input_length: 64}
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			if _, err := Load(path); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

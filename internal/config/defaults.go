package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Pipeline.BatchSize == 0 {
		cfg.Pipeline.BatchSize = 1000
	}
	if cfg.Pipeline.DefaultModel == "" && len(cfg.Models) > 0 {
		cfg.Pipeline.DefaultModel = cfg.Models[0].ID
	}
	for i := range cfg.Models {
		m := &cfg.Models[i]
		if m.Backend == "" {
			m.Backend = "onnx"
		}
		if m.MaxTokens == 0 {
			m.MaxTokens = 256
		}
		if m.CacheSize == 0 {
			m.CacheSize = 10000
		}
		if m.BaseURL == "" && m.Backend == "openai" {
			m.BaseURL = "https://api.openai.com/v1"
		}
	}
}

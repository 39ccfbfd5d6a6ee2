// Package main is the embedserve CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/vectorlab/embedserve/internal/cli"
	"github.com/vectorlab/embedserve/internal/config"
	"github.com/vectorlab/embedserve/internal/embedding"
	"github.com/vectorlab/embedserve/internal/metrics"
	"github.com/vectorlab/embedserve/internal/modelcache"
	"github.com/vectorlab/embedserve/internal/models"
	"github.com/vectorlab/embedserve/internal/registry"
	"github.com/vectorlab/embedserve/internal/server"
	"github.com/vectorlab/embedserve/internal/transform"
	"github.com/vectorlab/embedserve/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/embedserve/config.yaml"
const defaultServerURL = "http://localhost:3000"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// Best effort: a missing .env file is not an error.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "embed":
		runEmbed()
	case "models":
		runModels()
	case "version", "--version", "-v":
		fmt.Printf("embedserve version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`embedserve - embedding inference service

Usage:
  embedserve server [-config path] [-debug]     start the HTTP server
  embedserve embed [flags] <text> [text...]     embed texts (each argument is one input)
  embedserve models [flags]                     list registered models
  embedserve version                            print version
  embedserve help                               show this help

Embed flags:
  -server URL    server to call (default ` + defaultServerURL + `; empty = run the model in-process)
  -config path   config file path (used when -server is empty)
  -model name    model identifier (default: server's default model)
  -normalize     request unit-norm vectors
  -output fmt    text or json`)
}

// components holds the initialized core, shared by server and direct CLI modes.
type components struct {
	Registry *registry.Registry
	Cache    *modelcache.Cache
	Pipeline *transform.Pipeline
	Metrics  *metrics.Metrics
}

// newLoader builds the loader closure for one configured model. The closure
// captures everything it needs; the cache invokes it with no arguments.
func newLoader(mc config.ModelConfig) registry.Loader {
	switch mc.Backend {
	case "onnx":
		return func() (embedding.Embedder, error) {
			return embedding.NewONNXEmbedder(mc.Path, mc.Dimensions, mc.MaxTokens, mc.CacheSize)
		}
	case "openai":
		return func() (embedding.Embedder, error) {
			return embedding.NewOpenAIEmbedder(mc.ID, mc.BaseURL, mc.APIKeyEnv, mc.Dimensions, mc.CacheSize)
		}
	case "hash":
		return func() (embedding.Embedder, error) {
			return embedding.NewHashEmbedder(mc.Dimensions), nil
		}
	default:
		return func() (embedding.Embedder, error) {
			return nil, fmt.Errorf("unknown backend %q", mc.Backend)
		}
	}
}

// initializeComponents builds the registry, cache, and pipeline from config.
func initializeComponents(cfg *config.Config, logger *zap.Logger) (*components, error) {
	reg := registry.New()
	for _, mc := range cfg.Models {
		err := reg.Register(&registry.Descriptor{
			ID:             mc.ID,
			Loader:         newLoader(mc),
			Dimensions:     mc.Dimensions,
			MaxInputLength: mc.MaxInputLength,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to register model %q: %w", mc.ID, err)
		}
	}

	m := metrics.New()
	cache := modelcache.New(reg,
		modelcache.WithLogger(logger),
		modelcache.WithLoadObserver(m.ObserveLoad),
	)
	pipeline := transform.New(reg, cache, &cfg.Pipeline, transform.WithLogger(logger))
	return &components{Registry: reg, Cache: cache, Pipeline: pipeline, Metrics: m}, nil
}

// preloadModels loads every model marked preload. Failures are logged and not
// fatal: the cache retries on first request.
func preloadModels(ctx context.Context, cfg *config.Config, cache *modelcache.Cache, logger *zap.Logger) {
	for _, mc := range cfg.Models {
		if !mc.Preload {
			continue
		}
		if _, err := cache.Get(ctx, mc.ID); err != nil {
			logger.Warn("preload failed, model stays lazily loadable",
				zap.String("model", mc.ID), zap.Error(err))
		}
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Int("models", len(cfg.Models)),
		zap.Bool("debug", debugMode),
	)

	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer comps.Cache.Close()

	srv := server.NewServer(comps.Pipeline, comps.Registry, comps.Cache, &cfg.Server, comps.Metrics, logger)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	preloadModels(context.Background(), cfg, comps.Cache, logger)
	srv.MarkReady()
	logger.Info("ready to serve traffic")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// embedArgsReorder moves any flags (and their values) that appear after the
// texts to the front of the slice so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument.
func embedArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// collectTexts drops blank positional args; each remaining arg is one input text.
func collectTexts(args []string) []string {
	var texts []string
	for _, a := range args {
		if strings.TrimSpace(a) != "" {
			texts = append(texts, a)
		}
	}
	return texts
}

func runEmbed() {
	embedArgs := embedArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("embed", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (used when -server is empty)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = run the model in-process)")
	model := fs.String("model", "", "model identifier (default: server's default model)")
	normalize := fs.Bool("normalize", false, "request unit-norm vectors")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(embedArgs)

	texts := collectTexts(fs.Args())
	if len(texts) == 0 {
		fmt.Fprintln(os.Stderr, "embed: at least one text argument is required")
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	req := &models.EmbeddingRequest{Input: texts, Model: *model, Normalize: *normalize}

	var resp *models.EmbeddingResponse
	if *serverURL != "" {
		resp, err = embedViaHTTP(*serverURL, req)
	} else {
		resp, err = embedDirect(*configPath, req)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embed failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteEmbeddings(os.Stdout, resp, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func embedViaHTTP(serverURL string, req *models.EmbeddingRequest) (*models.EmbeddingResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/v1/embeddings", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var out models.EmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

func embedDirect(configPath string, req *models.EmbeddingRequest) (*models.EmbeddingResponse, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return nil, err
	}
	defer logger.Sync()

	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer comps.Cache.Close()

	return comps.Pipeline.Transform(context.Background(), req)
}

func runModels() {
	fs := flag.NewFlagSet("models", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (used when -server is empty)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = read the local config)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var out models.ModelsResponse
	if *serverURL != "" {
		resp, err := http.Get(*serverURL + "/v1/models")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			fmt.Fprintf(os.Stderr, "Decode response failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		for _, mc := range cfg.Models {
			out.Models = append(out.Models, models.ModelStatus{
				Model:              mc.ID,
				MaxSeqLen:          mc.MaxInputLength,
				EmbeddingDimension: mc.Dimensions,
			})
		}
	}
	if err := cli.WriteModels(os.Stdout, &out, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// Package main is the Mizan CLI entry point.
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

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/mizanhq/mizan/internal/answer"
	"github.com/mizanhq/mizan/internal/config"
	"github.com/mizanhq/mizan/internal/embedding"
	"github.com/mizanhq/mizan/internal/extract"
	"github.com/mizanhq/mizan/internal/models"
	"github.com/mizanhq/mizan/internal/ocr"
	"github.com/mizanhq/mizan/internal/retriever"
	"github.com/mizanhq/mizan/internal/server"
	"github.com/mizanhq/mizan/internal/session"
	"github.com/mizanhq/mizan/internal/source"
	"github.com/mizanhq/mizan/internal/storage"
	"github.com/mizanhq/mizan/internal/vault"
	"github.com/mizanhq/mizan/internal/vector"
	"github.com/mizanhq/mizan/internal/watcher"
	"github.com/mizanhq/mizan/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/mizan/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so "mizan server" from the project dir picks up the project's
// config. Returns the config and the path that was actually loaded.
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
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ingest":
		runIngest()
	case "ask":
		runAsk()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("mizan version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
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
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	sess := session.NewSession()
	if err := components.Pipeline.Restore(context.Background(), sess); err != nil {
		logger.Warn("corpus restore failed", zap.Error(err))
	}

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var watchSvc *watcher.Watcher
	if cfg.Watch.Enabled && cfg.Source.Directory != "" && cfg.Source.Bucket == "" {
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		pipeline := components.Pipeline
		watchSvc = watcher.NewWatcher(
			cfg.Source.Directory,
			cfg.Source.Extensions,
			cfg.Watch.RecursiveOrDefault(),
			func() {
				if _, err := pipeline.Ingest(context.Background(), sess); err != nil {
					logger.Warn("watch re-ingestion failed", zap.Error(err))
				}
			},
			watchOpts...,
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
	}

	srv := server.NewServer(
		components.Pipeline,
		sess,
		components.Storage,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if watchSvc != nil {
		watchSvc.Stop()
	}
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = run ingestion directly)")
	_ = fs.Parse(os.Args[2:])

	if *serverURL != "" {
		resp, err := ingestViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ingestion failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Ingested %d page(s) from %d document(s) in %dms\n", resp.Pages, resp.Documents, resp.TimeMS)
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	sess := session.NewSession()
	stats, err := components.Pipeline.Ingest(context.Background(), sess)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingestion failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Ingested %d page(s) from %d document(s) in %s\n", stats.Pages, stats.Documents, stats.Elapsed.Round(time.Millisecond))
}

// buildQuery joins all positional args with spaces so multi-word questions
// work the same with or without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = run the pipeline directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: mizan ask [flags] <question>")
		os.Exit(1)
	}
	query := buildQuery(fs.Args())
	if query == "" {
		fmt.Println("Usage: mizan ask [flags] <question>")
		os.Exit(1)
	}

	var resp *models.AskResponse
	if *serverURL != "" {
		var err error
		resp, err = askViaHTTP(*serverURL, query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()

		components, err := initializeComponents(cfg, logger, cfg.Debug)
		if err != nil {
			logger.Fatal("Failed to initialize", zap.Error(err))
		}
		defer components.Close()

		ctx := context.Background()
		sess := session.NewSession()
		if err := components.Pipeline.Restore(ctx, sess); err != nil {
			fmt.Fprintf(os.Stderr, "Restore failed: %v\n", err)
			os.Exit(1)
		}
		if sess.PageCount() == 0 {
			if _, err := components.Pipeline.Ingest(ctx, sess); err != nil {
				fmt.Fprintf(os.Stderr, "Ingestion failed: %v\n", err)
				os.Exit(1)
			}
		}
		start := time.Now()
		ans, err := components.Pipeline.Ask(ctx, sess, query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
			os.Exit(1)
		}
		resp = &models.AskResponse{
			Answer:    ans,
			QueryTime: time.Since(start).Milliseconds(),
			Query:     query,
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Println(resp.Answer.Text)
		if len(resp.Answer.Citations) > 0 {
			fmt.Println()
			fmt.Println("Sources:")
			for _, c := range resp.Answer.Citations {
				fmt.Printf("  %s (P.%d)  distance=%.4f\n", c.Page.Source, c.Page.PageNumber, c.Distance)
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func askViaHTTP(serverURL, query string) (*models.AskResponse, error) {
	body, err := json.Marshal(models.AskRequest{Query: query})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/ask", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var out models.AskResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

func ingestViaHTTP(serverURL string) (*models.IngestResponse, error) {
	resp, err := http.Post(serverURL+"/api/v1/ingest", "application/json", nil)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var out models.IngestResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// statusResponse is the shape of GET /api/v1/status.
type statusResponse struct {
	Pages          int64                  `json:"pages"`
	Exchanges      int64                  `json:"exchanges"`
	DiskUsageBytes *int64                 `json:"disk_usage_bytes,omitempty"`
	Config         map[string]interface{} `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
		ctx := context.Background()
		pageCount, err := store.CountPages(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count pages failed: %v\n", err)
			os.Exit(1)
		}
		exchangeCount, err := store.CountExchanges(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count exchanges failed: %v\n", err)
			os.Exit(1)
		}
		status = statusResponse{
			Pages:     pageCount,
			Exchanges: exchangeCount,
			Config: map[string]interface{}{
				"embedding_provider": cfg.Embedding.Provider,
				"generation_model":   cfg.Generation.Model,
				"top_k":              cfg.Retrieval.TopK,
				"index_type":         cfg.Retrieval.IndexType,
				"faiss_available":    vector.IsFAISSAvailable(),
				"database_path":      cfg.Storage.DatabasePath,
			},
		}
		if diskBytes, err := storage.DiskUsageBytes(cfg.Storage.DatabasePath); err == nil {
			status.DiskUsageBytes = &diskBytes
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("pages:      %d   # pages in the active corpus\n", status.Pages)
		fmt.Printf("exchanges:  %d   # question/answer turns recorded\n", status.Exchanges)
		if status.DiskUsageBytes != nil {
			fmt.Printf("disk_usage_bytes: %d\n", *status.DiskUsageBytes)
		}
		if len(status.Config) > 0 {
			fmt.Println()
			fmt.Println("# configuration")
			for _, key := range []string{"embedding_provider", "generation_model", "top_k", "index_type", "faiss_available", "database_path"} {
				if v, ok := status.Config[key]; ok {
					fmt.Printf("%-20s%v\n", key+":", v)
				}
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

// Components holds initialized services.
type Components struct {
	Storage  storage.Storage
	Embedder embedding.Embedder
	Pipeline *session.Pipeline
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	embedder, err := newEmbedder(cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	awsCfg, awsErr := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.AWS.Region))

	src, err := newSource(cfg, awsErr == nil, awsCfg)
	if err != nil {
		_ = store.Close()
		_ = embedder.Close()
		return nil, err
	}

	extractOpts := []extract.Option{
		extract.WithScanThreshold(cfg.Extract.ScanThreshold),
		extract.WithLogger(logger),
	}
	if cfg.Extract.OCREnabled {
		if awsErr != nil {
			logger.Warn("OCR enabled but AWS config unavailable; continuing without OCR", zap.Error(awsErr))
		} else {
			extractOpts = append(extractOpts, extract.WithOCR(ocr.NewTextractClient(awsCfg)))
		}
	}
	switch {
	case cfg.Vault.Bucket != "" && awsErr == nil:
		extractOpts = append(extractOpts, extract.WithVault(vault.NewS3Vault(awsCfg, cfg.Vault.Bucket, cfg.Vault.Prefix)))
	case cfg.Vault.Directory != "":
		extractOpts = append(extractOpts, extract.WithVault(vault.NewDiskVault(cfg.Vault.Directory)))
	}
	extractor := extract.NewExtractor(extractOpts...)

	ret := retriever.New(embedder, vector.IndexType(cfg.Retrieval.IndexType), cfg.Retrieval.TopK, logger)

	gen, err := answer.NewGenerator(answer.GeneratorConfig{
		APIKey:  config.GeminiAPIKey(),
		Model:   cfg.Generation.Model,
		Timeout: time.Duration(cfg.Generation.TimeoutSeconds) * time.Second,
	}, logger)
	if err != nil {
		_ = store.Close()
		_ = embedder.Close()
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}

	pipeline := session.NewPipeline(src, extractor, ret, gen, store, logger)

	return &Components{
		Storage:  store,
		Embedder: embedder,
		Pipeline: pipeline,
	}, nil
}

// newEmbedder picks the embedding provider. The Gemini provider requires the
// API key; ONNX requires a local model; the mock provider keeps development
// working without either.
func newEmbedder(cfg *config.Config, logger *zap.Logger) (embedding.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "gemini":
		apiKey := config.GeminiAPIKey()
		if apiKey == "" {
			return nil, fmt.Errorf("embedding provider %q requires GEMINI_API_KEY", cfg.Embedding.Provider)
		}
		return embedding.NewGeminiEmbedder(embedding.GeminiConfig{
			APIKey:     apiKey,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			CacheSize:  cfg.Embedding.CacheSize,
		})
	case "onnx":
		onnxEmbedder, err := embedding.NewONNXEmbedder(
			cfg.Embedding.ModelPath,
			cfg.Embedding.Dimensions,
			cfg.Embedding.MaxTokens,
			cfg.Embedding.CacheSize,
		)
		if err != nil {
			logger.Warn("ONNX embedder unavailable, using mock embedder", zap.Error(err))
			return embedding.NewMockEmbedder(cfg.Embedding.Dimensions), nil
		}
		return onnxEmbedder, nil
	case "mock":
		return embedding.NewMockEmbedder(cfg.Embedding.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: gemini, onnx, mock)", cfg.Embedding.Provider)
	}
}

// newSource picks the document source: S3 when a bucket is configured,
// otherwise the local directory.
func newSource(cfg *config.Config, awsAvailable bool, awsCfg aws.Config) (source.Source, error) {
	if cfg.Source.Bucket != "" {
		if !awsAvailable {
			return nil, fmt.Errorf("source bucket configured but AWS config unavailable")
		}
		return source.NewS3Source(awsCfg, cfg.Source.Bucket, cfg.Source.Prefix, cfg.Source.Extensions), nil
	}
	if cfg.Source.Directory == "" {
		return nil, fmt.Errorf("no document source configured: set source.directory or source.bucket")
	}
	return source.NewFilesystemSource(cfg.Source.Directory, cfg.Source.Extensions), nil
}

func printUsage() {
	fmt.Println(`mizan - Grounded question answering over legal documents

Usage:
  mizan server [flags]          Start the HTTP server
  mizan ingest [flags]          Ingest documents into the corpus
  mizan ask [flags] <question>  Ask a question over the corpus
  mizan status [flags]          Show corpus/history status
  mizan version                 Show version
  mizan help                    Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/mizan/config.yaml)
  --debug            Enable debug logging

Ingest Flags:
  --config string    Config file path
  --server string    Server URL (empty = run ingestion directly)

Ask Flags:
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to run the pipeline directly.
  --output string    Output format: text or json (default: text)

Status Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --output string    Output format: text or json (default: text)

Environment:
  GEMINI_API_KEY     API key for embedding and answer generation
  AWS credentials    Resolved by the standard AWS chain (for S3/Textract)

Examples:
  mizan server
  mizan ingest
  mizan ask "What is the notice period for termination?"
  mizan ask --output json "ما هي مدة الإشعار لإنهاء العقد؟"
  mizan status --output json`)
}

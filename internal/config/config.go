// Package config provides configuration loading and structs for the Mizan server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application. Secrets (the Gemini API
// key, AWS credentials) are read from the environment, never from this file.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Source     SourceConfig     `yaml:"source"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Extract    ExtractConfig    `yaml:"extract"`
	Vault      VaultConfig      `yaml:"vault"`
	Watch      WatchConfig      `yaml:"watch"`
	AWS        AWSConfig        `yaml:"aws"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the path for the history/corpus database.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// SourceConfig selects where documents are ingested from. When Bucket is set
// the S3 source is used; otherwise Directory is walked.
type SourceConfig struct {
	Directory  string   `yaml:"directory"`
	Extensions []string `yaml:"extensions"`
	Bucket     string   `yaml:"bucket"`
	Prefix     string   `yaml:"prefix"`
}

// EmbeddingConfig holds embedder settings. Provider is "gemini", "onnx", or
// "mock". ModelPath and MaxTokens apply to the ONNX provider only.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	ModelPath  string `yaml:"model_path"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// GenerationConfig holds generation service settings.
type GenerationConfig struct {
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// RetrievalConfig holds retrieval settings.
type RetrievalConfig struct {
	TopK      int    `yaml:"top_k"`
	IndexType string `yaml:"index_type"`
}

// ExtractConfig holds extraction settings. ScanThreshold is the trimmed text
// length below which a page is treated as likely scanned and sent to OCR.
type ExtractConfig struct {
	ScanThreshold int  `yaml:"scan_threshold"`
	OCREnabled    bool `yaml:"ocr_enabled"`
}

// VaultConfig holds the optional archive target for original document bytes.
// When Bucket is set, originals go to S3; when Directory is set, to disk;
// when both are empty, archiving is off.
type VaultConfig struct {
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Directory string `yaml:"directory"`
}

// WatchConfig holds source-directory watch settings.
type WatchConfig struct {
	Enabled   bool  `yaml:"enabled"`
	Recursive *bool `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// AWSConfig holds region settings for the S3 and Textract collaborators.
type AWSConfig struct {
	Region string `yaml:"region"`
}

// GeminiAPIKey returns the generation/embedding service API key from the
// environment. Empty when unset.
func GeminiAPIKey() string {
	return os.Getenv("GEMINI_API_KEY")
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
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
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	}
	if cfg.Source.Directory != "" {
		cfg.Source.Directory = expandPath(cfg.Source.Directory, configDir)
	}
	if cfg.Vault.Directory != "" {
		cfg.Vault.Directory = expandPath(cfg.Vault.Directory, configDir)
	}

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
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

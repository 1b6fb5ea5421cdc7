package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Default configuration values for the Gemini embedder.
const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel   = "text-embedding-004"
	DefaultGeminiTimeout = 60 * time.Second
)

// geminiBatchLimit is the maximum number of texts per batchEmbedContents request.
const geminiBatchLimit = 100

// GeminiConfig holds configuration for the Gemini embedding service.
type GeminiConfig struct {
	// APIKey is the Generative Language API key (required).
	APIKey string

	// BaseURL is the API base URL (default: the public v1beta endpoint).
	BaseURL string

	// Model is the embedding model (default: text-embedding-004, multilingual).
	Model string

	// Dimensions is the output dimension (default: 768 for text-embedding-004).
	Dimensions int

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// CacheSize is the LRU cache capacity; 0 disables caching.
	CacheSize int
}

// GeminiEmbedder generates embeddings using the Gemini batchEmbedContents API.
type GeminiEmbedder struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	cache      *Cache
}

// geminiContent is a single content payload with text parts.
type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

// geminiEmbedRequest is one entry of a batchEmbedContents request.
type geminiEmbedRequest struct {
	Model   string        `json:"model"`
	Content geminiContent `json:"content"`
}

// geminiBatchEmbedRequest is the batchEmbedContents request body.
type geminiBatchEmbedRequest struct {
	Requests []geminiEmbedRequest `json:"requests"`
}

// geminiBatchEmbedResponse is the batchEmbedContents response body.
type geminiBatchEmbedResponse struct {
	Embeddings []struct {
		Values []float32 `json:"values"`
	} `json:"embeddings"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// NewGeminiEmbedder creates a Gemini embedder.
func NewGeminiEmbedder(cfg GeminiConfig) (*GeminiEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGeminiBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = 768
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultGeminiTimeout
	}
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}
	return &GeminiEmbedder{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		cache:      cache,
	}, nil
}

// Embed returns the embedding for a single text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in API-sized batches, serving cached entries without
// a network call. Order of the result matches the order of texts.
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	var missing []int
	for i, text := range texts {
		if e.cache != nil {
			if cached, ok := e.cache.Get(text); ok {
				vectors[i] = cached
				continue
			}
		}
		missing = append(missing, i)
	}

	for start := 0; start < len(missing); start += geminiBatchLimit {
		end := start + geminiBatchLimit
		if end > len(missing) {
			end = len(missing)
		}
		batch := missing[start:end]
		embedded, err := e.embedBatchRequest(ctx, texts, batch)
		if err != nil {
			return nil, err
		}
		for j, idx := range batch {
			vectors[idx] = embedded[j]
			if e.cache != nil {
				e.cache.Set(texts[idx], embedded[j])
			}
		}
	}
	return vectors, nil
}

// embedBatchRequest issues one batchEmbedContents call for the texts at the
// given indices and returns their vectors in the same order.
func (e *GeminiEmbedder) embedBatchRequest(ctx context.Context, texts []string, indices []int) ([][]float32, error) {
	reqBody := geminiBatchEmbedRequest{Requests: make([]geminiEmbedRequest, len(indices))}
	for i, idx := range indices {
		reqBody.Requests[i] = geminiEmbedRequest{
			Model:   "models/" + e.model,
			Content: geminiContent{Parts: []geminiPart{{Text: texts[idx]}}},
		}
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("gemini: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:batchEmbedContents?key=%s", e.baseURL, e.model, e.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("gemini: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gemini: read response: %w", err)
	}

	var out geminiBatchEmbedResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("gemini: decode response: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("gemini: API error %d: %s", out.Error.Code, out.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini: unexpected status %d", resp.StatusCode)
	}
	if len(out.Embeddings) != len(indices) {
		return nil, fmt.Errorf("gemini: expected %d embeddings, got %d", len(indices), len(out.Embeddings))
	}

	vectors := make([][]float32, len(indices))
	for i, emb := range out.Embeddings {
		if len(emb.Values) != e.dimensions {
			return nil, fmt.Errorf("gemini: embedding dimension mismatch: got %d, expected %d", len(emb.Values), e.dimensions)
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}

// Dimensions returns the embedding dimension.
func (e *GeminiEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for GeminiEmbedder.
func (e *GeminiEmbedder) Close() error {
	return nil
}

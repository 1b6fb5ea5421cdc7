// Package answer generates grounded answers from retrieved pages.
package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mizanhq/mizan/internal/models"
	"go.uber.org/zap"
)

// Default configuration values for the Gemini generator.
const (
	DefaultGenerateBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGenerateModel   = "gemini-2.5-flash-preview-09-2025"
	DefaultGenerateTimeout = 25 * time.Second
)

// answerErrorMessage is returned verbatim whenever generation fails for any
// reason. Callers treat it as a normal answer; the failure detail goes to the
// log, not the user.
const answerErrorMessage = "⚠️ Error connecting to AI Service. Please check your API key."

// GeneratorConfig holds configuration for the Gemini answer generator.
type GeneratorConfig struct {
	// APIKey is the Generative Language API key (required).
	APIKey string

	// BaseURL is the API base URL (default: the public v1beta endpoint).
	BaseURL string

	// Model is the generation model.
	Model string

	// Timeout bounds a single generation call (default: 25s).
	Timeout time.Duration
}

// Generator produces answers through the Gemini generateContent API. Generate
// never returns an error: any failure yields the fixed service-error message
// so the conversation flow survives outages.
type Generator struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
	logger  *zap.Logger
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generatePart struct {
	Text string `json:"text"`
}

type generateRequest struct {
	SystemInstruction *generateContent  `json:"systemInstruction,omitempty"`
	Contents          []generateContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content generateContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// NewGenerator creates a Gemini answer generator.
func NewGenerator(cfg GeneratorConfig, logger *zap.Logger) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("generator: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGenerateBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGenerateModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultGenerateTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		logger:  logger,
	}, nil
}

// Generate returns a grounded answer for query over matches. Failures are
// logged and replaced by the fixed service-error message.
func (g *Generator) Generate(ctx context.Context, query string, matches []models.Match) string {
	text, err := g.generate(ctx, query, matches)
	if err != nil {
		g.logger.Warn("answer generation failed", zap.Error(err))
		return answerErrorMessage
	}
	return text
}

func (g *Generator) generate(ctx context.Context, query string, matches []models.Match) (string, error) {
	reqBody := generateRequest{
		SystemInstruction: &generateContent{
			Parts: []generatePart{{Text: selectSystemInstruction(query)}},
		},
		Contents: []generateContent{
			{Parts: []generatePart{{Text: buildUserPrompt(query, matches)}}},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("API error %d: %s", out.Error.Code, out.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty candidates in response")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

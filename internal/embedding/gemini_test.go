package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newFakeGemini(t *testing.T, dims int, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		var req geminiBatchEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		var resp geminiBatchEmbedResponse
		for i := range req.Requests {
			values := make([]float32, dims)
			values[0] = float32(i + 1)
			resp.Embeddings = append(resp.Embeddings, struct {
				Values []float32 `json:"values"`
			}{Values: values})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestGeminiEmbedder_EmbedBatch(t *testing.T) {
	var calls int32
	srv := newFakeGemini(t, 4, &calls)
	defer srv.Close()

	e, err := NewGeminiEmbedder(GeminiConfig{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		Dimensions: 4,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	vecs, err := e.EmbedBatch(context.Background(), []string{"alpha", "beta"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vecs))
	}
	if vecs[0][0] != 1 || vecs[1][0] != 2 {
		t.Errorf("vectors out of order: %v %v", vecs[0][0], vecs[1][0])
	}
	if e.Dimensions() != 4 {
		t.Errorf("Dimensions=%d", e.Dimensions())
	}
}

func TestGeminiEmbedder_CacheAvoidsSecondCall(t *testing.T) {
	var calls int32
	srv := newFakeGemini(t, 4, &calls)
	defer srv.Close()

	e, err := NewGeminiEmbedder(GeminiConfig{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		Dimensions: 4,
		CacheSize:  10,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	ctx := context.Background()
	if _, err := e.EmbedBatch(ctx, []string{"alpha", "beta"}); err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected 1 API call, got %d", got)
	}
	if _, err := e.EmbedBatch(ctx, []string{"alpha", "beta"}); err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected cached batch to avoid API call, got %d calls", got)
	}
}

func TestGeminiEmbedder_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"code": 403, "message": "API key not valid", "status": "PERMISSION_DENIED"},
		})
	}))
	defer srv.Close()

	e, err := NewGeminiEmbedder(GeminiConfig{APIKey: "bad-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Embed(context.Background(), "text"); err == nil {
		t.Error("expected error from API error response")
	}
}

func TestGeminiEmbedder_DimensionMismatch(t *testing.T) {
	var calls int32
	srv := newFakeGemini(t, 3, &calls)
	defer srv.Close()

	e, err := NewGeminiEmbedder(GeminiConfig{APIKey: "test-key", BaseURL: srv.URL, Dimensions: 768})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Embed(context.Background(), "text"); err == nil {
		t.Error("expected error for mismatched embedding dimension")
	}
}

func TestGeminiEmbedder_RequiresAPIKey(t *testing.T) {
	if _, err := NewGeminiEmbedder(GeminiConfig{}); err == nil {
		t.Error("expected error when API key is missing")
	}
}

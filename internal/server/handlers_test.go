package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mizanhq/mizan/internal/config"
	"github.com/mizanhq/mizan/internal/models"
	"github.com/mizanhq/mizan/internal/session"
	"github.com/mizanhq/mizan/internal/source"
	"go.uber.org/zap"
)

type fakeSource struct {
	refs    []source.DocumentRef
	content map[string][]byte
}

func (f *fakeSource) List(ctx context.Context) ([]source.DocumentRef, error) {
	return f.refs, nil
}

func (f *fakeSource) Fetch(ctx context.Context, ref source.DocumentRef) ([]byte, error) {
	return f.content[ref.Name], nil
}

type fakeExtractor struct{}

func (fakeExtractor) Extract(ctx context.Context, name string, content []byte) ([]models.Page, error) {
	return []models.Page{{Source: name, PageNumber: 1, Content: string(content)}}, nil
}

type fakeRetriever struct{}

func (fakeRetriever) Retrieve(ctx context.Context, pages []models.Page, query string) ([]models.Match, error) {
	n := 3
	if n > len(pages) {
		n = len(pages)
	}
	matches := make([]models.Match, n)
	for i := 0; i < n; i++ {
		matches[i] = models.Match{Page: pages[i], Distance: float64(i)}
	}
	return matches, nil
}

type fakeGenerator struct{ text string }

func (f fakeGenerator) Generate(ctx context.Context, query string, matches []models.Match) string {
	return f.text
}

func newTestServer(t *testing.T, src *fakeSource) (*Server, *session.Session) {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	sess := session.NewSession()
	pipeline := session.NewPipeline(src, fakeExtractor{}, fakeRetriever{}, fakeGenerator{text: "generated answer"}, nil, zap.NewNop())
	return NewServer(pipeline, sess, nil, cfg, zap.NewNop()), sess
}

func docSource() *fakeSource {
	return &fakeSource{
		refs:    []source.DocumentRef{{Name: "a.txt"}, {Name: "b.txt"}},
		content: map[string][]byte{"a.txt": []byte("alpha"), "b.txt": []byte("beta")},
	}
}

func TestHandleAsk_BadRequest(t *testing.T) {
	srv, _ := newTestServer(t, docSource())
	router := srv.Router()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", bytes.NewBufferString("not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status=%d", w.Code)
	}
}

func TestHandleAsk_EmptyQuery(t *testing.T) {
	srv, _ := newTestServer(t, docSource())
	router := srv.Router()

	body, _ := json.Marshal(models.AskRequest{Query: ""})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status=%d", w.Code)
	}
}

func TestHandleAsk_NoDocuments(t *testing.T) {
	srv, _ := newTestServer(t, docSource())
	router := srv.Router()

	body, _ := json.Marshal(models.AskRequest{Query: "anything"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestHandleIngestThenAsk(t *testing.T) {
	srv, sess := newTestServer(t, docSource())
	router := srv.Router()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("ingest status=%d body=%s", w.Code, w.Body.String())
	}
	var ingest models.IngestResponse
	if err := json.Unmarshal(w.Body.Bytes(), &ingest); err != nil {
		t.Fatal(err)
	}
	if ingest.Pages != 2 || ingest.Documents != 2 {
		t.Errorf("ingest=%+v", ingest)
	}
	if sess.PageCount() != 2 {
		t.Errorf("session pages=%d", sess.PageCount())
	}

	body, _ := json.Marshal(models.AskRequest{Query: "what is alpha?"})
	req = httptest.NewRequest(http.MethodPost, "/api/v1/ask", bytes.NewReader(body))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("ask status=%d body=%s", w.Code, w.Body.String())
	}
	var ask models.AskResponse
	if err := json.Unmarshal(w.Body.Bytes(), &ask); err != nil {
		t.Fatal(err)
	}
	if ask.Answer.Text != "generated answer" {
		t.Errorf("answer=%q", ask.Answer.Text)
	}
	if len(ask.Answer.Citations) != 2 {
		t.Errorf("expected 2 citations, got %d", len(ask.Answer.Citations))
	}
	if ask.Query != "what is alpha?" {
		t.Errorf("query echo=%q", ask.Query)
	}
}

func TestHandlePages(t *testing.T) {
	srv, sess := newTestServer(t, docSource())
	sess.ReplaceCorpus([]models.Page{{Source: "x.txt", PageNumber: 1, Content: "x"}})
	router := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pages", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var resp struct {
		Count int           `json:"count"`
		Pages []models.Page `json:"pages"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 1 || len(resp.Pages) != 1 {
		t.Errorf("resp=%+v", resp)
	}
}

func TestHandleHistory_FromSession(t *testing.T) {
	srv, sess := newTestServer(t, docSource())
	sess.ReplaceCorpus([]models.Page{{Source: "x.txt", PageNumber: 1, Content: "x"}})
	router := srv.Router()

	body, _ := json.Marshal(models.AskRequest{Query: "q"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", bytes.NewReader(body))
	router.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var resp struct {
		Exchanges []models.Exchange `json:"exchanges"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Exchanges) != 1 || resp.Exchanges[0].Query != "q" {
		t.Errorf("exchanges=%+v", resp.Exchanges)
	}
}

func TestHandleStatus(t *testing.T) {
	srv, sess := newTestServer(t, docSource())
	sess.ReplaceCorpus([]models.Page{{Source: "x.txt", PageNumber: 1, Content: "x"}})
	router := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["pages"].(float64) != 1 {
		t.Errorf("pages=%v", resp["pages"])
	}
	if _, ok := resp["config"]; !ok {
		t.Error("status missing config section")
	}
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t, docSource())
	router := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status=%d", w.Code)
	}
}

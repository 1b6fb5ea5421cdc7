package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mizanhq/mizan/internal/models"
	"github.com/mizanhq/mizan/internal/source"
	"github.com/mizanhq/mizan/internal/storage"
)

// ErrNoDocuments is returned by Ask when the session corpus is empty. The
// caller surfaces it as guidance to ingest first; no embedding or generation
// work happens on this path.
var ErrNoDocuments = errors.New("no documents have been ingested")

// Extractor converts one document's bytes into ordered page records.
type Extractor interface {
	Extract(ctx context.Context, name string, content []byte) ([]models.Page, error)
}

// Retriever ranks corpus pages against a query.
type Retriever interface {
	Retrieve(ctx context.Context, pages []models.Page, query string) ([]models.Match, error)
}

// Generator produces an answer string from a query and its retrieved matches.
// It never fails; degraded output is an answer, not an error.
type Generator interface {
	Generate(ctx context.Context, query string, matches []models.Match) string
}

// IngestStats summarizes one ingestion run.
type IngestStats struct {
	Documents int
	Pages     int
	Elapsed   time.Duration
}

// Pipeline wires the collaborators of the ask/ingest flow. store is optional;
// when present, corpus and history survive restarts, and persistence failures
// degrade to logs rather than failing the operation.
type Pipeline struct {
	source    source.Source
	extractor Extractor
	retriever Retriever
	generator Generator
	store     storage.Storage
	logger    *zap.Logger
}

// NewPipeline creates a Pipeline. store may be nil for a memory-only session.
func NewPipeline(src source.Source, ext Extractor, ret Retriever, gen Generator, store storage.Storage, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		source:    src,
		extractor: ext,
		retriever: ret,
		generator: gen,
		store:     store,
		logger:    logger,
	}
}

// Ingest lists every document in the source, extracts its pages, and replaces
// the session corpus with the result. A document that fails to fetch or
// extract is skipped with a log line; the rest of the run continues. The
// replacement happens even when the result is empty.
func (p *Pipeline) Ingest(ctx context.Context, s *Session) (*IngestStats, error) {
	s.ops.Lock()
	defer s.ops.Unlock()
	start := time.Now()

	refs, err := p.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	var corpus []models.Page
	documents := 0
	for _, ref := range refs {
		content, err := p.source.Fetch(ctx, ref)
		if err != nil {
			p.logger.Warn("skipping document: fetch failed",
				zap.String("document", ref.Name), zap.Error(err))
			continue
		}
		pages, err := p.extractor.Extract(ctx, ref.Name, content)
		if err != nil {
			p.logger.Warn("skipping document: extraction failed",
				zap.String("document", ref.Name), zap.Error(err))
			continue
		}
		for i := range pages {
			pages[i].OriginLink = ref.Link
		}
		corpus = append(corpus, pages...)
		documents++
	}

	s.ReplaceCorpus(corpus)

	if p.store != nil {
		if err := p.store.ReplacePages(ctx, corpus); err != nil {
			p.logger.Warn("persisting corpus failed", zap.Error(err))
		}
	}

	stats := &IngestStats{
		Documents: documents,
		Pages:     len(corpus),
		Elapsed:   time.Since(start),
	}
	p.logger.Info("ingestion complete",
		zap.Int("documents", stats.Documents),
		zap.Int("pages", stats.Pages),
		zap.Duration("elapsed", stats.Elapsed))
	return stats, nil
}

// Ask answers query against the session corpus. The empty-corpus case is
// checked first so no embedding or generation work is spent on it. Citations
// on the returned answer are exactly the retrieved matches, in retrieval
// order, regardless of what the generated text mentions.
func (p *Pipeline) Ask(ctx context.Context, s *Session, query string) (models.Answer, error) {
	s.ops.Lock()
	defer s.ops.Unlock()

	pages := s.Pages()
	if len(pages) == 0 {
		return models.Answer{}, ErrNoDocuments
	}

	matches, err := p.retriever.Retrieve(ctx, pages, query)
	if err != nil {
		return models.Answer{}, fmt.Errorf("retrieve: %w", err)
	}

	text := p.generator.Generate(ctx, query, matches)
	ans := models.Answer{Text: text, Citations: matches}

	ex := models.Exchange{
		ID:        uuid.New().String(),
		Query:     query,
		Answer:    ans,
		CreatedAt: time.Now(),
	}
	s.AppendExchange(ex)
	if p.store != nil {
		if err := p.store.SaveExchange(ctx, &ex); err != nil {
			p.logger.Warn("persisting exchange failed", zap.Error(err))
		}
	}
	return ans, nil
}

// Restore reloads a persisted corpus into the session. Called at startup when
// storage is configured; a missing or empty table leaves the session empty.
func (p *Pipeline) Restore(ctx context.Context, s *Session) error {
	s.ops.Lock()
	defer s.ops.Unlock()
	if p.store == nil {
		return nil
	}
	pages, err := p.store.ListPages(ctx)
	if err != nil {
		return fmt.Errorf("restore corpus: %w", err)
	}
	if len(pages) > 0 {
		s.ReplaceCorpus(pages)
		p.logger.Info("corpus restored", zap.Int("pages", len(pages)))
	}
	return nil
}

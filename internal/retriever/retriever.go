// Package retriever ranks corpus pages against a query by embedding distance.
package retriever

import (
	"context"
	"fmt"

	"github.com/mizanhq/mizan/internal/embedding"
	"github.com/mizanhq/mizan/internal/models"
	"github.com/mizanhq/mizan/internal/vector"
	"github.com/mizanhq/mizan/pkg/utils"
	"go.uber.org/zap"
)

// DefaultTopK is the number of pages retrieved per query.
const DefaultTopK = 3

// Retriever embeds the corpus and the query, then returns the TopK nearest
// pages by squared Euclidean distance. The vector index is built fresh for
// every call and discarded afterwards; nothing is shared between queries, so
// a corpus replaced between two calls is fully reflected in the second.
type Retriever struct {
	embedder  embedding.Embedder
	indexType vector.IndexType
	topK      int
	logger    *zap.Logger
}

// New creates a Retriever. topK <= 0 falls back to DefaultTopK.
func New(embedder embedding.Embedder, indexType vector.IndexType, topK int, logger *zap.Logger) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{
		embedder:  embedder,
		indexType: indexType,
		topK:      topK,
		logger:    logger,
	}
}

// Retrieve returns up to TopK matches for query over pages, ordered by
// ascending distance. Ties keep corpus order. The caller guarantees pages is
// non-empty; retrieval over an empty corpus is a caller bug, not a degraded
// path, and returns an error.
func (r *Retriever) Retrieve(ctx context.Context, pages []models.Page, query string) ([]models.Match, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("retrieve: empty corpus")
	}

	texts := make([]string, len(pages))
	for i, p := range pages {
		texts[i] = p.Content
	}
	vectors, err := r.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed corpus: %w", err)
	}

	index, err := r.newIndex()
	if err != nil {
		return nil, err
	}
	defer index.Close()

	if err := index.Add(ctx, vectors); err != nil {
		return nil, fmt.Errorf("index corpus: %w", err)
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	k := r.topK
	if k > len(pages) {
		k = len(pages)
	}
	results, err := index.Search(ctx, queryVec, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	matches := make([]models.Match, 0, len(results))
	for _, res := range results {
		if res.Position < 0 || res.Position >= len(pages) {
			return nil, fmt.Errorf("search index: position %d out of range", res.Position)
		}
		matches = append(matches, models.Match{
			Page:     pages[res.Position],
			Distance: res.Distance,
		})
	}
	if len(matches) > 0 {
		r.logger.Debug("retrieved matches",
			zap.Int("count", len(matches)),
			zap.String("top_source", matches[0].Page.Source),
			zap.String("top_preview", utils.Truncate(matches[0].Page.Content, 80)),
			zap.Float64("top_distance", matches[0].Distance))
	}
	return matches, nil
}

// newIndex builds the configured index type, falling back to the in-memory
// implementation when the configured one is unavailable in this build.
func (r *Retriever) newIndex() (vector.Index, error) {
	index, err := vector.NewIndex(string(r.indexType), r.embedder.Dimensions())
	if err != nil {
		if r.indexType != vector.IndexTypeMemory {
			r.logger.Warn("configured index unavailable, using memory index",
				zap.String("index_type", string(r.indexType)), zap.Error(err))
			return vector.NewIndex(string(vector.IndexTypeMemory), r.embedder.Dimensions())
		}
		return nil, fmt.Errorf("create index: %w", err)
	}
	return index, nil
}

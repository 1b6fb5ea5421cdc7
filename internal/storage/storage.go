// Package storage defines the persistence interface for corpus pages and
// conversation history.
package storage

import (
	"context"

	"github.com/mizanhq/mizan/internal/models"
)

// Storage persists the extracted corpus and the question/answer history. The
// corpus is replaced wholesale on every ingestion; pages keep their corpus
// position so a reload reproduces the exact ordering retrieval depends on.
type Storage interface {
	// Corpus operations
	ReplacePages(ctx context.Context, pages []models.Page) error
	ListPages(ctx context.Context) ([]models.Page, error)
	CountPages(ctx context.Context) (int64, error)

	// History operations
	SaveExchange(ctx context.Context, ex *models.Exchange) error
	ListExchanges(ctx context.Context, offset, limit int) ([]*models.Exchange, error)
	CountExchanges(ctx context.Context) (int64, error)

	Close() error
}

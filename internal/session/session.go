// Package session holds conversation state and orchestrates the ask/ingest
// pipeline over it.
package session

import (
	"sync"

	"github.com/mizanhq/mizan/internal/models"
)

// Session is one conversation's state: the active corpus and the exchange
// history. The corpus is replaced wholesale by ingestion, never merged; stale
// pages from a previous ingestion cannot survive into the next.
//
// ops serializes whole pipeline runs (Ask, Ingest, Restore) on this session,
// so an Ask never observes a half-replaced corpus and two Ingests cannot
// interleave. mu guards only the snapshot accessors below.
type Session struct {
	ops     sync.Mutex
	mu      sync.RWMutex
	corpus  []models.Page
	history []models.Exchange
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{}
}

// ReplaceCorpus swaps the active corpus for pages. An empty slice is a valid
// corpus (documents existed but yielded no text).
func (s *Session) ReplaceCorpus(pages []models.Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.corpus = pages
}

// Pages returns a snapshot of the active corpus in ingestion order.
func (s *Session) Pages() []models.Page {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Page, len(s.corpus))
	copy(out, s.corpus)
	return out
}

// PageCount returns the size of the active corpus.
func (s *Session) PageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.corpus)
}

// AppendExchange records one completed question/answer turn.
func (s *Session) AppendExchange(ex models.Exchange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, ex)
}

// History returns a snapshot of the exchange history, oldest first.
func (s *Session) History() []models.Exchange {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Exchange, len(s.history))
	copy(out, s.history)
	return out
}

package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mizanhq/mizan/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestReplacePages_RoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	pages := []models.Page{
		{Source: "a.pdf", PageNumber: 1, Content: "first", OriginLink: "s3://bucket/a.pdf"},
		{Source: "a.pdf", PageNumber: 2, Content: "second"},
		{Source: "b.txt", PageNumber: 1, Content: "third"},
	}
	if err := store.ReplacePages(ctx, pages); err != nil {
		t.Fatal(err)
	}

	got, err := store.ListPages(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(got))
	}
	for i := range pages {
		if got[i] != pages[i] {
			t.Errorf("page %d: got %+v want %+v", i, got[i], pages[i])
		}
	}

	count, err := store.CountPages(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("CountPages=%d", count)
	}
}

func TestReplacePages_Wholesale(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	if err := store.ReplacePages(ctx, []models.Page{
		{Source: "old.pdf", PageNumber: 1, Content: "old"},
		{Source: "old.pdf", PageNumber: 2, Content: "older"},
	}); err != nil {
		t.Fatal(err)
	}
	if err := store.ReplacePages(ctx, []models.Page{
		{Source: "new.pdf", PageNumber: 1, Content: "new"},
	}); err != nil {
		t.Fatal(err)
	}

	got, err := store.ListPages(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Source != "new.pdf" {
		t.Errorf("stale pages survived replacement: %v", got)
	}
}

func TestReplacePages_Empty(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	if err := store.ReplacePages(ctx, []models.Page{{Source: "a.txt", PageNumber: 1, Content: "x"}}); err != nil {
		t.Fatal(err)
	}
	if err := store.ReplacePages(ctx, nil); err != nil {
		t.Fatal(err)
	}
	count, _ := store.CountPages(ctx)
	if count != 0 {
		t.Errorf("expected empty corpus, got %d pages", count)
	}
}

func TestSaveExchange_RoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	ex := &models.Exchange{
		Query: "What is the notice period?",
		Answer: models.Answer{
			Text: "30 days.",
			Citations: []models.Match{
				{Page: models.Page{Source: "law.pdf", PageNumber: 12, Content: "Notice period is 30 days."}, Distance: 0.25},
			},
		},
	}
	if err := store.SaveExchange(ctx, ex); err != nil {
		t.Fatal(err)
	}
	if ex.ID == "" {
		t.Error("SaveExchange should assign an ID")
	}
	if ex.CreatedAt.IsZero() {
		t.Error("SaveExchange should assign CreatedAt")
	}

	got, err := store.ListExchanges(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 exchange, got %d", len(got))
	}
	if got[0].Query != ex.Query || got[0].Answer.Text != ex.Answer.Text {
		t.Errorf("exchange mismatch: %+v", got[0])
	}
	if len(got[0].Answer.Citations) != 1 {
		t.Fatalf("citations lost: %+v", got[0].Answer)
	}
	c := got[0].Answer.Citations[0]
	if c.Page.Source != "law.pdf" || c.Page.PageNumber != 12 || c.Distance != 0.25 {
		t.Errorf("citation mismatch: %+v", c)
	}
}

func TestListExchanges_NewestFirst(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	older := &models.Exchange{Query: "first", CreatedAt: time.Now().Add(-time.Hour)}
	newer := &models.Exchange{Query: "second", CreatedAt: time.Now()}
	if err := store.SaveExchange(ctx, older); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveExchange(ctx, newer); err != nil {
		t.Fatal(err)
	}

	got, err := store.ListExchanges(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 exchanges, got %d", len(got))
	}
	if got[0].Query != "second" || got[1].Query != "first" {
		t.Errorf("order: %q, %q", got[0].Query, got[1].Query)
	}

	count, err := store.CountExchanges(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("CountExchanges=%d", count)
	}
}

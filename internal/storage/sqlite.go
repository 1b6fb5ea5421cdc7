// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mizanhq/mizan/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS pages (
		position INTEGER PRIMARY KEY,
		source TEXT NOT NULL,
		page_number INTEGER NOT NULL,
		content TEXT NOT NULL,
		origin_link TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_pages_source ON pages(source);

	CREATE TABLE IF NOT EXISTS exchanges (
		id TEXT PRIMARY KEY,
		query TEXT NOT NULL,
		answer TEXT NOT NULL,
		citations TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_exchanges_created_at ON exchanges(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// ReplacePages swaps the stored corpus for pages in a single transaction.
// Position follows the slice order.
func (s *SQLiteStorage) ReplacePages(ctx context.Context, pages []models.Page) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM pages`); err != nil {
		return fmt.Errorf("clear pages: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO pages (position, source, page_number, content, origin_link)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range pages {
		if _, err := stmt.ExecContext(ctx, i, p.Source, p.PageNumber, p.Content, p.OriginLink); err != nil {
			return fmt.Errorf("insert page %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// ListPages returns the stored corpus in position order.
func (s *SQLiteStorage) ListPages(ctx context.Context) ([]models.Page, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, page_number, content, origin_link FROM pages ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []models.Page
	for rows.Next() {
		var p models.Page
		var link sql.NullString
		if err := rows.Scan(&p.Source, &p.PageNumber, &p.Content, &link); err != nil {
			return nil, err
		}
		p.OriginLink = link.String
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// CountPages returns the number of stored pages.
func (s *SQLiteStorage) CountPages(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages`).Scan(&count)
	return count, err
}

// SaveExchange inserts one question/answer turn. ID and CreatedAt are filled
// in when empty.
func (s *SQLiteStorage) SaveExchange(ctx context.Context, ex *models.Exchange) error {
	if ex.ID == "" {
		ex.ID = uuid.New().String()
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now()
	}
	citations, err := json.Marshal(ex.Answer.Citations)
	if err != nil {
		return fmt.Errorf("marshal citations: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO exchanges (id, query, answer, citations, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		ex.ID, ex.Query, ex.Answer.Text, string(citations), ex.CreatedAt)
	return err
}

// ListExchanges returns history turns, newest first.
func (s *SQLiteStorage) ListExchanges(ctx context.Context, offset, limit int) ([]*models.Exchange, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, answer, citations, created_at
		 FROM exchanges ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exchanges []*models.Exchange
	for rows.Next() {
		var ex models.Exchange
		var citations string
		if err := rows.Scan(&ex.ID, &ex.Query, &ex.Answer.Text, &citations, &ex.CreatedAt); err != nil {
			return nil, err
		}
		if citations != "" {
			if err := json.Unmarshal([]byte(citations), &ex.Answer.Citations); err != nil {
				return nil, fmt.Errorf("unmarshal citations for %s: %w", ex.ID, err)
			}
		}
		exchanges = append(exchanges, &ex)
	}
	return exchanges, rows.Err()
}

// CountExchanges returns the number of stored history turns.
func (s *SQLiteStorage) CountExchanges(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM exchanges`).Scan(&count)
	return count, err
}

// Close closes the underlying database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Package store persists which papers already appeared in a delivered
// digest, so consecutive daily runs do not repeat them.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/paperpulse/paperpulse/internal/domain"
)

// SeenStore is a SQLite-backed record of delivered papers.
type SeenStore struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the seen-paper database under dir.
func Open(dir string) (*SeenStore, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	dbPath := filepath.Join(dir, "paperpulse.db")
	db, err := sql.Open("sqlite", dbPath+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite supports only one writer; a single pooled connection avoids
	// SQLITE_BUSY under concurrent use.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &SeenStore{db: db, dbPath: dbPath}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SeenStore) Close() error {
	return s.db.Close()
}

// createTables creates the schema if it doesn't exist.
func (s *SeenStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS seen_papers (
		paper_id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		source TEXT NOT NULL,
		run_id TEXT NOT NULL,
		delivered_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_seen_delivered_at ON seen_papers(delivered_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// FilterUnseen returns the papers that have not appeared in any prior
// delivered digest, preserving input order.
func (s *SeenStore) FilterUnseen(ctx context.Context, papers []domain.PaperRecord) ([]domain.PaperRecord, error) {
	if len(papers) == 0 {
		return nil, nil
	}

	stmt, err := s.db.PrepareContext(ctx, "SELECT 1 FROM seen_papers WHERE paper_id = ?")
	if err != nil {
		return nil, fmt.Errorf("prepare seen lookup: %w", err)
	}
	defer stmt.Close()

	unseen := make([]domain.PaperRecord, 0, len(papers))
	for _, p := range papers {
		var one int
		err := stmt.QueryRowContext(ctx, p.ID).Scan(&one)
		switch {
		case err == sql.ErrNoRows:
			unseen = append(unseen, p)
		case err != nil:
			return nil, fmt.Errorf("seen lookup for %s: %w", p.ID, err)
		}
	}
	return unseen, nil
}

// MarkDelivered records the papers of a delivered digest. Re-marking an
// already seen paper is a no-op.
func (s *SeenStore) MarkDelivered(ctx context.Context, runID string, papers []domain.PaperRecord, deliveredAt time.Time) error {
	if len(papers) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO seen_papers (paper_id, title, source, run_id, delivered_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(paper_id) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range papers {
		if _, err := stmt.ExecContext(ctx, p.ID, p.Title, p.Source, runID, deliveredAt.UTC()); err != nil {
			return fmt.Errorf("record paper %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// Prune removes seen records older than the retention window.
func (s *SeenStore) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM seen_papers WHERE delivered_at < ?", olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune seen papers: %w", err)
	}
	return res.RowsAffected()
}

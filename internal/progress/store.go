// Package progress persists practice attempts in SQLite.
package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rbright/recite/internal/catalog"
	_ "modernc.org/sqlite"
)

// DefaultHistoryLimit bounds entries kept per user when none is configured.
const DefaultHistoryLimit = 100

// Entry is one scored attempt.
type Entry struct {
	ID          string              `json:"id"`
	UserID      string              `json:"-"`
	ContentID   catalog.ItemID      `json:"content_id"`
	ContentType catalog.ContentType `json:"content_type"`
	Target      string              `json:"target"`
	Transcript  string              `json:"transcript"`
	Score       float64             `json:"score"`
	CreatedAt   time.Time           `json:"created_at"`
}

// Store is a SQLite-backed practice history.
type Store struct {
	db           *sql.DB
	historyLimit int
	clock        func() time.Time
}

// Open creates or opens the history database at path.
func Open(ctx context.Context, path string, historyLimit int) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("progress database path is empty")
	}
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create progress dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, historyLimit: historyLimit, clock: time.Now}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS entries (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    user_id TEXT NOT NULL,
    content_id TEXT NOT NULL,
    content_type TEXT NOT NULL,
    target TEXT NOT NULL,
    transcript TEXT NOT NULL,
    score REAL NOT NULL,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_user_seq ON entries(user_id, seq);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("init progress schema: %w", err)
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save records entry for its user and trims that user's history to the
// configured limit. ID and CreatedAt are filled in when empty.
func (s *Store) Save(ctx context.Context, entry Entry) (Entry, error) {
	entry.UserID = strings.TrimSpace(entry.UserID)
	if entry.UserID == "" {
		return Entry{}, errors.New("progress entry has no user")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.clock()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Entry{}, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO entries(id, user_id, content_id, content_type, target, transcript, score, created_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, string(entry.ContentID), string(entry.ContentType),
		entry.Target, entry.Transcript, entry.Score, entry.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Entry{}, fmt.Errorf("insert progress entry: %w", err)
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM entries WHERE user_id = ? AND seq IN (
		SELECT seq FROM entries WHERE user_id = ? ORDER BY seq DESC LIMIT -1 OFFSET ?
	)`, entry.UserID, entry.UserID, s.historyLimit)
	if err != nil {
		return Entry{}, fmt.Errorf("prune progress entries: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Recent returns up to limit entries for user, newest first.
func (s *Store) Recent(ctx context.Context, user string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, content_id, content_type, target, transcript, score, created_at
		 FROM entries WHERE user_id = ? ORDER BY seq DESC LIMIT ?`, strings.TrimSpace(user), limit)
	if err != nil {
		return nil, fmt.Errorf("query progress entries: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			e           Entry
			contentID   string
			contentType string
			created     string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &contentID, &contentType, &e.Target, &e.Transcript, &e.Score, &created); err != nil {
			return nil, fmt.Errorf("scan progress entry: %w", err)
		}
		e.ContentID = catalog.ItemID(contentID)
		e.ContentType = catalog.ContentType(contentType)
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			e.CreatedAt = ts
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

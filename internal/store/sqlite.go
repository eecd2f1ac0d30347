package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 500
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and serialises writers.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS activity (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        session_id TEXT NOT NULL,
        kind TEXT NOT NULL CHECK (kind IN ('upload', 'ask', 'summarize', 'history', 'refresh')),
        document_id INTEGER,
        status TEXT NOT NULL CHECK (status IN ('ok', 'failed', 'rejected')),
        detail TEXT NOT NULL DEFAULT '',
        created_at DATETIME NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_activity_created_at ON activity (created_at);
    `
	_, err := s.db.Exec(schema)
	return err
}

// RecordActivity inserts a, filling in its ID and CreatedAt.
func (s *SQLiteStore) RecordActivity(ctx context.Context, a *Activity) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	// Stored as text, so keep one zone for ordering and pruning comparisons.
	a.CreatedAt = a.CreatedAt.UTC()

	var documentID sql.NullInt64
	if a.DocumentID != nil {
		documentID = sql.NullInt64{Int64: *a.DocumentID, Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO activity (session_id, kind, document_id, status, detail, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		a.SessionID, a.Kind, documentID, a.Status, a.Detail, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	a.ID, _ = res.LastInsertId()
	return nil
}

// ListActivity returns the newest entries first.
func (s *SQLiteStore) ListActivity(ctx context.Context, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, session_id, kind, document_id, status, detail, created_at FROM activity ORDER BY created_at DESC, id DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}
	defer rows.Close()

	activities := []Activity{}
	for rows.Next() {
		var a Activity
		var documentID sql.NullInt64
		if err := rows.Scan(&a.ID, &a.SessionID, &a.Kind, &documentID, &a.Status, &a.Detail, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		if documentID.Valid {
			id := documentID.Int64
			a.DocumentID = &id
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activity rows: %w", err)
	}
	return activities, nil
}

// PruneActivity deletes entries older than before and reports how many went.
func (s *SQLiteStore) PruneActivity(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM activity WHERE created_at < ?", before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune activity: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements Store on a SQLite database. Attributes are
// stored as a JSON column; relations live in a separate ordered table.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS records (
	kind       TEXT NOT NULL,
	id         TEXT NOT NULL,
	attrs      TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (kind, id)
);
CREATE TABLE IF NOT EXISTS relations (
	kind      TEXT NOT NULL,
	id        TEXT NOT NULL,
	relation  TEXT NOT NULL,
	position  INTEGER NOT NULL,
	target_id TEXT NOT NULL,
	PRIMARY KEY (kind, id, relation, position)
);
`

// NewSQLiteStore opens (creating if needed) a SQLite store at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Insert writes a new record.
func (s *SQLiteStore) Insert(ctx context.Context, rec *Record) error {
	attrs, err := json.Marshal(rec.Attrs)
	if err != nil {
		return fmt.Errorf("encode attrs: %w", err)
	}
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (kind, id, attrs, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		rec.Kind, rec.ID, string(attrs), rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert %s %q: %w", rec.Kind, rec.ID, err)
	}
	return nil
}

// Update overwrites an existing record's attributes.
func (s *SQLiteStore) Update(ctx context.Context, rec *Record) error {
	attrs, err := json.Marshal(rec.Attrs)
	if err != nil {
		return fmt.Errorf("encode attrs: %w", err)
	}
	rec.UpdatedAt = time.Now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE records SET attrs = ?, updated_at = ? WHERE kind = ? AND id = ?`,
		string(attrs), rec.UpdatedAt, rec.Kind, rec.ID)
	if err != nil {
		return fmt.Errorf("update %s %q: %w", rec.Kind, rec.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &NotFoundError{Kind: rec.Kind, ID: rec.ID}
	}
	return nil
}

// Get loads one record by kind and id.
func (s *SQLiteStore) Get(ctx context.Context, kind, id string) (*Record, error) {
	rec := &Record{Kind: kind, ID: id}
	var attrs string
	err := s.db.QueryRowContext(ctx,
		`SELECT attrs, created_at, updated_at FROM records WHERE kind = ? AND id = ?`,
		kind, id).Scan(&attrs, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: kind, ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %q: %w", kind, id, err)
	}
	if err := json.Unmarshal([]byte(attrs), &rec.Attrs); err != nil {
		return nil, fmt.Errorf("decode attrs of %s %q: %w", kind, id, err)
	}
	return rec, nil
}

// SetRelated replaces the ordered relation list of a record in one
// transaction.
func (s *SQLiteStore) SetRelated(ctx context.Context, kind, id, relation string, targetIDs []string) error {
	if _, err := s.Get(ctx, kind, id); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM relations WHERE kind = ? AND id = ? AND relation = ?`,
		kind, id, relation)
	if err != nil {
		return fmt.Errorf("clear relation %q: %w", relation, err)
	}
	for i, target := range targetIDs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO relations (kind, id, relation, position, target_id) VALUES (?, ?, ?, ?, ?)`,
			kind, id, relation, i, target)
		if err != nil {
			return fmt.Errorf("write relation %q: %w", relation, err)
		}
	}
	return tx.Commit()
}

// Related returns the ordered relation list of a record.
func (s *SQLiteStore) Related(ctx context.Context, kind, id, relation string) ([]string, error) {
	if _, err := s.Get(ctx, kind, id); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT target_id FROM relations WHERE kind = ? AND id = ? AND relation = ? ORDER BY position`,
		kind, id, relation)
	if err != nil {
		return nil, fmt.Errorf("read relation %q: %w", relation, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var target string
		if err := rows.Scan(&target); err != nil {
			return nil, err
		}
		out = append(out, target)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// internal/progress/sqlite_store.go
package progress

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/law-makers/evalcrawl/pkg/models"
	"github.com/rs/zerolog/log"

	_ "modernc.org/sqlite" // SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS evaluations (
	course_code TEXT PRIMARY KEY,
	course_key  TEXT NOT NULL,
	record      TEXT NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_evaluations_course_key ON evaluations (course_key);
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// SQLiteStore keeps the checkpoint in a SQLite database. Each batch is one
// transaction and rows are keyed by raw course code, so replays are no-ops.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; the recorder is the only caller anyway
	db.SetMaxOpenConns(1)

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	log.Debug().Str("path", path).Msg("SQLite progress store opened")
	return &SQLiteStore{db: db}, nil
}

func applySchema(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("failed to set pragma %q: %w", p, err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// Load rebuilds the state from every stored row
func (s *SQLiteStore) Load(ctx context.Context) (*State, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT course_code, course_key, record FROM evaluations ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluations: %w", err)
	}
	defer rows.Close()

	state := NewState()
	for rows.Next() {
		var code, key, raw string
		if err := rows.Scan(&code, &key, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan evaluation: %w", err)
		}
		var record models.EvaluationRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("failed to decode evaluation %s: %w", code, err)
		}
		ck := models.CourseKey(key)
		state.Evaluations[ck] = append(state.Evaluations[ck], record)
		state.Completed[code] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read evaluations: %w", err)
	}

	var updated sql.NullString
	err = s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'last_updated'`).Scan(&updated)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to read meta: %w", err)
	}
	if updated.Valid {
		if t, err := time.Parse(time.RFC3339, updated.String); err == nil {
			state.LastUpdated = t
		}
	}

	return state, nil
}

// Commit inserts the applied results in a single transaction
func (s *SQLiteStore) Commit(ctx context.Context, state *State, applied []Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := state.LastUpdated.UTC().Format(time.RFC3339)
	for _, r := range applied {
		raw, err := json.Marshal(r.Record)
		if err != nil {
			return fmt.Errorf("failed to encode evaluation %s: %w", r.CourseCodeRaw, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO evaluations (course_code, course_key, record, created_at)
			VALUES (?, ?, ?, ?)`, r.CourseCodeRaw, string(r.Key), string(raw), now); err != nil {
			return fmt.Errorf("insert evaluation: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES ('last_updated', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, now); err != nil {
		return fmt.Errorf("update meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Reset deletes every stored evaluation
func (s *SQLiteStore) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{`DELETE FROM evaluations`, `DELETE FROM meta`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to reset store: %w", err)
		}
	}
	return tx.Commit()
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

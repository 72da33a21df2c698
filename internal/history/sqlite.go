// Package history keeps an audit log of record/validate runs in a local
// SQLite database.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Run is one recorded session outcome.
type Run struct {
	ID        int64     `json:"id"`
	Snapshot  string    `json:"snapshot"`
	Mode      string    `json:"mode"` // "record" or "validate"
	Outcome   string    `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
	Requests  int       `json:"requests"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	OutcomeRecorded = "recorded"
	OutcomePassed   = "passed"
	OutcomeFailed   = "failed"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dsn); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	s := &SQLiteStore{db: db}
	if err := s.Init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Init() error {
	if _, err := s.db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		return err
	}
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		snapshot TEXT NOT NULL,
		mode TEXT NOT NULL,
		outcome TEXT NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		requests INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);`)
	return err
}

func (s *SQLiteStore) Append(run Run) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`INSERT INTO runs(snapshot,mode,outcome,detail,requests,created_at) VALUES(?,?,?,?,?,?)`,
		run.Snapshot, run.Mode, run.Outcome, run.Detail, run.Requests, run.CreatedAt)
	return err
}

// List returns runs for one snapshot, or all runs when snapshot is
// empty, newest first.
func (s *SQLiteStore) List(snapshot string) ([]Run, error) {
	query := `SELECT id,snapshot,mode,outcome,detail,requests,created_at FROM runs ORDER BY id DESC`
	args := []any{}
	if snapshot != "" {
		query = `SELECT id,snapshot,mode,outcome,detail,requests,created_at FROM runs WHERE snapshot=? ORDER BY id DESC`
		args = append(args, snapshot)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Snapshot, &r.Mode, &r.Outcome, &r.Detail, &r.Requests, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return errors.New("history store is nil")
	}
	return s.db.Close()
}

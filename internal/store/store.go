// Package store keeps the history of fact-check results in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JoseCortezz25/fact-checking-app/internal/model"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get for an unknown id
var ErrNotFound = errors.New("fact-check not found")

// timeLayout is fixed width so that text order in SQLite is time order
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS factchecks (
  id TEXT PRIMARY KEY,
  claim TEXT NOT NULL,
  status TEXT NOT NULL,
  veracity TEXT NOT NULL DEFAULT '',
  confidence REAL NOT NULL DEFAULT 0,
  started_at TEXT NOT NULL,
  finished_at TEXT NOT NULL,
  payload TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_factchecks_started_at ON factchecks(started_at);
`

// Store persists fact-check results
type Store struct {
	db *sql.DB
}

// Summary is one row of the history listing
type Summary struct {
	ID         string             `json:"id"`
	Claim      string             `json:"claim"`
	Status     model.ResultStatus `json:"status"`
	Veracity   model.Veracity     `json:"veracity,omitempty"`
	Confidence float64            `json:"confidence"`
	StartedAt  time.Time          `json:"started_at"`
}

// Open opens (creating if needed) the database at path. ":memory:" gives a
// private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("empty database path")
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// one connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts or replaces a result
func (s *Store) Save(ctx context.Context, res model.Result) error {
	if res.RequestID == "" {
		return errors.New("result has no request id")
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	var veracity string
	var confidence float64
	if res.Verdict != nil {
		veracity = string(res.Verdict.Veracity)
		confidence = res.Verdict.Confidence
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO factchecks (id, claim, status, veracity, confidence, started_at, finished_at, payload)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  claim = excluded.claim,
  status = excluded.status,
  veracity = excluded.veracity,
  confidence = excluded.confidence,
  started_at = excluded.started_at,
  finished_at = excluded.finished_at,
  payload = excluded.payload`,
		res.RequestID, res.Claim.Text, string(res.Status), veracity, confidence,
		formatTime(res.StartedAt), formatTime(res.FinishedAt), string(payload))
	if err != nil {
		return fmt.Errorf("save fact-check %s: %w", res.RequestID, err)
	}
	return nil
}

// Get loads a result by id
func (s *Store) Get(ctx context.Context, id string) (*model.Result, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM factchecks WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load fact-check %s: %w", id, err)
	}

	var res model.Result
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return nil, fmt.Errorf("decode fact-check %s: %w", id, err)
	}
	return &res, nil
}

// List returns the most recent results first
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, claim, status, veracity, confidence, started_at
FROM factchecks
ORDER BY started_at DESC, id
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list fact-checks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Summary
	for rows.Next() {
		var (
			sum       Summary
			status    string
			veracity  string
			startedAt string
		)
		if err := rows.Scan(&sum.ID, &sum.Claim, &status, &veracity, &sum.Confidence, &startedAt); err != nil {
			return nil, fmt.Errorf("scan fact-check: %w", err)
		}
		sum.Status = model.ResultStatus(status)
		sum.Veracity = model.Veracity(veracity)
		sum.StartedAt, _ = time.Parse(timeLayout, startedAt)
		out = append(out, sum)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

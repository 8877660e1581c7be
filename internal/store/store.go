// Package store persists comments, stakeholders and pipeline results in
// SQLite. Structured values (claims, evidence, clusters, coalitions, briefs)
// are stored as JSON next to the columns they are queried by. Results are
// never deleted: clusters and coalitions belong to the pipeline run that
// produced them, and reads default to a bill's latest run.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

// timeLayout is fixed width so stored timestamps sort as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// maxParams keeps IN lists below SQLite's host parameter limit
const maxParams = 500

// Store manages the argintel SQLite database
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and creates the schema if it
// does not exist
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS comments (
			id TEXT PRIMARY KEY,
			bill_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			text TEXT NOT NULL,
			timestamp TEXT,
			processed_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_bill ON comments(bill_id, processed_at)`,
		`CREATE TABLE IF NOT EXISTS stakeholders (
			user_id TEXT PRIMARY KEY,
			region TEXT,
			demographic TEXT,
			sector TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS arguments (
			id TEXT PRIMARY KEY,
			bill_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			comment_id TEXT,
			position TEXT NOT NULL,
			strength REAL NOT NULL,
			reasoning TEXT,
			claims TEXT NOT NULL,
			evidence TEXT NOT NULL,
			created_at TEXT,
			processed_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_arguments_bill ON arguments(bill_id)`,
		`CREATE TABLE IF NOT EXISTS runs (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			bill_id TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_bill ON runs(bill_id, seq)`,
		`CREATE TABLE IF NOT EXISTS clusters (
			run_id TEXT NOT NULL REFERENCES runs(id),
			id TEXT NOT NULL,
			bill_id TEXT NOT NULL,
			name TEXT NOT NULL,
			position TEXT NOT NULL,
			size INTEGER NOT NULL,
			data TEXT NOT NULL,
			PRIMARY KEY (run_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS cluster_members (
			run_id TEXT NOT NULL,
			cluster_id TEXT NOT NULL,
			argument_id TEXT NOT NULL REFERENCES arguments(id),
			PRIMARY KEY (run_id, cluster_id, argument_id),
			FOREIGN KEY (run_id, cluster_id) REFERENCES clusters(run_id, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cluster_members_argument ON cluster_members(argument_id)`,
		`CREATE TABLE IF NOT EXISTS coalitions (
			run_id TEXT NOT NULL REFERENCES runs(id),
			id TEXT NOT NULL,
			bill_id TEXT NOT NULL,
			name TEXT NOT NULL,
			power REAL NOT NULL,
			data TEXT NOT NULL,
			PRIMARY KEY (run_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS briefs (
			id TEXT PRIMARY KEY,
			bill_id TEXT NOT NULL,
			generated_at TEXT NOT NULL,
			format TEXT NOT NULL,
			data TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_briefs_bill ON briefs(bill_id, generated_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, s.String)
}

// placeholders returns "?, ?, ?" for n parameters
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// chunks splits ids into slices of at most maxParams
func chunks(ids []string) [][]string {
	var out [][]string
	for len(ids) > maxParams {
		out = append(out, ids[:maxParams])
		ids = ids[maxParams:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}

func marshal(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

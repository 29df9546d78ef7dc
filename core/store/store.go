// Package store provides SQLite-backed persistence for coaching sessions and
// the external records the context aggregator reads: organization profiles,
// onboarding intake, territory insights, and synthesis output.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	// DefaultPath is the default location for the SQLite database.
	DefaultPath = ".compass/compass.db"

	schemaVersion = 1
)

var (
	// ErrOrgProfileNotFound means the organization-level profile is missing.
	// This is a hard precondition failure for building a session, unlike the
	// other lookups which treat absence as a legitimate value.
	ErrOrgProfileNotFound = errors.New("organization profile not found")

	// ErrSessionNotFound means no session row exists for the id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrRevisionConflict means a compare-and-swap save lost to a concurrent
	// writer; the caller must reload and reapply.
	ErrRevisionConflict = errors.New("session revision conflict")
)

// Store wraps the SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// Config configures the store.
type Config struct {
	Path string // Path to SQLite database file
}

// New opens (and if necessary creates) the database at cfg.Path.
func New(cfg Config) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open store database: %w", err)
	}

	// WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS org_profiles (
		org_id TEXT PRIMARY KEY,
		company_name TEXT,
		industry TEXT,
		company_size TEXT,
		strategic_focus TEXT,
		pain_points TEXT,
		prior_attempts TEXT,
		target_outcomes TEXT,
		success_metrics JSON,
		persona TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS intake_records (
		org_id TEXT PRIMARY KEY,
		company_name TEXT,
		industry TEXT,
		company_size TEXT,
		strategic_focus TEXT,
		pain_points TEXT,
		prior_attempts TEXT,
		target_outcomes TEXT,
		success_metrics JSON,
		created_at TIMESTAMP NOT NULL
	);

	-- state is the opaque session blob; current_phase is the independently
	-- writable phase mirror an administrative path may overwrite out of band.
	-- highest_phase only ever advances.
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		user_id TEXT,
		kind TEXT NOT NULL DEFAULT 'coaching',
		status TEXT NOT NULL DEFAULT 'active',
		state JSON NOT NULL,
		current_phase TEXT NOT NULL,
		highest_phase TEXT NOT NULL,
		profile JSON,
		message_count INTEGER NOT NULL DEFAULT 0,
		revision INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_user_org
		ON sessions(user_id, org_id, kind, created_at);

	CREATE TABLE IF NOT EXISTS territory_insights (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		territory TEXT NOT NULL,
		area TEXT,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'draft',
		position INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	);
	CREATE INDEX IF NOT EXISTS idx_territory_session
		ON territory_insights(session_id, status);

	CREATE TABLE IF NOT EXISTS synthesis_records (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		payload JSON NOT NULL,
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	);
	CREATE INDEX IF NOT EXISTS idx_synthesis_session
		ON synthesis_records(session_id, created_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO schema_version (version) VALUES (?)", schemaVersion)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// marshalJSON is a small helper for nullable JSON columns.
func marshalJSON(v any) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

// ping is used by tests to verify liveness.
func (s *Store) ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/outreach-agent/internal/types"
	_ "modernc.org/sqlite"
)

// sqliteSchemaVersion is the latest ledger schema version.
const sqliteSchemaVersion = 1

// SQLiteStore keeps the ledger in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and migrates) the ledger database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}
	// One writer; the run loop is single-threaded anyway.
	db.SetMaxOpenConns(1)

	if err := migrateSQLite(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func migrateSQLite(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS sends (
		  id         INTEGER PRIMARY KEY AUTOINCREMENT,
		  name       TEXT NOT NULL,
		  email      TEXT NOT NULL,
		  date_sent  TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_sends_date ON sends(date_sent);

		CREATE TABLE IF NOT EXISTS failures (
		  id         INTEGER PRIMARY KEY AUTOINCREMENT,
		  name       TEXT NOT NULL,
		  email      TEXT NOT NULL,
		  bio_link   TEXT NOT NULL DEFAULT '',
		  reason     TEXT NOT NULL,
		  date       TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_failures_date ON failures(date);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("failed to apply ledger schema: %w", err)
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", sqliteSchemaVersion)); err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}
	return nil
}

// AppendSend inserts a send record.
func (s *SQLiteStore) AppendSend(ctx context.Context, rec types.SendRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sends (name, email, date_sent) VALUES (?, ?, ?)`,
		rec.Name, rec.Contact, rec.Date)
	if err != nil {
		return fmt.Errorf("failed to insert send: %w", err)
	}
	return nil
}

// AppendFailure inserts a failure record.
func (s *SQLiteStore) AppendFailure(ctx context.Context, rec types.FailureRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO failures (name, email, bio_link, reason, date) VALUES (?, ?, ?, ?, ?)`,
		rec.Name, rec.Contact, rec.ProfileLink, string(rec.Reason), rec.Date)
	if err != nil {
		return fmt.Errorf("failed to insert failure: %w", err)
	}
	return nil
}

// Sends returns all send records in insertion order.
func (s *SQLiteStore) Sends(ctx context.Context) ([]types.SendRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, email, date_sent FROM sends ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sends: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.SendRecord
	for rows.Next() {
		var r types.SendRecord
		if err := rows.Scan(&r.Name, &r.Contact, &r.Date); err != nil {
			return nil, fmt.Errorf("failed to scan send: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Failures returns all failure records in insertion order.
func (s *SQLiteStore) Failures(ctx context.Context) ([]types.FailureRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, email, bio_link, reason, date FROM failures ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query failures: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.FailureRecord
	for rows.Next() {
		var r types.FailureRecord
		var reason string
		if err := rows.Scan(&r.Name, &r.Contact, &r.ProfileLink, &reason, &r.Date); err != nil {
			return nil, fmt.Errorf("failed to scan failure: %w", err)
		}
		r.Reason = types.ReasonCode(reason)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

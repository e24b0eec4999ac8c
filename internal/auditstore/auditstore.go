// Package auditstore optionally mirrors rename audit records into
// Postgres, grounded on database/storage.go and database/schema.go's
// database/sql + jackc/pgx idiom (embedded CREATE TABLE IF NOT EXISTS
// strings, uuid.New().String() primary keys). It is strictly additive:
// the JSON-lines audit log written by internal/rename remains the
// authoritative record; this store exists only for operators who want
// renames queryable from SQL.
package auditstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const createRenamesTableSQL = `
CREATE TABLE IF NOT EXISTS renames (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	target     TEXT NOT NULL,
	report     JSONB,
	dry_run    BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)
`

const dropRenamesTableSQL = `DROP TABLE IF EXISTS renames`

// Store is a thin Postgres mirror of applied renames.
type Store struct {
	db *sql.DB
}

// Open connects to url (a standard postgres:// DSN) via the pgx stdlib
// driver and ensures the renames table exists.
func Open(ctx context.Context, url string) (*Store, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres audit store: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres audit store: %w", err)
	}
	s := &Store{db: db}
	if err := s.CreateSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSchema creates the renames table if absent.
func (s *Store) CreateSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createRenamesTableSQL); err != nil {
		return fmt.Errorf("create renames table: %w", err)
	}
	return nil
}

// DropSchema drops the renames table. Wired to vrenamer rollback
// -drop-audit-schema, a destructive maintenance path operators use to
// reset the mirror without touching the authoritative JSON-lines log.
func (s *Store) DropSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, dropRenamesTableSQL); err != nil {
		return fmt.Errorf("drop renames table: %w", err)
	}
	return nil
}

// RecordRename inserts a mirror row for one applied (or dry-run) rename.
// A failure here is logged by the caller and never blocks the rename
// itself committing against the filesystem audit log.
func (s *Store) RecordRename(ctx context.Context, source, target string, report map[string][]string, dryRun bool, at time.Time) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	const insertSQL = `
		INSERT INTO renames (id, source, target, report, dry_run, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.db.ExecContext(ctx, insertSQL, uuid.New().String(), source, target, reportJSON, dryRun, at)
	if err != nil {
		return fmt.Errorf("insert rename record: %w", err)
	}
	return nil
}

// RenameRow is one row read back from the renames table.
type RenameRow struct {
	ID        string
	Source    string
	Target    string
	DryRun    bool
	CreatedAt time.Time
}

// ListRecent returns the most recently recorded renames, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]RenameRow, error) {
	const querySQL = `
		SELECT id, source, target, dry_run, created_at
		FROM renames
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, querySQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query renames: %w", err)
	}
	defer rows.Close()

	var out []RenameRow
	for rows.Next() {
		var r RenameRow
		if err := rows.Scan(&r.ID, &r.Source, &r.Target, &r.DryRun, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan rename row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate renames: %w", err)
	}
	return out, nil
}

// Package sqlite provides a SQLite-backed EntityStore implementation.
//
// Predicate queries are evaluated in two stages: SQL narrows the scan to
// the workspace (and record type, when the query pins one), then the open
// JSON payloads are decoded and matched in Go. The store never needs more
// SQL expressiveness than that because every query is already bounded by
// storage.MaxQueryResults.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/evercore/timeline/internal/storage"
	"github.com/evercore/timeline/pkg/types"
)

// timeFormat is the canonical timestamp encoding for the created_at column.
const timeFormat = time.RFC3339Nano

// Store implements storage.EntityStore and storage.Writer using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) a SQLite database at dsn and applies the
// schema. The dsn may be a file path or ":memory:".
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single open connection
	// serialises writes and avoids SQLITE_BUSY errors under concurrent load,
	// while WAL mode lets readers proceed without blocking the writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// GetDB exposes the underlying database handle for diagnostics endpoints.
func (s *Store) GetDB() *sql.DB {
	return s.db
}

// Put creates or replaces a record (upsert semantics).
func (s *Store) Put(ctx context.Context, record *types.Record) error {
	if record == nil || record.ID == "" {
		return storage.ErrInvalidInput
	}

	data, err := json.Marshal(orEmpty(record.Data))
	if err != nil {
		return fmt.Errorf("sqlite: failed to encode data for %s: %w", record.ID, err)
	}
	metadata, err := json.Marshal(orEmpty(record.Metadata))
	if err != nil {
		return fmt.Errorf("sqlite: failed to encode metadata for %s: %w", record.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (workspace_id, id, type, created_at, data, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(workspace_id, id) DO UPDATE SET
			type = excluded.type,
			created_at = excluded.created_at,
			data = excluded.data,
			metadata = excluded.metadata`,
		record.WorkspaceID, record.ID, record.Type,
		record.CreatedAt.UTC().Format(timeFormat), string(data), string(metadata))
	if err != nil {
		return fmt.Errorf("sqlite: failed to upsert record %s: %w", record.ID, err)
	}
	return nil
}

// Link creates a bidirectional relationship edge between two records.
// The edge is stored once; FindRelated queries both directions.
func (s *Store) Link(ctx context.Context, workspaceID, fromID, toID string) error {
	if fromID == "" || toID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO record_links (workspace_id, from_id, to_id, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(workspace_id, from_id, to_id) DO NOTHING`,
		workspaceID, fromID, toID, time.Now().UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("sqlite: failed to link %s -> %s: %w", fromID, toID, err)
	}
	return nil
}

// FindByID implements storage.EntityStore.
func (s *Store) FindByID(ctx context.Context, workspaceID, id string) (*types.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT workspace_id, id, type, created_at, data, metadata
		FROM records WHERE workspace_id = ? AND id = ?`, workspaceID, id)

	record, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to load record %s: %w", id, err)
	}
	return record, nil
}

// FindRelated implements storage.EntityStore. Edges are followed in both
// directions and results come back in edge creation order.
func (s *Store) FindRelated(ctx context.Context, workspaceID, id string) ([]*types.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.workspace_id, r.id, r.type, r.created_at, r.data, r.metadata
		FROM record_links l
		JOIN records r ON r.workspace_id = l.workspace_id
			AND r.id = CASE WHEN l.from_id = ? THEN l.to_id ELSE l.from_id END
		WHERE l.workspace_id = ? AND (l.from_id = ? OR l.to_id = ?)
		ORDER BY l.created_at, l.rowid`, id, workspaceID, id, id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to query links for %s: %w", id, err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// Find implements storage.EntityStore.
func (s *Store) Find(ctx context.Context, query storage.Query) ([]*types.Record, error) {
	query.Normalize()

	order := "DESC"
	if query.OrderDirection == "asc" {
		order = "ASC"
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT workspace_id, id, type, created_at, data, metadata
		FROM records WHERE workspace_id = ?
		ORDER BY created_at %s, rowid`, order), query.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to query records: %w", err)
	}
	defer rows.Close()

	matched := make([]*types.Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan record: %w", err)
		}
		if !storage.MatchesAll(record, query.Where) {
			continue
		}
		matched = append(matched, record)
		if len(matched) >= query.Limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: record scan failed: %w", err)
	}
	return matched, nil
}

// Close implements storage.EntityStore.
func (s *Store) Close() error {
	return s.db.Close()
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanRecord.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*types.Record, error) {
	var record types.Record
	var createdAt, data, metadata string

	if err := row.Scan(&record.WorkspaceID, &record.ID, &record.Type,
		&createdAt, &data, &metadata); err != nil {
		return nil, err
	}

	ts, err := time.Parse(timeFormat, createdAt)
	if err != nil {
		return nil, fmt.Errorf("bad created_at %q: %w", createdAt, err)
	}
	record.CreatedAt = ts

	if err := json.Unmarshal([]byte(data), &record.Data); err != nil {
		return nil, fmt.Errorf("bad data payload: %w", err)
	}
	if err := json.Unmarshal([]byte(metadata), &record.Metadata); err != nil {
		return nil, fmt.Errorf("bad metadata payload: %w", err)
	}
	return &record, nil
}

func collectRecords(rows *sql.Rows) ([]*types.Record, error) {
	records := make([]*types.Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: record scan failed: %w", err)
	}
	return records, nil
}

func orEmpty(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return m
}

// Package records is the optional cache of extracted feature records, backed
// by SQLite. Extraction itself stays stateless; the cache only lets callers
// re-fetch a record by ad id without re-uploading the media.
package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	_ "modernc.org/sqlite"

	"adscope/internal/api"
	"adscope/internal/config"
	"adscope/internal/services"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; callers must clear the cache database after a bump.
const schemaVersion = 1

// ErrSchemaMismatch indicates the cache database was created by a different
// schema version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Store persists feature records keyed by ad id.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to the record cache database, creating it and its schema when
// absent.
func Open(cfg *config.Config) (*Store, error) {
	dbPath := cfg.Records.Path
	if dbPath == "" {
		dbPath = filepath.Join(cfg.Paths.DataDir, "records.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (clear the record cache or delete %s)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

// Save upserts a record. Re-extracting identical bytes overwrites the cached
// copy in place since the ad id is content-derived.
func (s *Store) Save(ctx context.Context, record *api.FeatureRecord) error {
	if record == nil || record.AdID == "" {
		return services.Wrap(services.ErrValidation, "records", "save record", "record has no ad id", nil)
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO feature_records (ad_id, modality, record_json, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(ad_id) DO UPDATE SET
            modality = excluded.modality,
            record_json = excluded.record_json,
            updated_at = excluded.updated_at`,
		record.AdID, record.Media.Modality, string(payload), now, now)
	if err != nil {
		return fmt.Errorf("save record %s: %w", record.AdID, err)
	}
	return nil
}

// Get fetches one record by ad id.
func (s *Store) Get(ctx context.Context, adID string) (*api.FeatureRecord, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT record_json FROM feature_records WHERE ad_id = ?", adID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "records", "get record", adID, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", adID, err)
	}
	var record api.FeatureRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", adID, err)
	}
	return &record, nil
}

// List returns all cached records, newest first.
func (s *Store) List(ctx context.Context) ([]api.FeatureRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT record_json FROM feature_records ORDER BY updated_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	records := make([]api.FeatureRecord, 0)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan record row: %w", err)
		}
		var record api.FeatureRecord
		if err := json.Unmarshal([]byte(payload), &record); err != nil {
			return nil, fmt.Errorf("decode record row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate record rows: %w", err)
	}
	return records, nil
}

// Count reports the number of cached records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM feature_records").Scan(&count); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

// Delete removes one cached record by ad id.
func (s *Store) Delete(ctx context.Context, adID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM feature_records WHERE ad_id = ?", adID)
	if err != nil {
		return fmt.Errorf("delete record %s: %w", adID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete record %s: %w", adID, err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "records", "delete record", adID, nil)
	}
	return nil
}

// Clear drops every cached record.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM feature_records"); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	return nil
}

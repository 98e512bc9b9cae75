package cache

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - no schema
// 1 - translations table with created_at index
const currentSchemaVersion = 1

// SQLite keeps translations in a single SQLite file.
type SQLite struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time

	counters
}

// OpenSQLite creates or opens the cache database at path. The database is
// configured with WAL mode and a busy timeout so that several processes
// can share one cache file.
func OpenSQLite(path string, ttl time.Duration) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite cache requires a path")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to cache database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &SQLite{db: db, ttl: ttl, now: time.Now}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version >= currentSchemaVersion {
		return nil
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, key uint64) (*Entry, bool, error) {
	var (
		data    []byte
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT entry, created_at FROM translations WHERE key = ?`, int64(key),
	).Scan(&data, &created)
	if errors.Is(err, sql.ErrNoRows) {
		s.record(false)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}
	if s.ttl > 0 && s.now().After(time.Unix(0, created).Add(s.ttl)) {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM translations WHERE key = ?`, int64(key)); err != nil {
			return nil, false, fmt.Errorf("expire cache entry: %w", err)
		}
		s.record(false)
		return nil, false, nil
	}
	e, err := decodeEntry(data)
	if err != nil {
		return nil, false, err
	}
	s.record(true)
	return e, true, nil
}

func (s *SQLite) Put(ctx context.Context, key uint64, e *Entry) error {
	data, err := encodeEntry(e)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO translations (key, entry, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET entry = excluded.entry, created_at = excluded.created_at
	`, int64(key), data, s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// Purge deletes every entry older than the TTL and returns how many were
// removed. It is a no-op without a TTL.
func (s *SQLite) Purge(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.ttl).UnixNano()
	res, err := s.db.ExecContext(ctx, `DELETE FROM translations WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLite) Stats() Stats { return s.stats() }

func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

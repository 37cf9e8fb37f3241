// Package postgres persists tender records in Postgres.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/tender-acquirer/internal/hash/sha256"
	"github.com/JakeFAU/tender-acquirer/internal/tender"
)

const defaultTable = "tenders"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the connection pool.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// TenderStore upserts records keyed by registry number.
type TenderStore struct {
	pool  execCloser
	table string
}

// NewTenderStore connects a pool from cfg.
func NewTenderStore(ctx context.Context, cfg Config) (*TenderStore, error) {
	if cfg.DSN == "" {
		return nil, errors.New("sink.postgres.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &TenderStore{pool: pool, table: table}, nil
}

// NewTenderStoreWithPool wraps an existing pool.
func NewTenderStoreWithPool(pool execCloser, table string) (*TenderStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &TenderStore{pool: pool, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// EnsureSchema creates the table when it does not exist.
func (s *TenderStore) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	reestr_number  TEXT PRIMARY KEY,
	payload        JSONB NOT NULL,
	payload_sha256 TEXT NOT NULL DEFAULT '',
	archive_url    TEXT,
	source_file    TEXT,
	processed_at   TIMESTAMPTZ,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`, s.table)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// Upsert writes rec, replacing any row with the same registry number. A row
// whose content digest is unchanged is left alone.
func (s *TenderStore) Upsert(ctx context.Context, rec tender.Record) error {
	if s == nil || s.pool == nil {
		return errors.New("tender store is not configured")
	}
	if rec.ReestrNumber == "" {
		return errors.New("reestr_number is required")
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	digest, err := ContentDigest(rec)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
INSERT INTO %[1]s (reestr_number, payload, payload_sha256, archive_url, source_file, processed_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, now())
ON CONFLICT (reestr_number) DO UPDATE SET
	payload = EXCLUDED.payload,
	payload_sha256 = EXCLUDED.payload_sha256,
	archive_url = EXCLUDED.archive_url,
	source_file = EXCLUDED.source_file,
	processed_at = EXCLUDED.processed_at,
	updated_at = now()
WHERE %[1]s.payload_sha256 IS DISTINCT FROM EXCLUDED.payload_sha256`, s.table)

	var processedAt any
	if rec.ProcessedAt != nil {
		processedAt = *rec.ProcessedAt
	}
	if _, err := s.pool.Exec(ctx, query, rec.ReestrNumber, payload, digest, rec.ArchiveURL, rec.SourceFile, processedAt); err != nil {
		return fmt.Errorf("upsert tender %s: %w", rec.ReestrNumber, err)
	}
	return nil
}

// ContentDigest hashes rec without its per-run provenance, so re-reading an
// unchanged notice yields the same digest.
func ContentDigest(rec tender.Record) (string, error) {
	rec.ProcessedAt = nil
	rec.ArchiveIndex = nil
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	return sha256.Hex(data), nil
}

// Close releases the pool.
func (s *TenderStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

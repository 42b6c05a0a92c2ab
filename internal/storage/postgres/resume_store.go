// Package postgres provides a Postgres-backed résumé metadata repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/coverletter/internal/letter"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const defaultTable = "resumes"

// Config controls the Postgres connection pool used for résumé rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type querier interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Close()
}

// ResumeStore reads and writes résumé metadata rows.
type ResumeStore struct {
	pool  querier
	table string
}

// New creates a Postgres-backed ResumeStore using the provided config.
func New(ctx context.Context, cfg Config) (*ResumeStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
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
	return &ResumeStore{
		pool:  pool,
		table: table,
	}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(pool querier, table string) (*ResumeStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	table, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &ResumeStore{pool: pool, table: table}, nil
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

// Close releases the underlying pool resources.
func (s *ResumeStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the résumé table when it does not exist yet.
func (s *ResumeStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	original_filename TEXT NOT NULL,
	blob_path TEXT NOT NULL,
	blob_uri TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	uploaded_at TIMESTAMPTZ NOT NULL,
	last_used_at TIMESTAMPTZ NOT NULL
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create resume table: %w", err)
	}
	return nil
}

// SaveResume upserts a résumé row.
func (s *ResumeStore) SaveResume(ctx context.Context, record letter.ResumeRecord) error {
	if record.ID == "" {
		return fmt.Errorf("record id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	original_filename,
	blob_path,
	blob_uri,
	content_hash,
	uploaded_at,
	last_used_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7
)
ON CONFLICT (id) DO UPDATE SET
	original_filename = EXCLUDED.original_filename,
	blob_path = EXCLUDED.blob_path,
	blob_uri = EXCLUDED.blob_uri,
	content_hash = EXCLUDED.content_hash,
	last_used_at = EXCLUDED.last_used_at`, s.table)

	args := []any{
		record.ID,
		record.OriginalFilename,
		record.BlobPath,
		record.BlobURI,
		record.ContentHash,
		record.UploadedAt,
		record.LastUsedAt,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert resume: %w", err)
	}
	return nil
}

// GetResume fetches a résumé row by ID.
func (s *ResumeStore) GetResume(ctx context.Context, id string) (letter.ResumeRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, columns, s.table)
	record, err := scanRecord(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return letter.ResumeRecord{}, fmt.Errorf("resume %q: %w", id, letter.ErrNotFound)
	}
	if err != nil {
		return letter.ResumeRecord{}, fmt.Errorf("select resume: %w", err)
	}
	return record, nil
}

// ListResumes returns every row, most recently used first.
func (s *ResumeStore) ListResumes(ctx context.Context) ([]letter.ResumeRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY last_used_at DESC, id`, columns, s.table)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list resumes: %w", err)
	}
	defer rows.Close()

	var out []letter.ResumeRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resume: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resumes: %w", err)
	}
	return out, nil
}

// TouchResume sets last_used_at for id.
func (s *ResumeStore) TouchResume(ctx context.Context, id string, at time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET last_used_at = $2 WHERE id = $1`, s.table)
	tag, err := s.pool.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("touch resume: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("resume %q: %w", id, letter.ErrNotFound)
	}
	return nil
}

const columns = "id, original_filename, blob_path, blob_uri, content_hash, uploaded_at, last_used_at"

func scanRecord(row pgx.Row) (letter.ResumeRecord, error) {
	var r letter.ResumeRecord
	err := row.Scan(&r.ID, &r.OriginalFilename, &r.BlobPath, &r.BlobURI, &r.ContentHash, &r.UploadedAt, &r.LastUsedAt)
	return r, err
}

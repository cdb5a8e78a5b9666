package postgres

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"phishguard/internal/storage"
)

// PostgresStore implements storage.Storer on a PostgreSQL pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// New connects to the database and ensures the schema exists.
func New(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	store := &PostgresStore{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS jobs (
	id              TEXT PRIMARY KEY,
	status          TEXT NOT NULL,
	total_count     INTEGER NOT NULL,
	processed_count INTEGER NOT NULL DEFAULT 0,
	created_at      TIMESTAMPTZ NOT NULL,
	completed_at    TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS scans (
	id         TEXT PRIMARY KEY,
	job_id     TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
	url        TEXT NOT NULL,
	risk_score INTEGER NOT NULL,
	verdict    TEXT NOT NULL,
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scans_job_id ON scans (job_id, created_at);
CREATE INDEX IF NOT EXISTS idx_scans_verdict ON scans (verdict);
`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

func randomID(prefix string) string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return prefix + time.Now().UTC().Format("20060102150405")
	}
	return prefix + hex.EncodeToString(b)
}

// CreateJob inserts a new batch job.
func (s *PostgresStore) CreateJob(ctx context.Context, job *storage.Job) error {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO jobs (id, status, total_count, processed_count, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := s.pool.Exec(ctx, query, job.ID, job.Status, job.TotalCount, job.ProcessedCount, job.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

// GetJob retrieves a job and its progress counters.
func (s *PostgresStore) GetJob(ctx context.Context, id string) (*storage.Job, error) {
	query := `SELECT id, status, total_count, processed_count, created_at, completed_at FROM jobs WHERE id = $1`
	var j storage.Job
	err := s.pool.QueryRow(ctx, query, id).Scan(&j.ID, &j.Status, &j.TotalCount, &j.ProcessedCount, &j.CreatedAt, &j.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &j, nil
}

// SaveScan persists one scan outcome and advances the owning job's
// progress in the same transaction.
func (s *PostgresStore) SaveScan(ctx context.Context, row *storage.ScanRow) error {
	if row.ID == "" {
		row.ID = randomID("scan_")
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insert := `INSERT INTO scans (id, job_id, url, risk_score, verdict, data, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := tx.Exec(ctx, insert, row.ID, row.JobID, row.URL, row.RiskScore, row.Verdict, row.Data, row.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert scan: %w", err)
	}

	bump := `
UPDATE jobs SET
	processed_count = processed_count + 1,
	status = CASE WHEN processed_count + 1 >= total_count THEN $1 ELSE $2 END,
	completed_at = CASE WHEN processed_count + 1 >= total_count THEN now() ELSE completed_at END
WHERE id = $3`
	if _, err := tx.Exec(ctx, bump, storage.JobCompleted, storage.JobProcessing, row.JobID); err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListScans retrieves persisted scans, newest first.
func (s *PostgresStore) ListScans(ctx context.Context, params storage.ListScansParams) ([]storage.ScanRow, error) {
	var args []interface{}
	qb := strings.Builder{}
	qb.WriteString("SELECT id, job_id, url, risk_score, verdict, data, created_at FROM scans WHERE 1=1")
	if params.JobID != "" {
		args = append(args, params.JobID)
		qb.WriteString(fmt.Sprintf(" AND job_id = $%d", len(args)))
	}
	if params.Verdict != "" {
		args = append(args, params.Verdict)
		qb.WriteString(fmt.Sprintf(" AND verdict = $%d", len(args)))
	}
	qb.WriteString(" ORDER BY created_at DESC")
	if params.Limit > 0 {
		args = append(args, params.Limit)
		qb.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	}

	rows, err := s.pool.Query(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	defer rows.Close()

	var scans []storage.ScanRow
	for rows.Next() {
		var r storage.ScanRow
		if err := rows.Scan(&r.ID, &r.JobID, &r.URL, &r.RiskScore, &r.Verdict, &r.Data, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		scans = append(scans, r)
	}
	return scans, rows.Err()
}

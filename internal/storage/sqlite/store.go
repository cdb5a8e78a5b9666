package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"phishguard/internal/storage"
)

// SQLiteStore implements storage.Storer on a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// New opens the database file and ensures the schema exists.
func New(ctx context.Context, dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL", dataSourceName))
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	store := &SQLiteStore{db: db}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) migrate(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS jobs (
	id              TEXT PRIMARY KEY,
	status          TEXT NOT NULL,
	total_count     INTEGER NOT NULL,
	processed_count INTEGER NOT NULL DEFAULT 0,
	created_at      TEXT NOT NULL,
	completed_at    TEXT
);

CREATE TABLE IF NOT EXISTS scans (
	id         TEXT PRIMARY KEY,
	job_id     TEXT NOT NULL,
	url        TEXT NOT NULL,
	risk_score INTEGER NOT NULL,
	verdict    TEXT NOT NULL,
	data       TEXT NOT NULL,
	created_at TEXT NOT NULL,
	FOREIGN KEY(job_id) REFERENCES jobs(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_scans_job_id ON scans (job_id, created_at);
CREATE INDEX IF NOT EXISTS idx_scans_verdict ON scans (verdict);
`
	_, err := s.db.ExecContext(ctx, schema)
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
func (s *SQLiteStore) CreateJob(ctx context.Context, job *storage.Job) error {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO jobs (id, status, total_count, processed_count, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, job.ID, job.Status, job.TotalCount, job.ProcessedCount, job.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

// GetJob retrieves a job and its progress counters.
func (s *SQLiteStore) GetJob(ctx context.Context, id string) (*storage.Job, error) {
	query := `SELECT id, status, total_count, processed_count, created_at, completed_at FROM jobs WHERE id = ?`
	var j storage.Job
	var createdAtStr string
	var completedAtStr sql.NullString
	err := s.db.QueryRowContext(ctx, query, id).Scan(&j.ID, &j.Status, &j.TotalCount, &j.ProcessedCount, &createdAtStr, &completedAtStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	j.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAtStr)
	if completedAtStr.Valid {
		t, _ := time.Parse(time.RFC3339Nano, completedAtStr.String)
		j.CompletedAt = &t
	}
	return &j, nil
}

// SaveScan persists one scan outcome and advances the owning job's
// processed count in the same transaction. The job flips to COMPLETED
// when the last URL lands.
func (s *SQLiteStore) SaveScan(ctx context.Context, row *storage.ScanRow) error {
	if row.ID == "" {
		row.ID = randomID("scan_")
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	insert := `INSERT INTO scans (id, job_id, url, risk_score, verdict, data, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insert, row.ID, row.JobID, row.URL, row.RiskScore, row.Verdict, string(row.Data), row.CreatedAt.Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to insert scan: %w", err)
	}

	bump := `
UPDATE jobs SET
	processed_count = processed_count + 1,
	status = CASE WHEN processed_count + 1 >= total_count THEN ? ELSE ? END,
	completed_at = CASE WHEN processed_count + 1 >= total_count THEN ? ELSE completed_at END
WHERE id = ?`
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx, bump, storage.JobCompleted, storage.JobProcessing, now, row.JobID); err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListScans retrieves persisted scans, newest first.
func (s *SQLiteStore) ListScans(ctx context.Context, params storage.ListScansParams) ([]storage.ScanRow, error) {
	var args []interface{}
	qb := strings.Builder{}
	qb.WriteString("SELECT id, job_id, url, risk_score, verdict, data, created_at FROM scans WHERE 1=1")
	if params.JobID != "" {
		args = append(args, params.JobID)
		qb.WriteString(" AND job_id = ?")
	}
	if params.Verdict != "" {
		args = append(args, params.Verdict)
		qb.WriteString(" AND verdict = ?")
	}
	qb.WriteString(" ORDER BY created_at DESC")
	if params.Limit > 0 {
		args = append(args, params.Limit)
		qb.WriteString(" LIMIT ?")
	}

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	defer rows.Close()

	var scans []storage.ScanRow
	for rows.Next() {
		var r storage.ScanRow
		var data, createdAtStr string
		if err := rows.Scan(&r.ID, &r.JobID, &r.URL, &r.RiskScore, &r.Verdict, &data, &createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		r.Data = []byte(data)
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAtStr)
		scans = append(scans, r)
	}
	return scans, rows.Err()
}

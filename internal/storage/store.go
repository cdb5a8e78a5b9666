package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = errors.New("not found")
)

// Job statuses.
const (
	JobPending    = "PENDING"
	JobProcessing = "PROCESSING"
	JobCompleted  = "COMPLETED"
)

// Job tracks a batch of URLs submitted for scanning.
type Job struct {
	ID             string     `json:"job_id"`
	Status         string     `json:"status"`
	TotalCount     int        `json:"total_count"`
	ProcessedCount int        `json:"processed_count"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// ScanRow is one persisted scan outcome. Data holds the full result
// document as produced by the engine.
type ScanRow struct {
	ID        string          `json:"id"`
	JobID     string          `json:"job_id"`
	URL       string          `json:"url"`
	RiskScore int             `json:"risk_score"`
	Verdict   string          `json:"verdict"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

// ListScansParams filters the scan listing.
type ListScansParams struct {
	JobID   string
	Verdict string
	Limit   int
}

// Storer defines the persistence operations shared by the API and the
// worker. SaveScan also advances the owning job's progress counters.
type Storer interface {
	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)

	SaveScan(ctx context.Context, row *ScanRow) error
	ListScans(ctx context.Context, params ListScansParams) ([]ScanRow, error)

	Close() error
}

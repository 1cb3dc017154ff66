// Package jobs defines the asynchronous statement parsing job model and
// the queue abstractions it moves through. Implementations live in
// subpackages; inmemory is the single-instance channel-backed one.
package jobs

import (
	"context"
	"time"

	"github.com/hellboyz13/bankstatement/internal/domain"
)

// Status is the lifecycle state of a parse job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ParseStatementJob describes one document waiting to be parsed. Failure
// handling happens inside the parse pipeline, so a job that fails here is
// terminal; there is no queue-level retry.
type ParseStatementJob struct {
	JobID      string `json:"job_id"`
	DocumentID string `json:"document_id"`
	GCSURI     string `json:"gcs_uri"`
	Filename   string `json:"filename,omitempty"`

	Status Status `json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error is set when Status is failed.
	Error string `json:"error,omitempty"`

	// Result holds the parsed statement once the job completes.
	Result *domain.ParsedStatement `json:"result,omitempty"`
}

// Handler processes one job. A returned error marks the job failed.
type Handler func(ctx context.Context, job *ParseStatementJob) error

// Publisher enqueues parse jobs.
type Publisher interface {
	Publish(ctx context.Context, job *ParseStatementJob) error
	Close() error
}

// Consumer drains the queue and runs jobs through a Handler.
type Consumer interface {
	Start(ctx context.Context, handler Handler) error
	// Stop waits for in-flight jobs, bounded by ctx.
	Stop(ctx context.Context) error
}

// Store tracks job state so clients can poll for completion.
type Store interface {
	SaveJob(ctx context.Context, job *ParseStatementJob) error
	GetJob(ctx context.Context, jobID string) (*ParseStatementJob, error)
	ListJobs(ctx context.Context, filter Filter) ([]*ParseStatementJob, error)
}

// Filter narrows ListJobs results.
type Filter struct {
	DocumentID string
	Status     Status
	Limit      int
	Offset     int
}

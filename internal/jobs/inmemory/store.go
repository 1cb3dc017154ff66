package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/hellboyz13/bankstatement/internal/jobs"
)

// Store keeps job state in memory. Safe for concurrent use; data is lost
// on restart.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*jobs.ParseStatementJob
}

func NewStore() *Store {
	return &Store{
		jobs: make(map[string]*jobs.ParseStatementJob),
	}
}

// SaveJob inserts or updates a job. The stored value is a copy so later
// mutation by the caller cannot race readers.
func (s *Store) SaveJob(ctx context.Context, job *jobs.ParseStatementJob) error {
	if job.JobID == "" {
		return fmt.Errorf("job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	jobCopy := *job
	s.jobs[job.JobID] = &jobCopy
	return nil
}

func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.ParseStatementJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}
	jobCopy := *job
	return &jobCopy, nil
}

func (s *Store) ListJobs(ctx context.Context, filter jobs.Filter) ([]*jobs.ParseStatementJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*jobs.ParseStatementJob
	for _, job := range s.jobs {
		if filter.DocumentID != "" && job.DocumentID != filter.DocumentID {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		jobCopy := *job
		result = append(result, &jobCopy)
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*jobs.ParseStatementJob{}, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

var _ jobs.Store = (*Store)(nil)

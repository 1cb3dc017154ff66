package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hellboyz13/bankstatement/internal/domain"
	"github.com/hellboyz13/bankstatement/internal/jobs"
)

func waitForStatus(t *testing.T, store *Store, jobID string, want jobs.Status) *jobs.ParseStatementJob {
	t.Helper()
	var got *jobs.ParseStatementJob
	require.Eventually(t, func() bool {
		j, err := store.GetJob(context.Background(), jobID)
		if err != nil {
			return false
		}
		got = j
		return j.Status == want
	}, 2*time.Second, 10*time.Millisecond)
	return got
}

func TestQueueProcessesJob(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, 2, store)
	defer q.Close()

	handler := func(ctx context.Context, job *jobs.ParseStatementJob) error {
		job.Result = &domain.ParsedStatement{
			Transactions: []domain.Transaction{{Description: "parsed", Amount: -1}},
		}
		return nil
	}
	require.NoError(t, q.Start(context.Background(), handler))

	job := &jobs.ParseStatementJob{DocumentID: "doc-1", GCSURI: "gs://bucket/doc.pdf"}
	require.NoError(t, q.Publish(context.Background(), job))
	assert.NotEmpty(t, job.JobID)

	done := waitForStatus(t, store, job.JobID, jobs.StatusCompleted)
	assert.NotNil(t, done.StartedAt)
	assert.NotNil(t, done.CompletedAt)
	require.NotNil(t, done.Result)
	assert.Len(t, done.Result.Transactions, 1)
	assert.Empty(t, done.Error)
}

func TestQueueFailedJobIsTerminal(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, 1, store)
	defer q.Close()

	calls := make(chan struct{}, 16)
	handler := func(ctx context.Context, job *jobs.ParseStatementJob) error {
		calls <- struct{}{}
		return errors.New("no transactions found")
	}
	require.NoError(t, q.Start(context.Background(), handler))

	job := &jobs.ParseStatementJob{DocumentID: "doc-2", GCSURI: "gs://bucket/doc.pdf"}
	require.NoError(t, q.Publish(context.Background(), job))

	failed := waitForStatus(t, store, job.JobID, jobs.StatusFailed)
	assert.Equal(t, "no transactions found", failed.Error)

	// No retry: exactly one handler invocation.
	<-calls
	select {
	case <-calls:
		t.Fatal("job was retried")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestQueueRejectsAfterClose(t *testing.T) {
	q := NewQueue(1, 1, NewStore())
	require.NoError(t, q.Close())

	err := q.Publish(context.Background(), &jobs.ParseStatementJob{})
	assert.Error(t, err)

	// Close twice is fine.
	assert.NoError(t, q.Close())
}

func TestStoreListJobs(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.SaveJob(ctx, &jobs.ParseStatementJob{JobID: "a", DocumentID: "doc-1", Status: jobs.StatusPending}))
	require.NoError(t, store.SaveJob(ctx, &jobs.ParseStatementJob{JobID: "b", DocumentID: "doc-1", Status: jobs.StatusCompleted}))
	require.NoError(t, store.SaveJob(ctx, &jobs.ParseStatementJob{JobID: "c", DocumentID: "doc-2", Status: jobs.StatusPending}))

	byDoc, err := store.ListJobs(ctx, jobs.Filter{DocumentID: "doc-1"})
	require.NoError(t, err)
	assert.Len(t, byDoc, 2)

	pending, err := store.ListJobs(ctx, jobs.Filter{Status: jobs.StatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	limited, err := store.ListJobs(ctx, jobs.Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestStoreCopies(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	job := &jobs.ParseStatementJob{JobID: "a", Status: jobs.StatusPending}
	require.NoError(t, store.SaveJob(ctx, job))

	// Mutating the original after save must not affect the stored copy.
	job.Status = jobs.StatusFailed

	got, err := store.GetJob(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusPending, got.Status)
}

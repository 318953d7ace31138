package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/finance-vault/internal/jobs"
)

func waitForStatus(t *testing.T, store *Store, jobID string, want jobs.JobStatus, timeout time.Duration) *jobs.IngestFileJob {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		job, err := store.GetJob(context.Background(), jobID)
		if err == nil && job.Status == want {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	job, _ := store.GetJob(context.Background(), jobID)
	t.Fatalf("job %s never reached %s, last state: %+v", jobID, want, job)
	return nil
}

func TestQueueProcessesJob(t *testing.T) {
	store := NewStore()
	q := NewQueue(4, 2, store)
	defer q.Close()

	handled := make(chan string, 1)
	handler := func(ctx context.Context, job jobs.Job) error {
		handled <- job.GetID()
		return nil
	}
	if err := q.Start(context.Background(), handler); err != nil {
		t.Fatalf("Start: %v", err)
	}

	job := &jobs.IngestFileJob{Path: "/tmp/jan.csv"}
	if err := q.PublishIngestFile(context.Background(), job); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if job.JobID == "" {
		t.Fatal("Publish did not assign a job id")
	}

	select {
	case id := <-handled:
		if id != job.JobID {
			t.Fatalf("handled %s, want %s", id, job.JobID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler never ran")
	}

	done := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted, 2*time.Second)
	if done.CompletedAt == nil {
		t.Error("CompletedAt not set on completion")
	}
}

func TestQueueRetriesThenFails(t *testing.T) {
	store := NewStore()
	q := NewQueue(4, 1, store)
	defer q.Close()

	attempts := make(chan struct{}, 8)
	handler := func(ctx context.Context, job jobs.Job) error {
		attempts <- struct{}{}
		return errors.New("oracle unavailable")
	}
	if err := q.Start(context.Background(), handler); err != nil {
		t.Fatalf("Start: %v", err)
	}

	job := &jobs.IngestFileJob{Path: "/tmp/jan.csv", MaxRetries: 1}
	if err := q.PublishIngestFile(context.Background(), job); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	failed := waitForStatus(t, store, job.JobID, jobs.JobStatusFailed, 5*time.Second)
	if failed.RetryCount != 1 {
		t.Errorf("RetryCount = %d, want 1", failed.RetryCount)
	}
	if failed.Error == "" {
		t.Error("Error not recorded on failure")
	}
	if len(attempts) != 2 {
		t.Errorf("attempts = %d, want 2", len(attempts))
	}
}

func TestQueueHandlerStatusPreserved(t *testing.T) {
	store := NewStore()
	q := NewQueue(4, 1, store)
	defer q.Close()

	handler := func(ctx context.Context, job jobs.Job) error {
		job.(*jobs.IngestFileJob).Status = jobs.JobStatusDuplicate
		return nil
	}
	if err := q.Start(context.Background(), handler); err != nil {
		t.Fatalf("Start: %v", err)
	}

	job := &jobs.IngestFileJob{Path: "/tmp/jan.csv"}
	if err := q.PublishIngestFile(context.Background(), job); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	waitForStatus(t, store, job.JobID, jobs.JobStatusDuplicate, 2*time.Second)
}

func TestQueueClosedRejectsPublish(t *testing.T) {
	q := NewQueue(1, 1, nil)
	if err := q.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := q.PublishIngestFile(context.Background(), &jobs.IngestFileJob{Path: "x"}); err == nil {
		t.Fatal("Publish on closed queue: got nil error")
	}
}

func TestStoreListFilters(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	for _, j := range []*jobs.IngestFileJob{
		{JobID: "a", Path: "/tmp/jan.csv", Status: jobs.JobStatusCompleted},
		{JobID: "b", Path: "/tmp/feb.csv", Status: jobs.JobStatusFailed},
		{JobID: "c", Path: "/tmp/jan.csv", Status: jobs.JobStatusFailed},
	} {
		if err := store.SaveJob(ctx, j); err != nil {
			t.Fatalf("SaveJob: %v", err)
		}
	}

	byPath, err := store.ListJobs(ctx, jobs.JobFilter{Path: "/tmp/jan.csv"})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(byPath) != 2 {
		t.Errorf("by path = %d jobs, want 2", len(byPath))
	}

	byStatus, err := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusFailed})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(byStatus) != 2 {
		t.Errorf("by status = %d jobs, want 2", len(byStatus))
	}
}

package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dvloznov/finance-vault/internal/jobs"
)

// Store is an in-memory implementation of JobStore, safe for concurrent use.
// Data is lost on restart.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*jobs.IngestFileJob
}

// NewStore creates a new in-memory job store.
func NewStore() *Store {
	return &Store{
		jobs: make(map[string]*jobs.IngestFileJob),
	}
}

// SaveJob implements the JobStore interface.
func (s *Store) SaveJob(ctx context.Context, job *jobs.IngestFileJob) error {
	if job.JobID == "" {
		return fmt.Errorf("job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy to avoid external modifications.
	jobCopy := *job
	s.jobs[job.JobID] = &jobCopy

	return nil
}

// GetJob implements the JobStore interface.
func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.IngestFileJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}

	jobCopy := *job
	return &jobCopy, nil
}

// ListJobs implements the JobStore interface.
func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.IngestFileJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*jobs.IngestFileJob

	for _, job := range s.jobs {
		if filter.Path != "" && job.Path != filter.Path {
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
			return []*jobs.IngestFileJob{}, nil
		}
		result = result[filter.Offset:]
	}

	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

var _ jobs.JobStore = (*Store)(nil)

package jobs

import (
	"context"
	"time"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeIngestFile represents a statement file ingestion job.
	JobTypeIngestFile JobType = "ingest_file"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
	// JobStatusDuplicate indicates the file had been ingested before and the
	// job was a no-op.
	JobStatusDuplicate JobStatus = "duplicate"
)

// IngestFileJob represents a job to ingest one statement file from disk.
type IngestFileJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// Path is the filesystem path of the statement file to ingest.
	Path string `json:"path"`

	// FileHash is the content fingerprint, filled in once the file has been
	// hashed by the pipeline.
	FileHash string `json:"file_hash,omitempty"`

	// Persisted is the number of transactions written, filled on completion.
	Persisted int `json:"persisted,omitempty"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	// RetryCount is the number of times this job has been retried.
	RetryCount int `json:"retry_count"`

	// MaxRetries is the maximum number of retries allowed.
	MaxRetries int `json:"max_retries"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *IngestFileJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *IngestFileJob) GetType() JobType {
	return JobTypeIngestFile
}

// GetStatus implements the Job interface.
func (j *IngestFileJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher defines the interface for publishing jobs to a queue.
type Publisher interface {
	// PublishIngestFile publishes a file ingestion job.
	PublishIngestFile(ctx context.Context, job *IngestFileJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler is a function that processes a job.
// It should return an error if the job failed and should be retried.
type JobHandler func(ctx context.Context, job Job) error

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *IngestFileJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*IngestFileJob, error)

	// ListJobs retrieves jobs with optional filtering.
	ListJobs(ctx context.Context, filter JobFilter) ([]*IngestFileJob, error)
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// Path filters jobs by source file path.
	Path string

	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}

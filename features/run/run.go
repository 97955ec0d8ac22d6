package run

import (
	"context"
	"time"
)

const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is one ingestion pass over a file kind, from the moment it is queued on
// NSQ until the worker reports its outcome.
type Run struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind"`
	Collection    string    `json:"collection"`
	Status        string    `json:"status"`
	FilesIngested int       `json:"files_ingested"`
	FilesSkipped  int       `json:"files_skipped"`
	FilesFailed   int       `json:"files_failed"`
	Documents     int       `json:"documents"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Repository interface {
	Save(ctx context.Context, run *Run) error
	List(ctx context.Context) ([]Run, error)
	Get(ctx context.Context, id string) (*Run, error)
	MarkRunning(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string, filesIngested, filesSkipped, filesFailed, documents int) error
	MarkFailed(ctx context.Context, id string, cause string) error
	Count(ctx context.Context) (int, error)
}

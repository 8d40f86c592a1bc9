package job

import "context"

// ListFilter narrows a ledger listing.  An empty Status matches every job.
type ListFilter struct {
	Status Status
	Limit  int
}

// Repository defines the persistence contract for the job ledger.
type Repository interface {
	// Save inserts or replaces the record keyed by JobID.
	Save(ctx context.Context, r *Record) error
	// FindByID returns a JOB_005 error when the job is unknown.
	FindByID(ctx context.Context, jobID string) (*Record, error)
	// List returns the most recently updated jobs first.
	List(ctx context.Context, filter ListFilter) ([]*Record, error)
}

//Personal.AI order the ending

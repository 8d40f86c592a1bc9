package depict

import (
	"context"
	"strings"

	ledger "github.com/turtacn/KeyIP-Depict/internal/domain/job"
	"github.com/turtacn/KeyIP-Depict/pkg/errors"
	dto "github.com/turtacn/KeyIP-Depict/pkg/types/depict"
)

// MaxJobListLimit bounds one listing page.
const MaxJobListLimit = 500

// JobQueryService reads the job ledger.
type JobQueryService interface {
	GetJob(ctx context.Context, jobID string) (*dto.JobInfo, error)
	ListJobs(ctx context.Context, status string, limit int) (*dto.JobList, error)
}

type jobQueryService struct {
	repo ledger.Repository
}

// NewJobQueryService returns a JobQueryService over repo.
func NewJobQueryService(repo ledger.Repository) JobQueryService {
	return &jobQueryService{repo: repo}
}

func (s *jobQueryService) GetJob(ctx context.Context, jobID string) (*dto.JobInfo, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, errors.InvalidParam("job id is required")
	}
	rec, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return JobInfoFromRecord(rec), nil
}

func (s *jobQueryService) ListJobs(ctx context.Context, status string, limit int) (*dto.JobList, error) {
	st, err := ledger.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	if limit < 0 || limit > MaxJobListLimit {
		return nil, errors.InvalidParam("limit out of range").WithDetail("limit must be within [0, 500]")
	}
	recs, err := s.repo.List(ctx, ledger.ListFilter{Status: st, Limit: limit})
	if err != nil {
		return nil, err
	}
	out := &dto.JobList{Jobs: make([]*dto.JobInfo, 0, len(recs))}
	for _, r := range recs {
		out.Jobs = append(out.Jobs, JobInfoFromRecord(r))
	}
	return out, nil
}

// JobInfoFromRecord converts a ledger record to its wire form.
func JobInfoFromRecord(r *ledger.Record) *dto.JobInfo {
	return &dto.JobInfo{
		JobID:       r.JobID,
		Status:      dto.JobStatus(r.Status),
		InputKey:    r.InputKey,
		ResultKey:   r.ResultKey,
		Error:       r.Error,
		Attempts:    r.Attempts,
		Worker:      r.Worker,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		CompletedAt: r.CompletedAt,
	}
}

//Personal.AI order the ending

package depict

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledger "github.com/turtacn/KeyIP-Depict/internal/domain/job"
	"github.com/turtacn/KeyIP-Depict/pkg/errors"
	dto "github.com/turtacn/KeyIP-Depict/pkg/types/depict"
)

func seededLedger(t *testing.T) *memLedger {
	t.Helper()
	l := newMemLedger()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	q, err := ledger.NewRecord("job-q", "inputs/job-q.json", now)
	require.NoError(t, err)
	l.records[q.JobID] = *q

	d, _ := ledger.NewRecord("job-d", "", now)
	require.NoError(t, d.Start("w1", now))
	require.NoError(t, d.Succeed("results/job-d.json", now.Add(time.Second)))
	l.records[d.JobID] = *d
	return l
}

func TestJobQueryService_GetJob(t *testing.T) {
	svc := NewJobQueryService(seededLedger(t))

	info, err := svc.GetJob(context.Background(), " job-d ")
	require.NoError(t, err)
	assert.Equal(t, dto.JobSucceeded, info.Status)
	assert.Equal(t, "results/job-d.json", info.ResultKey)
	assert.Equal(t, 1, info.Attempts)
	require.NotNil(t, info.CompletedAt)

	_, err = svc.GetJob(context.Background(), "missing")
	assert.True(t, errors.IsCode(err, errors.ErrCodeJobNotFound))

	_, err = svc.GetJob(context.Background(), "")
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))
}

func TestJobQueryService_ListJobs(t *testing.T) {
	svc := NewJobQueryService(seededLedger(t))

	all, err := svc.ListJobs(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Len(t, all.Jobs, 2)

	queued, err := svc.ListJobs(context.Background(), "QUEUED", 10)
	require.NoError(t, err)
	require.Len(t, queued.Jobs, 1)
	assert.Equal(t, "job-q", queued.Jobs[0].JobID)
	assert.Equal(t, dto.JobQueued, queued.Jobs[0].Status)

	empty, err := svc.ListJobs(context.Background(), "running", 10)
	require.NoError(t, err)
	assert.NotNil(t, empty.Jobs)
	assert.Empty(t, empty.Jobs)

	_, err = svc.ListJobs(context.Background(), "done", 10)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))

	_, err = svc.ListJobs(context.Background(), "", MaxJobListLimit+1)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))
}

//Personal.AI order the ending

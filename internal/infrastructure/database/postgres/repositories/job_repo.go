// Package repositories implements the domain repositories on PostgreSQL.
package repositories

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/turtacn/KeyIP-Depict/internal/domain/job"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/database/postgres"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/KeyIP-Depict/pkg/errors"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

const jobColumns = `job_id, status, input_key, result_key, error, attempts, worker, created_at, updated_at, completed_at`

const upsertJobSQL = `
INSERT INTO annotation_jobs (` + jobColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (job_id) DO UPDATE SET
	status       = EXCLUDED.status,
	input_key    = CASE WHEN EXCLUDED.input_key <> '' THEN EXCLUDED.input_key ELSE annotation_jobs.input_key END,
	result_key   = EXCLUDED.result_key,
	error        = EXCLUDED.error,
	attempts     = EXCLUDED.attempts,
	worker       = EXCLUDED.worker,
	updated_at   = EXCLUDED.updated_at,
	completed_at = EXCLUDED.completed_at`

const findJobSQL = `SELECT ` + jobColumns + ` FROM annotation_jobs WHERE job_id = $1`

const listJobsSQL = `
SELECT ` + jobColumns + ` FROM annotation_jobs
WHERE ($1 = '' OR status = $1)
ORDER BY updated_at DESC
LIMIT $2`

// queryExecutor abstracts sql.DB and sql.Tx.
type queryExecutor interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// scanner abstracts sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

type postgresJobRepo struct {
	db      queryExecutor
	metrics *prometheus.AppMetrics
	log     logging.Logger
}

// NewPostgresJobRepo returns the ledger repository.  metrics may be nil.
func NewPostgresJobRepo(conn *postgres.Connection, metrics *prometheus.AppMetrics, log logging.Logger) job.Repository {
	if metrics == nil {
		metrics = prometheus.NewNoopAppMetrics()
	}
	return &postgresJobRepo{db: conn.DB(), metrics: metrics, log: log.Named("job_repo")}
}

func (r *postgresJobRepo) Save(ctx context.Context, rec *job.Record) error {
	defer r.observe("save", time.Now())
	_, err := r.db.ExecContext(ctx, upsertJobSQL,
		rec.JobID, string(rec.Status), rec.InputKey, rec.ResultKey, rec.Error,
		rec.Attempts, rec.Worker, rec.CreatedAt, rec.UpdatedAt, nullTime(rec.CompletedAt))
	if err != nil {
		r.log.Error("Failed to save job", logging.String("job_id", rec.JobID), logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save job").WithDetail("job_id=" + rec.JobID)
	}
	return nil
}

func (r *postgresJobRepo) FindByID(ctx context.Context, jobID string) (*job.Record, error) {
	defer r.observe("find", time.Now())
	rec, err := scanJob(r.db.QueryRowContext(ctx, findJobSQL, jobID))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.New(errors.ErrCodeJobNotFound, "annotation job not found").WithDetail("job_id=" + jobID)
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load job").WithDetail("job_id=" + jobID)
	}
	return rec, nil
}

func (r *postgresJobRepo) List(ctx context.Context, filter job.ListFilter) ([]*job.Record, error) {
	defer r.observe("list", time.Now())
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	rows, err := r.db.QueryContext(ctx, listJobsSQL, string(filter.Status), limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list jobs")
	}
	defer rows.Close()

	var out []*job.Record
	for rows.Next() {
		rec, err := scanJob(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan job")
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list jobs")
	}
	return out, nil
}

func (r *postgresJobRepo) observe(op string, start time.Time) {
	prometheus.RecordDBQuery(r.metrics, op, time.Since(start))
}

func scanJob(s scanner) (*job.Record, error) {
	var (
		rec       job.Record
		status    string
		completed sql.NullTime
	)
	if err := s.Scan(&rec.JobID, &status, &rec.InputKey, &rec.ResultKey, &rec.Error,
		&rec.Attempts, &rec.Worker, &rec.CreatedAt, &rec.UpdatedAt, &completed); err != nil {
		return nil, err
	}
	rec.Status = job.Status(status)
	if completed.Valid {
		t := completed.Time
		rec.CompletedAt = &t
	}
	return &rec, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

//Personal.AI order the ending

// Package job models the ledger entry of an asynchronous annotation job.
package job

import (
	"strings"
	"time"

	"github.com/turtacn/KeyIP-Depict/pkg/errors"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusQueued, StatusRunning, StatusSucceeded, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further attempt is expected.  Failed is not
// terminal: the consumer may still redeliver the job.
func (s Status) Terminal() bool {
	return s == StatusSucceeded
}

// ParseStatus accepts a status name in any case.  The empty string yields
// the empty status, meaning "any".
func ParseStatus(name string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(name)))
	if s == "" || s.Valid() {
		return s, nil
	}
	return "", errors.New(errors.ErrCodeBadRequest, "unknown job status").WithDetail(name)
}

// Record is one job in the ledger.
type Record struct {
	JobID       string
	Status      Status
	InputKey    string
	ResultKey   string
	Error       string
	Attempts    int
	Worker      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// NewRecord returns a queued record.
func NewRecord(jobID, inputKey string, now time.Time) (*Record, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, errors.New(errors.ErrCodeJobInvalid, "job_id is required")
	}
	now = now.UTC()
	return &Record{
		JobID:     jobID,
		Status:    StatusQueued,
		InputKey:  inputKey,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Start moves the record to running and counts the attempt.  A running
// record may be restarted after a worker crash.
func (r *Record) Start(worker string, now time.Time) error {
	if r.Status.Terminal() {
		return r.transitionError(StatusRunning)
	}
	r.Status = StatusRunning
	r.Worker = worker
	r.Attempts++
	r.Error = ""
	r.touch(now)
	return nil
}

// Succeed marks the result as stored under resultKey.
func (r *Record) Succeed(resultKey string, now time.Time) error {
	if r.Status != StatusRunning {
		return r.transitionError(StatusSucceeded)
	}
	r.Status = StatusSucceeded
	r.ResultKey = resultKey
	r.Error = ""
	r.complete(now)
	return nil
}

// Fail records the attempt's error.
func (r *Record) Fail(msg string, now time.Time) error {
	if r.Status != StatusRunning {
		return r.transitionError(StatusFailed)
	}
	r.Status = StatusFailed
	r.Error = msg
	r.complete(now)
	return nil
}

func (r *Record) touch(now time.Time) {
	r.UpdatedAt = now.UTC()
}

func (r *Record) complete(now time.Time) {
	r.touch(now)
	t := r.UpdatedAt
	r.CompletedAt = &t
}

func (r *Record) transitionError(to Status) error {
	return errors.New(errors.ErrCodeJobTransition, "illegal job status transition").
		WithDetail(string(r.Status) + " -> " + string(to) + " job_id=" + r.JobID)
}

//Personal.AI order the ending

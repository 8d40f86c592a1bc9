package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/KeyIP-Depict/internal/application/depict"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Depict/pkg/errors"
)

// JobHandler serves the job ledger.
type JobHandler struct {
	jobs   depict.JobQueryService
	logger logging.Logger
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(jobs depict.JobQueryService, logger logging.Logger) *JobHandler {
	return &JobHandler{jobs: jobs, logger: logger.Named("job_handler")}
}

// GetJob handles GET /api/v1/jobs/{jobID}.
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	info, err := h.jobs.GetJob(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// ListJobs handles GET /api/v1/jobs?status=&limit=.
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeAppError(w, errors.InvalidParam("limit must be an integer").WithDetail(v))
			return
		}
		limit = n
	}
	list, err := h.jobs.ListJobs(r.Context(), r.URL.Query().Get("status"), limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *JobHandler) fail(w http.ResponseWriter, err error) {
	if !errors.IsClientError(errors.GetCode(err)) {
		h.logger.Error("Job ledger query failed", logging.Err(err))
	}
	writeAppError(w, err)
}

//Personal.AI order the ending

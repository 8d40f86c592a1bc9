package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Depict/internal/application/depict"
	"github.com/turtacn/KeyIP-Depict/internal/domain/job"
	"github.com/turtacn/KeyIP-Depict/internal/interfaces/http/handlers"
	"github.com/turtacn/KeyIP-Depict/internal/interfaces/http/middleware"
	"github.com/turtacn/KeyIP-Depict/internal/testutil"
	"github.com/turtacn/KeyIP-Depict/pkg/errors"
)

// denyAll refuses every request.
type denyAll struct{ calls int }

func (d *denyAll) Allow(string) (bool, middleware.RateLimitInfo) {
	d.calls++
	return false, middleware.RateLimitInfo{Limit: 1, ResetAt: time.Now().Add(time.Second)}
}

// oneJobLedger knows a single running job.
type oneJobLedger struct{}

func (oneJobLedger) Save(context.Context, *job.Record) error { return nil }

func (oneJobLedger) FindByID(_ context.Context, id string) (*job.Record, error) {
	if id != "job-1" {
		return nil, errors.New(errors.ErrCodeJobNotFound, "annotation job not found")
	}
	return &job.Record{JobID: id, Status: job.StatusRunning, Attempts: 1}, nil
}

func (oneJobLedger) List(context.Context, job.ListFilter) ([]*job.Record, error) {
	return []*job.Record{{JobID: "job-1", Status: job.StatusRunning}}, nil
}

func newTestRouter(t *testing.T, mutate func(*RouterConfig)) (http.Handler, *testutil.MockLogger) {
	t.Helper()
	logger := testutil.NewMockLogger()
	svc := depict.NewService(depict.Config{Defaults: depict.DefaultDefaults()}, nil, nil, logger)
	cfg := RouterConfig{
		AnnotateHandler: handlers.NewAnnotateHandler(svc, logger, 1<<20),
		HealthHandler:   handlers.NewHealthHandler("test"),
		RequestTimeout:  time.Second,
		Logger:          logger,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewRouter(cfg), logger
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewRouter_Routes(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	tests := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodGet, "/readyz", "", http.StatusOK},
		{http.MethodGet, "/api/v1/options", "", http.StatusOK},
		{http.MethodPost, "/api/v1/annotate", `{"molecule":{"atoms":[{"symbol":"C","implicit_h":4}],"bonds":[]}}`, http.StatusOK},
		{http.MethodDelete, "/api/v1/cache", "", http.StatusServiceUnavailable},
		{http.MethodGet, "/api/v1/annotate", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/unknown", "", http.StatusNotFound},
		{http.MethodGet, "/metrics", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.status, serve(h, tt.method, tt.path, tt.body).Code)
		})
	}
}

func TestNewRouter_NilHandlers_NoPanic(t *testing.T) {
	h := NewRouter(RouterConfig{})
	assert.NotPanics(t, func() {
		assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/healthz", "").Code)
	})
}

func TestNewRouter_MetricsHandler(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("depict_up 1\n"))
	})
	h, logger := newTestRouter(t, func(c *RouterConfig) {
		c.MetricsHandler = metrics
		c.MetricsPath = "/internal/metrics"
	})

	rec := serve(h, http.MethodGet, "/internal/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "depict_up")
	assert.Zero(t, len(logger.GetMessages()), "the scrape path is not logged")
}

func TestNewRouter_RateLimitScopedToAPI(t *testing.T) {
	limiter := &denyAll{}
	h, _ := newTestRouter(t, func(c *RouterConfig) { c.RateLimiter = limiter })

	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/healthz", "").Code)
	assert.Zero(t, limiter.calls)

	rec := serve(h, http.MethodGet, "/api/v1/options", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, 1, limiter.calls)
}

func TestNewRouter_RequestIDAndLogging(t *testing.T) {
	h, logger := newTestRouter(t, nil)

	serve(h, http.MethodGet, "/api/v1/options", "")

	require.True(t, logger.HasMessage("info", "HTTP request completed"))
	for _, m := range logger.GetMessages() {
		if m.Message != "HTTP request completed" {
			continue
		}
		id, ok := m.Field("request_id")
		require.True(t, ok)
		assert.NotEmpty(t, id)
	}
}

func TestNewRouter_JobRoutes(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/api/v1/jobs/job-1", "").Code)

	h, _ = newTestRouter(t, func(cfg *RouterConfig) {
		cfg.JobHandler = handlers.NewJobHandler(depict.NewJobQueryService(oneJobLedger{}), cfg.Logger)
	})
	rec := serve(h, http.MethodGet, "/api/v1/jobs/job-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"running"`)

	rec = serve(h, http.MethodGet, "/api/v1/jobs/job-2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "JOB_005")

	rec = serve(h, http.MethodGet, "/api/v1/jobs?status=running", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"job_id":"job-1"`)
}

//Personal.AI order the ending

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Depict/pkg/errors"
	"github.com/turtacn/KeyIP-Depict/pkg/types/depict"
)

// ---------------------------------------------------------------------------
// Test Helpers
// ---------------------------------------------------------------------------

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]Option{WithRetryWait(time.Millisecond, 5*time.Millisecond)}, opts...)
	c, err := NewClient(server.URL, opts...)
	require.NoError(t, err)
	return c
}

type testLogger struct {
	lastMsg string
	count   int32
}

func (l *testLogger) Debugf(format string, args ...interface{}) { l.log(format, args...) }
func (l *testLogger) Infof(format string, args ...interface{})  { l.log(format, args...) }
func (l *testLogger) Errorf(format string, args ...interface{}) { l.log(format, args...) }
func (l *testLogger) log(format string, args ...interface{}) {
	atomic.AddInt32(&l.count, 1)
	l.lastMsg = fmt.Sprintf(format, args...)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func methane() *depict.AnnotateRequest {
	return &depict.AnnotateRequest{Molecule: &depict.MoleculeDTO{
		Atoms: []depict.AtomDTO{{Symbol: "C", ImplicitH: 4}},
	}}
}

// ---------------------------------------------------------------------------
// Constructor
// ---------------------------------------------------------------------------

func TestNewClient(t *testing.T) {
	c, err := NewClient("http://api.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "http://api.example.com", c.BaseURL())
	assert.Equal(t, 3, c.retryMax)
	assert.Contains(t, c.userAgent, "depict-go-sdk/")

	for _, bad := range []string{"", "ftp://invalid", "invalid-url"} {
		_, err := NewClient(bad)
		assert.ErrorIs(t, err, ErrInvalidConfig, bad)
	}
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

func TestClient_RequestHeaders(t *testing.T) {
	var got http.Header
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		writeJSON(w, http.StatusOK, depict.OptionsResponse{})
	}, WithAPIKey("secret"), WithUserAgent("depict-cli/test"))

	_, err := c.Options(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", got.Get("Authorization"))
	assert.Equal(t, "depict-cli/test", got.Get("User-Agent"))
	assert.NotEmpty(t, got.Get("X-Request-ID"))
	assert.Empty(t, got.Get("Content-Type"), "GET carries no body")
}

func TestClient_4xxNotRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"code": "DEP_001", "message": "invalid molecular graph", "detail": "bonds[0].end",
		})
	})

	_, err := c.Annotate(context.Background(), methane())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, errors.ErrCodeInvalidGraph, apiErr.ErrorCode())
	assert.Equal(t, "bonds[0].end", apiErr.Detail)
	assert.True(t, apiErr.IsClientError())
	assert.Contains(t, apiErr.Error(), "DEP_001")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_5xxRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"code": "COMMON_001"})
			return
		}
		writeJSON(w, http.StatusOK, depict.AnnotateResponse{RequestID: "r-1"})
	})

	resp, err := c.Annotate(context.Background(), methane())
	require.NoError(t, err)
	assert.Equal(t, "r-1", resp.RequestID)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_5xxRetryExhausted(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"code": "COMMON_008"})
	}, WithRetryMax(2))

	_, err := c.PurgeCache(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsServerError())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_429RetryAfter(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"code": "COMMON_007"})
			return
		}
		writeJSON(w, http.StatusOK, depict.OptionsResponse{Arrows: []string{"equ"}})
	})

	resp, err := c.Options(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"equ"}, resp.Arrows)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_429WithoutRetries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"code": "COMMON_007", "message": "rate limit exceeded"})
	}, WithRetryMax(0))

	_, err := c.Options(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsRateLimited())
	assert.True(t, apiErr.IsClientError())
}

func TestClient_NonJSONError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "404 page not found")
	})

	_, err := c.Options(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "404 page not found", apiErr.Message)
	assert.Equal(t, errors.CodeUnknown, apiErr.ErrorCode())
}

func TestClient_ContextCanceled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, depict.OptionsResponse{})
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Options(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_NetworkErrorLogged(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	logger := &testLogger{}
	c, err := NewClient(url, WithLogger(logger), WithRetryMax(1), WithRetryWait(time.Millisecond, time.Millisecond))
	require.NoError(t, err)

	_, err = c.Options(context.Background())
	require.Error(t, err)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&logger.count), int32(2))
}

// ---------------------------------------------------------------------------
// API methods
// ---------------------------------------------------------------------------

func TestClient_Annotate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/annotate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req depict.AnnotateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "always", req.Options.Dative)
		writeJSON(w, http.StatusOK, depict.AnnotateResponse{
			RequestID: "abc",
			Molecule:  req.Molecule,
			Stats:     depict.AnnotateStats{Atoms: 1},
		})
	})

	req := methane()
	req.Options.Dative = "always"
	resp, err := c.Annotate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "abc", resp.RequestID)
	assert.Equal(t, 1, resp.Stats.Atoms)
}

func TestClient_Annotate_RejectsEmptyRequestLocally(t *testing.T) {
	c := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		t.Fatal("empty request reached the server")
	})
	_, err := c.Annotate(context.Background(), nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEmptyRequest))
}

func TestClient_AnnotateWithQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "explicit", r.URL.Query().Get("hdisp"))
		writeJSON(w, http.StatusOK, depict.AnnotateResponse{})
	})
	_, err := c.AnnotateWithQuery(context.Background(), methane(), map[string][]string{"hdisp": {"explicit"}})
	require.NoError(t, err)
}

func TestClient_PurgeCache(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/cache", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]int64{"deleted": 7})
	})
	n, err := c.PurgeCache(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

func TestClient_GetJob(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		switch r.URL.EscapedPath() {
		case "/api/v1/jobs/job-1":
			writeJSON(w, http.StatusOK, depict.JobInfo{JobID: "job-1", Status: depict.JobRunning, Attempts: 1})
		default:
			writeJSON(w, http.StatusNotFound, map[string]string{
				"code": "JOB_005", "message": "annotation job not found", "detail": "job_id=a/b",
			})
		}
	})

	info, err := c.GetJob(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, depict.JobRunning, info.Status)

	_, err = c.GetJob(context.Background(), "a/b")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, errors.ErrCodeJobNotFound, apiErr.ErrorCode())
}

func TestClient_ListJobs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/jobs", r.URL.Path)
		q := r.URL.Query()
		if q.Get("status") == "failed" {
			assert.Equal(t, "20", q.Get("limit"))
			writeJSON(w, http.StatusOK, depict.JobList{Jobs: []*depict.JobInfo{{JobID: "job-9", Status: depict.JobFailed}}})
			return
		}
		assert.False(t, q.Has("limit"))
		writeJSON(w, http.StatusOK, depict.JobList{Jobs: []*depict.JobInfo{}})
	})

	list, err := c.ListJobs(context.Background(), "failed", 20)
	require.NoError(t, err)
	require.Len(t, list.Jobs, 1)
	assert.Equal(t, "job-9", list.Jobs[0].JobID)

	list, err = c.ListJobs(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Empty(t, list.Jobs)
}

//Personal.AI order the ending

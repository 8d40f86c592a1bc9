package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/turtacn/KeyIP-Depict/pkg/types/depict"
)

// Annotate submits one molecule or reaction for annotation.  Options travel
// in the request body.
func (c *Client) Annotate(ctx context.Context, req *depict.AnnotateRequest) (*depict.AnnotateResponse, error) {
	if req == nil {
		req = &depict.AnnotateRequest{}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var resp depict.AnnotateResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/annotate", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AnnotateWithQuery is Annotate with query-string option overrides, which
// the server applies on top of the body options.
func (c *Client) AnnotateWithQuery(ctx context.Context, req *depict.AnnotateRequest, query url.Values) (*depict.AnnotateResponse, error) {
	var resp depict.AnnotateResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/annotate", query, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Options lists the accepted option values and the server defaults.
func (c *Client) Options(ctx context.Context) (*depict.OptionsResponse, error) {
	var resp depict.OptionsResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/options", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PurgeCache drops every cached annotation result and returns the number of
// keys removed.
func (c *Client) PurgeCache(ctx context.Context) (int64, error) {
	var resp struct {
		Deleted int64 `json:"deleted"`
	}
	if err := c.do(ctx, http.MethodDelete, "/api/v1/cache", nil, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Deleted, nil
}

// GetJob reads one entry of the job ledger.
func (c *Client) GetJob(ctx context.Context, jobID string) (*depict.JobInfo, error) {
	var resp depict.JobInfo
	if err := c.do(ctx, http.MethodGet, "/api/v1/jobs/"+url.PathEscape(jobID), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListJobs lists ledger entries, most recently updated first.  An empty
// status lists every job and a zero limit uses the server default.
func (c *Client) ListJobs(ctx context.Context, status string, limit int) (*depict.JobList, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", status)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var resp depict.JobList
	if err := c.do(ctx, http.MethodGet, "/api/v1/jobs", query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

//Personal.AI order the ending

package handlers

import (
	"net/http"
	"net/url"

	"github.com/turtacn/KeyIP-Depict/internal/application/depict"
	"github.com/turtacn/KeyIP-Depict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Depict/pkg/errors"
	dto "github.com/turtacn/KeyIP-Depict/pkg/types/depict"
)

// AnnotateHandler serves the annotation endpoints.
type AnnotateHandler struct {
	service     depict.Service
	logger      logging.Logger
	maxBodySize int64
}

// NewAnnotateHandler creates a new AnnotateHandler.  A maxBodySize of zero
// leaves request bodies unbounded.
func NewAnnotateHandler(service depict.Service, logger logging.Logger, maxBodySize int64) *AnnotateHandler {
	return &AnnotateHandler{
		service:     service,
		logger:      logger.Named("annotate_handler"),
		maxBodySize: maxBodySize,
	}
}

// Annotate handles POST /api/v1/annotate.
func (h *AnnotateHandler) Annotate(w http.ResponseWriter, r *http.Request) {
	var req dto.AnnotateRequest
	if err := decodeJSON(w, r, h.maxBodySize, &req); err != nil {
		writeAppError(w, err)
		return
	}
	if err := ApplyQueryOptions(r.URL.Query(), &req.Options); err != nil {
		writeAppError(w, err)
		return
	}

	resp, err := h.service.Annotate(r.Context(), &req)
	if err != nil {
		if !errors.IsClientError(errors.GetCode(err)) {
			h.logger.Error("Annotation failed", logging.Err(err), logging.String("request_id", req.RequestID))
		}
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Options handles GET /api/v1/options.
func (h *AnnotateHandler) Options(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Options(r.Context()))
}

// PurgeCacheResponse reports how many cached results were dropped.
type PurgeCacheResponse struct {
	Deleted int64 `json:"deleted"`
}

// PurgeCache handles DELETE /api/v1/cache.
func (h *AnnotateHandler) PurgeCache(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.PurgeCache(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PurgeCacheResponse{Deleted: n})
}

// ApplyQueryOptions overlays the short option names of the query string on
// opts.  Query parameters win over the body.
func ApplyQueryOptions(q url.Values, opts *dto.AnnotateOptions) error {
	if v := q.Get("hdisp"); v != "" {
		opts.HydrogenDisplay = v
	}
	if v := q.Get("dat"); v != "" {
		opts.Dative = v
	}
	if v := q.Get("arw"); v != "" {
		opts.Arrow = v
	}
	for name, dst := range map[string]**bool{
		"suppressh":  &opts.SuppressHydrogens,
		"hydrates":   &opts.Hydrates,
		"sync":       &opts.Sync,
		"mapchanges": &opts.MapChanges,
	} {
		if !q.Has(name) {
			continue
		}
		b, err := depict.ParseBool(q.Get(name))
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInvalidOption, "invalid value for "+name).
				WithDetail(q.Get(name))
		}
		*dst = &b
	}
	return nil
}

//Personal.AI order the ending

// Common helper functions for HTTP handlers.

package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/turtacn/KeyIP-Depict/pkg/errors"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// writeAppError maps an error to its HTTP status and renders it.  Server-side
// failures keep their code but the message is replaced by the code's default
// so that internal causes never leak to callers.
func writeAppError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == errors.CodeUnknown {
		code = errors.ErrCodeInternal
	}
	status := errors.HTTPStatusForCode(code)

	resp := ErrorResponse{Code: code.String(), Message: errors.DefaultMessageForCode(code)}
	var ae *errors.AppError
	if status < http.StatusInternalServerError && stderrors.As(err, &ae) {
		resp.Message = ae.Message
		resp.Detail = ae.Detail
	}
	writeJSON(w, status, resp)
}

// decodeJSON reads a size-limited JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst interface{}) error {
	body := io.Reader(r.Body)
	if maxBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.New(errors.ErrCodeGraphTooLarge, "request body too large")
		}
		if stderrors.Is(err, io.EOF) {
			return errors.New(errors.ErrCodeEmptyRequest, errors.DefaultMessageForCode(errors.ErrCodeEmptyRequest))
		}
		return errors.Wrap(err, errors.ErrCodeBadRequest, "malformed JSON body").WithDetail(err.Error())
	}
	return nil
}

//Personal.AI order the ending

// Package http provides the gateway's HTTP surface: the reverse proxies,
// the local organization and check-in API, and the operational endpoints.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/wellgate/wellgate/app"
	"github.com/wellgate/wellgate/domain/envelope"
)

// writeSuccess writes a success envelope with the given payload.
func writeSuccess(w http.ResponseWriter, status int, data any, meta *envelope.PaginationMeta) {
	env, err := envelope.NewSuccess(data, meta)
	if err != nil {
		writeFailure(w, nil, http.StatusInternalServerError, "internal server error", nil)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// writeFailure writes a failure envelope. The request is optional; when
// present its path and method are stamped into the body.
func writeFailure(w http.ResponseWriter, r *http.Request, status int, message string, fields map[string]any) {
	path, method := "", ""
	if r != nil {
		path = r.URL.Path
		method = r.Method
	}
	f := envelope.NewFailure(status, message, path, method, time.Now())
	f.Errors = fields

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(f)
}

// writeServiceError maps a service error onto a failure envelope. Unknown
// error types become opaque 500s.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *app.Error
	if errors.As(err, &appErr) {
		writeFailure(w, r, appErr.Status, appErr.Message, appErr.Fields)
		return
	}
	writeFailure(w, r, http.StatusInternalServerError, "internal server error", nil)
}

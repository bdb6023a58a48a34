// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/adscan/internal/adstore"
	"github.com/ManuGH/adscan/internal/faults"
	"github.com/ManuGH/adscan/internal/jobs"
	netpolicy "github.com/ManuGH/adscan/internal/platform/net"
)

// errorBody is the JSON shape of every non-2xx response.
type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status code and a stable error token.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, faults.ErrConfiguration):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: faults.Kind(err), Detail: err.Error()})
	case errors.Is(err, netpolicy.ErrSourceNotAllowed):
		writeJSON(w, http.StatusForbidden, errorBody{Error: "source_not_allowed", Detail: err.Error()})
	case errors.Is(err, adstore.ErrInvalidChannel):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_channel", Detail: err.Error()})
	case errors.Is(err, jobs.ErrQueueFull):
		w.Header().Set("Retry-After", "30")
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "queue_full"})
	case errors.Is(err, jobs.ErrStopped):
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "shutting_down"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal_error"})
	}
}

// writeBadRequest writes a 400 for malformed input that never reached
// validation.
func writeBadRequest(w http.ResponseWriter, detail string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Detail: detail})
}

// writeNotFound writes a 404 Not Found response
func writeNotFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found"})
}

package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/hearth/internal/household"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func errorBody(msg, code string) map[string]string {
	return map[string]string{"error": msg, "code": code}
}

// statusFor maps a failure kind to an HTTP status.
func statusFor(kind household.Kind) int {
	switch kind {
	case household.KindValidation:
		return http.StatusBadRequest
	case household.KindNotFound:
		return http.StatusNotFound
	case household.KindPermission:
		return http.StatusForbidden
	case household.KindConflict:
		return http.StatusConflict
	case household.KindResourceState, household.KindBusinessRule:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeError renders a classified failure as JSON. Unclassified errors
// become opaque 500s; the detail goes to the log, not the client.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	kind := household.KindOf(err)
	if kind == 0 {
		logger.Error("internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error", "internal"))
		return
	}
	writeJSON(w, statusFor(kind), errorBody(err.Error(), kind.String()))
}

// decodeJSON decodes the request body into v, writing a 400 on failure.
// Returns false when the caller should stop.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON", "validation"))
		return false
	}
	return true
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"pickup-route-service/internal/services"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// writeServiceError maps the typed service failures onto HTTP statuses.
// Everything unrecognized is a 500 with the detail kept in the log.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var constraintErr *services.ConstraintError
	var incompleteErr *services.IncompletePickupsError

	switch {
	case errors.As(err, &constraintErr):
		writeError(w, r, http.StatusBadRequest, constraintErr.Error())

	case errors.As(err, &incompleteErr):
		writeJSON(w, r, http.StatusConflict, map[string]any{
			"error":       incompleteErr.Error(),
			"student_ids": incompleteErr.StudentIDs,
		})

	case errors.Is(err, services.ErrRouteNotFound),
		errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrPickupNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())

	case errors.Is(err, services.ErrSessionConflict),
		errors.Is(err, services.ErrInvalidState):
		writeError(w, r, http.StatusConflict, err.Error())

	case errors.Is(err, services.ErrDependencyUnavailable):
		writeError(w, r, http.StatusServiceUnavailable, err.Error())

	default:
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Request failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

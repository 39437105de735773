package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"eventmigrate/backend/internal/importer"
	"eventmigrate/backend/internal/source"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// importErrorStatus maps an import failure to a response status.
func importErrorStatus(err error) int {
	var identityErr *importer.IdentityResolutionError
	var remoteErr *source.RemoteError
	switch {
	case errors.Is(err, importer.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.As(err, &identityErr):
		return http.StatusUnprocessableEntity
	case source.IsUnauthorized(err):
		return http.StatusForbidden
	case errors.As(err, &remoteErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

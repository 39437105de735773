package handlers

import (
	"errors"
	"net/http"
	"strings"

	"eventmigrate/backend/internal/source"
)

// ListSourceEvents lists the events of the source account owning the given
// e-mail address. The API key is passed in the X-Source-Api-Key header.
func (h *Handler) ListSourceEvents(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	apiKey := strings.TrimSpace(r.Header.Get("X-Source-Api-Key"))
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if apiKey == "" || h.validator.Var(email, "required,email") != nil {
		writeError(w, http.StatusBadRequest, "X-Source-Api-Key header and email query are required")
		return
	}
	client, err := h.source(apiKey)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	userID, err := client.FindUserID(ctx, email)
	if err != nil {
		h.writeSourceError(w, r, "find_source_user", err)
		return
	}
	events, err := client.UserEvents(ctx, userID)
	if err != nil {
		h.writeSourceError(w, r, "list_source_events", err)
		return
	}
	logger.Info("action", "action", "list_source_events", "status", "ok", "count", len(events))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"userId": userID,
		"events": events,
	})
}

func (h *Handler) writeSourceError(w http.ResponseWriter, r *http.Request, action string, err error) {
	logger := h.loggerForRequest(r)
	switch {
	case errors.Is(err, source.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, source.ErrAccountAmbiguous):
		writeError(w, http.StatusConflict, err.Error())
	case source.IsUnauthorized(err):
		logger.Warn("action", "action", action, "status", "invalid_api_key")
		writeError(w, http.StatusForbidden, "invalid source api key")
	default:
		logger.Error("action", "action", action, "status", "remote_error", "error", err)
		writeError(w, http.StatusBadGateway, "source api error")
	}
}

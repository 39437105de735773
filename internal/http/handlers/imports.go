package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"eventmigrate/backend/internal/importer"
	authmw "eventmigrate/backend/internal/http/middleware"
	"eventmigrate/backend/internal/models"

	"github.com/go-chi/chi/v5"
)

// syncImportTimeout bounds a synchronous import. Large events should go
// through the job queue instead.
const syncImportTimeout = 10 * time.Minute

func (h *Handler) decodeImportRequest(w http.ResponseWriter, r *http.Request, action string) (importer.Request, bool) {
	logger := h.loggerForRequest(r)
	var req importer.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("action", "action", action, "status", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid json")
		return req, false
	}
	req.Organizer = strings.TrimSpace(req.Organizer)
	req.APIKey = strings.TrimSpace(req.APIKey)
	if err := h.validator.Struct(req); err != nil {
		logger.Warn("action", "action", action, "status", "invalid_request", "error", err)
		writeError(w, http.StatusBadRequest, "organizer, apiKey and eventIds are required")
		return req, false
	}
	return req, true
}

// RunImport imports the requested events and answers with their slugs.
func (h *Handler) RunImport(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	req, ok := h.decodeImportRequest(w, r, "run_import")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), syncImportTimeout)
	defer cancel()
	slugs, err := h.importer.ImportEvents(ctx, req)
	if err != nil {
		status := importErrorStatus(err)
		logger.Error("action", "action", "run_import", "status", "failed", "http_status", status, "error", err)
		body := map[string]interface{}{"error": err.Error()}
		var eventErr *importer.EventImportError
		if errors.As(err, &eventErr) {
			body["eventId"] = eventErr.EventID
		}
		writeJSON(w, status, body)
		return
	}
	logger.Info("action", "action", "run_import", "status", "ok", "slugs", slugs)
	writeJSON(w, http.StatusOK, map[string]interface{}{"slugs": slugs})
}

// EnqueueImport stores the request as a background job.
func (h *Handler) EnqueueImport(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	req, ok := h.decodeImportRequest(w, r, "enqueue_import")
	if !ok {
		return
	}
	operator, _ := authmw.OperatorFromContext(r.Context())

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	job, err := h.jobs.CreateImportJob(ctx, models.ImportJob{
		Organizer:    req.Organizer,
		APIKey:       req.APIKey,
		EventIDs:     req.EventIDs,
		WithVouchers: req.WithVouchers,
		WithOrders:   req.WithOrders,
		CreatedBy:    operator,
	})
	if err != nil {
		logger.Error("action", "action", "enqueue_import", "status", "db_error", "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	logger.Info("action", "action", "enqueue_import", "status", "queued", "job_id", job.ID)
	writeJSON(w, http.StatusAccepted, job)
}

// GetImportJob reports the state of a background job.
func (h *Handler) GetImportJob(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	id := chi.URLParam(r, "id")

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	job, err := h.jobs.GetImportJob(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		logger.Error("action", "action", "get_import_job", "status", "db_error", "job_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

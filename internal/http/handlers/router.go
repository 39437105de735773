package handlers

import (
	"net/http"
	"time"

	"eventmigrate/backend/internal/http/middleware"
	"eventmigrate/backend/internal/rate"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Login attempts allowed per client address and window.
const (
	loginAttempts = 10
	loginWindow   = time.Minute
)

// NewRouter mounts the import API. Everything except login and the health
// check requires an operator token.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(h.logger))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.With(
		middleware.Throttle(rate.NewWindowLimiter(loginAttempts, loginWindow)),
		chimw.Timeout(10*time.Second),
	).Post("/auth/admin", h.AuthAdmin)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(h.cfg.JWTSecret))
		r.Post("/imports", h.RunImport)
		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(time.Minute))
			r.Post("/imports/jobs", h.EnqueueImport)
			r.Get("/imports/jobs/{id}", h.GetImportJob)
			r.Get("/source/events", h.ListSourceEvents)
		})
	})
	return r
}

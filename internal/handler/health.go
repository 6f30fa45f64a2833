package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Paul-Karonji/Juba-Errands/internal/ports"
	"github.com/go-chi/chi/v5"
)

// HealthHandler exposes a readiness check.
type HealthHandler struct {
	DB ports.HealthChecker
}

func (h HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
}

func (h HealthHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, database := "ok", "up"
	code := http.StatusOK
	if err := h.DB.Health(ctx); err != nil {
		status, database = "degraded", "down"
		code = http.StatusServiceUnavailable
	}
	writeRawJSON(w, code, map[string]string{
		"status":    status,
		"database":  database,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

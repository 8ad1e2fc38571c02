package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/bookdrop/bookdrop/internal/api/models"
	"github.com/bookdrop/bookdrop/internal/api/response"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version string
	db      Pinger
}

// NewOpsHandler creates a new OpsHandler. db may be nil when the service runs
// without a database (in-memory mode).
func NewOpsHandler(version string, db Pinger) *OpsHandler {
	return &OpsHandler{
		version: version,
		db:      db,
	}
}

// HealthCheck handles GET /health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status:  "ok",
		Version: h.version,
	})
}

// ReadinessCheck handles GET /ready - readiness check including dependencies.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.Ping(ctx); err != nil {
			response.ServiceUnavailable(w, r, "database unreachable")
			return
		}
	}

	response.JSON(w, r, http.StatusOK, models.Health{Status: "ok"})
}

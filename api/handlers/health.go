package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/agentroute/agentroute/kg"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	store   kg.Store
	logger  *zap.Logger
	started time.Time
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(store kg.Store, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		store:   store,
		logger:  logger.With(zap.String("component", "health_handler")),
		started: time.Now(),
	}
}

// HandleHealth is the liveness probe. GET /health
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(h.started).String(),
	})
}

// HandleReady is the readiness probe: healthy only when the graph
// store answers. GET /ready
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Warn("readiness check failed", zap.Error(err))
		WriteJSON(w, http.StatusServiceUnavailable, Response{
			Success:   false,
			Error:     &ErrorInfo{Code: "STORE_ERROR", Message: "graph store unreachable", Retryable: true},
			Timestamp: time.Now(),
		})
		return
	}
	WriteSuccess(w, map[string]string{"status": "ready"})
}

// HandleVersion reports build metadata. GET /version
func (h *HealthHandler) HandleVersion(version, buildTime, gitCommit string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteSuccess(w, map[string]string{
			"version":    version,
			"build_time": buildTime,
			"git_commit": gitCommit,
		})
	}
}

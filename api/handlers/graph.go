package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/agentroute/agentroute/kg"
)

// GraphHandler serves the knowledge graph visualization export and the
// aggregated routing metrics.
type GraphHandler struct {
	store  kg.Store
	logger *zap.Logger
}

// NewGraphHandler creates a graph handler.
func NewGraphHandler(store kg.Store, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{
		store:  store,
		logger: logger.With(zap.String("component", "graph_handler")),
	}
}

// HandleVisualization exports the reference graph as nodes and edges.
// GET /visualization/kg
func (h *GraphHandler) HandleVisualization(w http.ResponseWriter, r *http.Request) {
	view, err := h.store.GraphExport(r.Context())
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, view)
}

// metricsWindow is the trailing window for the recent accuracy trend.
const metricsWindow = 30 * 24 * time.Hour

// HandleRoutingMetrics returns aggregate decision statistics.
// GET /metrics/routing
func (h *GraphHandler) HandleRoutingMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.store.RoutingMetrics(r.Context(), metricsWindow)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteSuccess(w, map[string]interface{}{
		"total_decisions":       m.TotalDecisions,
		"average_confidence":    m.AverageConfidence,
		"agent_performance":     m.AgentPerformance,
		"recent_accuracy_trend": m.RecentAccuracy,
		"window_days":           int(metricsWindow.Hours() / 24),
	})
}

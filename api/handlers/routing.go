package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/agentroute/agentroute/routing"
	"github.com/agentroute/agentroute/types"
)

// RoutingHandler serves routing requests and candidate introspection.
type RoutingHandler struct {
	router *routing.Router
	logger *zap.Logger
}

// NewRoutingHandler creates a routing handler.
func NewRoutingHandler(router *routing.Router, logger *zap.Logger) *RoutingHandler {
	return &RoutingHandler{
		router: router,
		logger: logger.With(zap.String("component", "routing_handler")),
	}
}

// RouteRequest is the POST /routing/ payload.
type RouteRequest struct {
	Query string `json:"query"`
}

// HandleRoute routes a natural-language request to the best agent.
func (h *RoutingHandler) HandleRoute(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "query must not be empty"), h.logger)
		return
	}

	result, err := h.router.Route(r.Context(), req.Query)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteSuccess(w, result)
}

// HandleListCandidates returns the ranked candidate list for a task
// type without recording a decision. GET /routing/candidates?task_type=&domain=
func (h *RoutingHandler) HandleListCandidates(w http.ResponseWriter, r *http.Request) {
	taskType := r.URL.Query().Get("task_type")
	if taskType == "" {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "task_type is required"), h.logger)
		return
	}
	domain := r.URL.Query().Get("domain")

	ranked, stage, err := h.router.ListCandidates(r.Context(), taskType, domain)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteSuccess(w, map[string]interface{}{
		"task_type":       taskType,
		"domain":          domain,
		"retrieval_stage": stage,
		"candidates":      ranked,
	})
}

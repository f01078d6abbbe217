package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/agentroute/agentroute/routing"
	"github.com/agentroute/agentroute/types"
)

// ExplainHandler serves read-only decision explanations.
type ExplainHandler struct {
	router *routing.Router
	logger *zap.Logger
}

// NewExplainHandler creates an explanation handler.
func NewExplainHandler(router *routing.Router, logger *zap.Logger) *ExplainHandler {
	return &ExplainHandler{
		router: router,
		logger: logger.With(zap.String("component", "explain_handler")),
	}
}

func (h *ExplainHandler) params(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	decisionID := r.PathValue("id")
	taskType := r.URL.Query().Get("task_type")
	if taskType == "" {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "task_type is required"), h.logger)
		return "", "", false
	}
	return decisionID, taskType, true
}

// HandleExplanation reconstructs why a decision routed where it did.
// GET /explanations/routing/{id}/explanation?task_type=
func (h *ExplainHandler) HandleExplanation(w http.ResponseWriter, r *http.Request) {
	decisionID, taskType, ok := h.params(w, r)
	if !ok {
		return
	}

	exp, err := h.router.Explain(r.Context(), decisionID, taskType)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteSuccess(w, exp)
}

// HandlePath returns the explanation shaped as a graph traversal.
// GET /explanations/routing/{id}/path?task_type=
func (h *ExplainHandler) HandlePath(w http.ResponseWriter, r *http.Request) {
	decisionID, taskType, ok := h.params(w, r)
	if !ok {
		return
	}

	trav, err := h.router.Path(r.Context(), decisionID, taskType)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteSuccess(w, trav)
}

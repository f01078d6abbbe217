package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/agentroute/agentroute/routing"
	"github.com/agentroute/agentroute/types"
)

// FeedbackHandler records task outcomes for routing decisions.
type FeedbackHandler struct {
	router *routing.Router
	logger *zap.Logger
}

// NewFeedbackHandler creates a feedback handler.
func NewFeedbackHandler(router *routing.Router, logger *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		router: router,
		logger: logger.With(zap.String("component", "feedback_handler")),
	}
}

// FeedbackRequest is the POST /feedback/ payload.
type FeedbackRequest struct {
	DecisionID string `json:"decision_id"`
	Success    *bool  `json:"success"`
}

// HandleFeedback applies the outcome of a routed task. A second
// submission for the same decision id is rejected.
func (h *FeedbackHandler) HandleFeedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if req.DecisionID == "" {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "decision_id is required"), h.logger)
		return
	}
	if req.Success == nil {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "success is required"), h.logger)
		return
	}

	result, err := h.router.ApplyFeedback(r.Context(), req.DecisionID, *req.Success)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteSuccess(w, result)
}

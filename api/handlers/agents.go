package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/agentroute/agentroute/kg"
)

// AgentsHandler serves agent introspection endpoints.
type AgentsHandler struct {
	store  kg.Store
	logger *zap.Logger
}

// NewAgentsHandler creates an agents handler.
func NewAgentsHandler(store kg.Store, logger *zap.Logger) *AgentsHandler {
	return &AgentsHandler{
		store:  store,
		logger: logger.With(zap.String("component", "agents_handler")),
	}
}

// HandleList returns every registered agent. GET /agents/
func (h *AgentsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	agents, err := h.store.ListAgents(r.Context())
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, map[string]interface{}{"agents": agents})
}

// HandleGet returns one agent with its capabilities. GET /agents/{name}
func (h *AgentsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	agent, err := h.store.GetAgent(r.Context(), name)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	caps, err := h.store.AgentCapabilities(r.Context(), name)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteSuccess(w, map[string]interface{}{
		"agent":        agent,
		"capabilities": caps,
	})
}

// HandleSimilar returns agents sharing capabilities with the named
// agent. GET /agents/{name}/similar
func (h *AgentsHandler) HandleSimilar(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	similar, err := h.store.SimilarAgents(r.Context(), name)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	limit := 3
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if len(similar) > limit {
		similar = similar[:limit]
	}

	WriteSuccess(w, map[string]interface{}{
		"agent":   name,
		"similar": similar,
	})
}

// HandleDecisions returns the agent's recent routing decisions.
// GET /agents/{name}/decisions?limit=
func (h *AgentsHandler) HandleDecisions(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	// Store applies the default window when no limit is given.
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	if _, err := h.store.GetAgent(r.Context(), name); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	decisions, err := h.store.AgentDecisions(r.Context(), name, limit)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteSuccess(w, map[string]interface{}{
		"agent":     name,
		"decisions": decisions,
	})
}

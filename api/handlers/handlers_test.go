package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/agentroute/agentroute/classifier"
	"github.com/agentroute/agentroute/config"
	"github.com/agentroute/agentroute/kg"
	"github.com/agentroute/agentroute/routing"
)

func newTestMux(t *testing.T) (*http.ServeMux, kg.Store, *routing.Router) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	logger := zap.NewNop()
	store := kg.NewGormStore(db, logger)
	ctx := context.Background()
	require.NoError(t, store.EnsureSchema(ctx))
	require.NoError(t, kg.Seed(ctx, store, logger))

	router := routing.NewRouter(store, classifier.NewKeywordClassifier(logger),
		config.DefaultRoutingConfig(), logger, nil)

	routingHandler := NewRoutingHandler(router, logger)
	feedbackHandler := NewFeedbackHandler(router, logger)
	explainHandler := NewExplainHandler(router, logger)
	agentsHandler := NewAgentsHandler(store, logger)
	graphHandler := NewGraphHandler(store, logger)
	healthHandler := NewHealthHandler(store, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /routing/", routingHandler.HandleRoute)
	mux.HandleFunc("GET /routing/candidates", routingHandler.HandleListCandidates)
	mux.HandleFunc("POST /feedback/", feedbackHandler.HandleFeedback)
	mux.HandleFunc("GET /explanations/routing/{id}/explanation", explainHandler.HandleExplanation)
	mux.HandleFunc("GET /explanations/routing/{id}/path", explainHandler.HandlePath)
	mux.HandleFunc("GET /agents/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("task_type") != "" {
			routingHandler.HandleListCandidates(w, r)
			return
		}
		agentsHandler.HandleList(w, r)
	})
	mux.HandleFunc("GET /agents/{name}", agentsHandler.HandleGet)
	mux.HandleFunc("GET /agents/{name}/similar", agentsHandler.HandleSimilar)
	mux.HandleFunc("GET /agents/{name}/decisions", agentsHandler.HandleDecisions)
	mux.HandleFunc("GET /visualization/kg", graphHandler.HandleVisualization)
	mux.HandleFunc("GET /metrics/routing", graphHandler.HandleRoutingMetrics)
	mux.HandleFunc("GET /health", healthHandler.HandleHealth)
	mux.HandleFunc("GET /ready", healthHandler.HandleReady)

	return mux, store, router
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body interface{}) (*httptest.ResponseRecorder, Response) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func routeOnce(t *testing.T, mux *http.ServeMux, query string) map[string]interface{} {
	t.Helper()
	rec, resp := doJSON(t, mux, http.MethodPost, "/routing/", RouteRequest{Query: query})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.True(t, resp.Success)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	return data
}

func TestHandleRoute(t *testing.T) {
	mux, _, _ := newTestMux(t)

	data := routeOnce(t, mux, "search for the latest clinical studies on diabetes treatment")

	assert.NotEmpty(t, data["decision_id"])
	assert.Equal(t, "MedicalResearchAgent", data["chosen_agent"])
	assert.Equal(t, "WebSearchTask", data["task_type"])
	assert.Equal(t, "medical", data["domain"])
	assert.NotEmpty(t, data["top_candidates"])
}

func TestHandleRouteValidation(t *testing.T) {
	mux, _, _ := newTestMux(t)

	rec, resp := doJSON(t, mux, http.MethodPost, "/routing/", RouteRequest{Query: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "INVALID_REQUEST", resp.Error.Code)

	req := httptest.NewRequest(http.MethodPost, "/routing/", bytes.NewReader([]byte("{not json")))
	rec2 := httptest.NewRecorder()
	mux.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusBadRequest, rec2.Code)
}

func TestHandleListCandidates(t *testing.T) {
	mux, _, _ := newTestMux(t)

	rec, resp := doJSON(t, mux, http.MethodGet, "/routing/candidates?task_type=WebSearchTask&domain=medical", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "all_capabilities_domain", data["retrieval_stage"])
	assert.NotEmpty(t, data["candidates"])

	rec, resp = doJSON(t, mux, http.MethodGet, "/routing/candidates", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", resp.Error.Code)
}

func TestHandleFeedback(t *testing.T) {
	mux, _, _ := newTestMux(t)

	data := routeOnce(t, mux, "summarize this quarterly report")
	decisionID := data["decision_id"].(string)

	yes := true
	rec, resp := doJSON(t, mux, http.MethodPost, "/feedback/", FeedbackRequest{DecisionID: decisionID, Success: &yes})
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)
	fb := resp.Data.(map[string]interface{})
	assert.Equal(t, "SummarizationAgent", fb["agent_name"])
	assert.Equal(t, "SUCCESS", fb["outcome"])

	// resubmission is rejected, not double-counted
	rec, resp = doJSON(t, mux, http.MethodPost, "/feedback/", FeedbackRequest{DecisionID: decisionID, Success: &yes})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", resp.Error.Code)

	// unknown decision id
	rec, resp = doJSON(t, mux, http.MethodPost, "/feedback/", FeedbackRequest{DecisionID: "missing", Success: &yes})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)

	// missing fields
	rec, _ = doJSON(t, mux, http.MethodPost, "/feedback/", FeedbackRequest{DecisionID: decisionID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleExplanationAndPath(t *testing.T) {
	mux, _, _ := newTestMux(t)

	data := routeOnce(t, mux, "search for the latest news on solar power")
	decisionID := data["decision_id"].(string)

	rec, resp := doJSON(t, mux, http.MethodGet,
		fmt.Sprintf("/explanations/routing/%s/explanation?task_type=WebSearchTask", decisionID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	exp := resp.Data.(map[string]interface{})
	assert.Equal(t, decisionID, exp["decision_id"])
	assert.Equal(t, float64(1), exp["matching_capability_count"])

	rec, resp = doJSON(t, mux, http.MethodGet,
		fmt.Sprintf("/explanations/routing/%s/path?task_type=WebSearchTask", decisionID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	trav := resp.Data.(map[string]interface{})
	assert.Len(t, trav["steps"], 6)

	// task type mismatch is a 404, not an error
	rec, resp = doJSON(t, mux, http.MethodGet,
		fmt.Sprintf("/explanations/routing/%s/explanation?task_type=SummarizationTask", decisionID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)

	// missing task_type
	rec, _ = doJSON(t, mux, http.MethodGet,
		fmt.Sprintf("/explanations/routing/%s/explanation", decisionID), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAgents(t *testing.T) {
	mux, _, _ := newTestMux(t)

	rec, resp := doJSON(t, mux, http.MethodGet, "/agents/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Len(t, data["agents"], 6)

	rec, resp = doJSON(t, mux, http.MethodGet, "/agents/WebSearchAgent", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data = resp.Data.(map[string]interface{})
	assert.Equal(t, []interface{}{"general_qa", "web_search"}, data["capabilities"])

	rec, resp = doJSON(t, mux, http.MethodGet, "/agents/NoSuchAgent", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)

	// with a task_type the listing becomes the ranked candidate view
	rec, resp = doJSON(t, mux, http.MethodGet, "/agents/?task_type=SummarizationTask", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data = resp.Data.(map[string]interface{})
	assert.Equal(t, "SummarizationTask", data["task_type"])
	assert.NotEmpty(t, data["candidates"])
}

func TestHandleSimilarAgents(t *testing.T) {
	mux, _, _ := newTestMux(t)

	rec, resp := doJSON(t, mux, http.MethodGet, "/agents/WebSearchAgent/similar?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	similar := data["similar"].([]interface{})
	require.Len(t, similar, 1)

	// both candidates share two capabilities; truncation keeps the one
	// with the higher capability level
	first := similar[0].(map[string]interface{})
	assert.Equal(t, "MedicalResearchAgent", first["name"])
	assert.InDelta(t, 0.95, first["capability_level"].(float64), 1e-9)
}

func TestHandleAgentDecisions(t *testing.T) {
	mux, _, _ := newTestMux(t)

	resolved := routeOnce(t, mux, "summarize the attached minutes")
	yes := true
	rec, _ := doJSON(t, mux, http.MethodPost, "/feedback/",
		FeedbackRequest{DecisionID: resolved["decision_id"].(string), Success: &yes})
	require.Equal(t, http.StatusOK, rec.Code)

	// a second decision without feedback stays out of the history
	routeOnce(t, mux, "summarize this week's standup notes")

	rec, resp := doJSON(t, mux, http.MethodGet, "/agents/SummarizationAgent/decisions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	decisions := data["decisions"].([]interface{})
	require.Len(t, decisions, 1)
	first := decisions[0].(map[string]interface{})
	assert.Equal(t, resolved["decision_id"], first["id"])
	assert.Equal(t, "SUCCESS", first["outcome"])

	rec, _ = doJSON(t, mux, http.MethodGet, "/agents/NoSuchAgent/decisions", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleVisualization(t *testing.T) {
	mux, _, _ := newTestMux(t)

	rec, resp := doJSON(t, mux, http.MethodGet, "/visualization/kg", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.NotEmpty(t, data["nodes"])
	assert.NotEmpty(t, data["edges"])
}

func TestHandleRoutingMetrics(t *testing.T) {
	mux, _, _ := newTestMux(t)

	routeOnce(t, mux, "search for something")

	rec, resp := doJSON(t, mux, http.MethodGet, "/metrics/routing", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(1), data["total_decisions"])
	assert.Contains(t, data, "agent_performance")
	assert.Contains(t, data, "recent_accuracy_trend")
}

func TestHealthEndpoints(t *testing.T) {
	mux, _, _ := newTestMux(t)

	rec, resp := doJSON(t, mux, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	rec, resp = doJSON(t, mux, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
}

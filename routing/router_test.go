package routing

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"pgregory.net/rapid"

	"github.com/agentroute/agentroute/config"
	"github.com/agentroute/agentroute/kg"
	"github.com/agentroute/agentroute/types"
)

type stubClassifier struct {
	query *types.AnalyzedQuery
	err   error
}

func (s *stubClassifier) Classify(_ context.Context, rawText string) (*types.AnalyzedQuery, error) {
	if s.err != nil {
		return nil, s.err
	}
	q := *s.query
	q.RawText = rawText
	return &q, nil
}

func newStore(t *testing.T, seeded bool) *kg.GormStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	store := kg.NewGormStore(db, zap.NewNop())
	require.NoError(t, store.EnsureSchema(context.Background()))
	if seeded {
		require.NoError(t, kg.Seed(context.Background(), store, zap.NewNop()))
	}
	return store
}

func query(taskType, domain string) *types.AnalyzedQuery {
	q := types.NewAnalyzedQuery("test query")
	q.TaskType = taskType
	q.Domain = domain
	return q
}

func newRouter(store kg.Store, q *types.AnalyzedQuery) *Router {
	return NewRouter(store, &stubClassifier{query: q}, config.DefaultRoutingConfig(), zap.NewNop(), nil)
}

func TestRouteHappyPath(t *testing.T) {
	store := newStore(t, true)
	router := newRouter(store, query("WebSearchTask", "medical"))

	res, err := router.Route(context.Background(), "find clinical trials for diabetes")
	require.NoError(t, err)

	assert.Equal(t, "MedicalResearchAgent", res.ChosenAgent)
	assert.False(t, res.Substituted)
	assert.Equal(t, StageAllCapabilitiesDomain, res.RetrievalStage)
	assert.NotEmpty(t, res.DecisionID)
	require.NotEmpty(t, res.TopCandidates)
	assert.LessOrEqual(t, len(res.TopCandidates), 3)
	assert.Equal(t, "MedicalResearchAgent", res.TopCandidates[0].Agent.Name)
	require.NotNil(t, res.TieBreakingInfo)
	assert.True(t, res.TieBreakingInfo.DomainExactMatch)

	// the decision is persisted as PENDING with the query text
	dec, err := store.GetDecision(context.Background(), res.DecisionID)
	require.NoError(t, err)
	assert.Equal(t, types.OutcomePending, dec.Outcome)
	assert.Equal(t, "find clinical trials for diabetes", dec.QueryText)
}

func TestRouteNoCandidates(t *testing.T) {
	store := newStore(t, false) // empty graph
	router := newRouter(store, query("WebSearchTask", "general"))

	res, err := router.Route(context.Background(), "anything at all")
	require.NoError(t, err)

	assert.Equal(t, "PerplexityFallbackAgent", res.ChosenAgent)
	assert.Equal(t, 0.5, res.Confidence)
	assert.Empty(t, res.TopCandidates)
	assert.Equal(t, StageNone, res.RetrievalStage)
	assert.Nil(t, res.TieBreakingInfo)
	assert.NotEmpty(t, res.DecisionID)
}

func TestRouteLowConfidenceSubstitution(t *testing.T) {
	store := newStore(t, false)
	ctx := context.Background()

	weak := types.Agent{
		Name:                "WeakAgent",
		CapabilityLevel:     0.2,
		DomainExpertise:     "obscure",
		HistoricalAccuracy:  0.3,
		ResponseTime:        0.9,
		CostEfficiency:      0.2,
		Reliability:         0.3,
		SpecializationScore: 0.2,
	}
	require.NoError(t, store.UpsertAgent(ctx, &weak))
	require.NoError(t, store.UpsertCapability(ctx, types.Capability{Name: "niche_skill"}))
	require.NoError(t, store.UpsertTaskType(ctx, types.TaskType{Name: "NicheTask", RequiredCapabilities: []string{"niche_skill"}}))
	require.NoError(t, store.SetAgentCapabilities(ctx, "WeakAgent", []string{"niche_skill"}))
	require.NoError(t, store.SetFallback(ctx, "WeakAgent", "StrongBackup", 0))

	router := newRouter(store, query("NicheTask", "unrelated"))
	res, err := router.Route(ctx, "do the niche thing")
	require.NoError(t, err)

	assert.Equal(t, "StrongBackup", res.ChosenAgent)
	assert.True(t, res.Substituted)
	assert.GreaterOrEqual(t, res.Confidence, 0.6)
	// ranking still reports the true top candidate
	assert.Equal(t, "WeakAgent", res.TopCandidates[0].Agent.Name)
	assert.Less(t, res.TopCandidates[0].Score, 0.6)
}

func TestRouteLowConfidenceWithoutFallbackKeepsChoice(t *testing.T) {
	store := newStore(t, false)
	ctx := context.Background()

	weak := types.Agent{
		Name:               "LonelyAgent",
		CapabilityLevel:    0.2,
		DomainExpertise:    "obscure",
		HistoricalAccuracy: 0.3,
		ResponseTime:       0.9,
	}
	require.NoError(t, store.UpsertAgent(ctx, &weak))
	require.NoError(t, store.UpsertCapability(ctx, types.Capability{Name: "niche_skill"}))
	require.NoError(t, store.UpsertTaskType(ctx, types.TaskType{Name: "NicheTask", RequiredCapabilities: []string{"niche_skill"}}))
	require.NoError(t, store.SetAgentCapabilities(ctx, "LonelyAgent", []string{"niche_skill"}))

	router := newRouter(store, query("NicheTask", "unrelated"))
	res, err := router.Route(ctx, "do the niche thing")
	require.NoError(t, err)

	assert.Equal(t, "LonelyAgent", res.ChosenAgent)
	assert.False(t, res.Substituted)
	// the caller is told the true score
	assert.Equal(t, res.TopCandidates[0].Score, res.Confidence)
	assert.Less(t, res.Confidence, 0.6)
}

func TestRouteClassificationErrorAborts(t *testing.T) {
	store := newStore(t, true)
	router := NewRouter(store,
		&stubClassifier{err: types.NewError(types.ErrClassification, "bad output")},
		config.DefaultRoutingConfig(), zap.NewNop(), nil)

	_, err := router.Route(context.Background(), "anything")
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrClassification))

	// nothing was persisted
	m, err := store.RoutingMetrics(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), m.TotalDecisions)
}

func TestRetrievalLadderStages(t *testing.T) {
	store := newStore(t, true)
	ctx := context.Background()
	retriever := NewRetriever(store, zap.NewNop())

	// stage 1: capability and domain both satisfiable
	_, stage, err := retriever.Retrieve(ctx, "WebSearchTask", "medical", 0)
	require.NoError(t, err)
	assert.Equal(t, StageAllCapabilitiesDomain, stage)

	// stage 2: capability satisfiable only outside the domain family
	_, stage, err = retriever.Retrieve(ctx, "CodeDebuggingTask", "finance", 0)
	require.NoError(t, err)
	assert.Equal(t, StageAllCapabilities, stage)

	// stage 3: nobody covers the capabilities, domain family still matches
	require.NoError(t, store.UpsertCapability(ctx, types.Capability{Name: "quantum"}))
	require.NoError(t, store.UpsertTaskType(ctx, types.TaskType{Name: "ExoticTask", RequiredCapabilities: []string{"quantum"}}))
	agents, stage, err := retriever.Retrieve(ctx, "ExoticTask", "medical", 0)
	require.NoError(t, err)
	assert.Equal(t, StageDomain, stage)
	assert.NotEmpty(t, agents)
}

func TestRetrievalLadderLastResort(t *testing.T) {
	store := newStore(t, false)
	ctx := context.Background()

	only := types.Agent{Name: "OnlyAgent", CapabilityLevel: 0.5, DomainExpertise: "medical"}
	require.NoError(t, store.UpsertAgent(ctx, &only))

	retriever := NewRetriever(store, zap.NewNop())
	agents, stage, err := retriever.Retrieve(ctx, "UnknownTask", "legal", 0)
	require.NoError(t, err)
	assert.Equal(t, StageAllAgents, stage)
	require.Len(t, agents, 1)
	assert.Equal(t, "OnlyAgent", agents[0].Name)
}

func TestRetrievalLadderEmptyStore(t *testing.T) {
	store := newStore(t, false)
	retriever := NewRetriever(store, zap.NewNop())

	agents, stage, err := retriever.Retrieve(context.Background(), "WebSearchTask", "general", 0)
	require.NoError(t, err)
	assert.Empty(t, agents)
	assert.Equal(t, StageNone, stage)
}

func TestApplyFeedback(t *testing.T) {
	store := newStore(t, true)
	router := newRouter(store, query("SummarizationTask", "general"))
	ctx := context.Background()

	res, err := router.Route(ctx, "summarize this for me")
	require.NoError(t, err)

	fb, err := router.ApplyFeedback(ctx, res.DecisionID, true)
	require.NoError(t, err)
	assert.Equal(t, res.ChosenAgent, fb.AgentName)
	assert.Equal(t, types.OutcomeSuccess, fb.Outcome)
	assert.InDelta(t, 1.0, fb.UpdatedAccuracy, 1e-9)

	dec, err := store.GetDecision(ctx, res.DecisionID)
	require.NoError(t, err)
	assert.Equal(t, types.OutcomeSuccess, dec.Outcome)

	_, err = router.ApplyFeedback(ctx, res.DecisionID, false)
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidRequest))

	_, err = router.ApplyFeedback(ctx, "missing-id", true)
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrNotFound))
}

func TestFeedbackAccuracyProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store := newStore(t, true)
		router := newRouter(store, query("VisualizationTask", "general"))
		ctx := context.Background()

		outcomes := rapid.SliceOfN(rapid.Bool(), 1, 12).Draw(rt, "outcomes")

		var successes, failures int64
		for _, ok := range outcomes {
			res, err := router.Route(ctx, "plot something")
			if err != nil {
				rt.Fatalf("route: %v", err)
			}
			if _, err := router.ApplyFeedback(ctx, res.DecisionID, ok); err != nil {
				rt.Fatalf("feedback: %v", err)
			}
			if ok {
				successes++
			} else {
				failures++
			}
		}

		agent, err := store.GetAgent(ctx, "VisualizationAgent")
		if err != nil {
			rt.Fatalf("get agent: %v", err)
		}
		if agent.SuccessCount != successes || agent.FailureCount != failures {
			rt.Fatalf("counters %d/%d, want %d/%d",
				agent.SuccessCount, agent.FailureCount, successes, failures)
		}
		want := float64(successes) / float64(successes+failures)
		if diff := agent.HistoricalAccuracy - want; diff > 1e-9 || diff < -1e-9 {
			rt.Fatalf("accuracy %v, want %v", agent.HistoricalAccuracy, want)
		}
	})
}

func TestListCandidates(t *testing.T) {
	store := newStore(t, true)
	router := newRouter(store, query("WebSearchTask", "general"))

	ranked, stage, err := router.ListCandidates(context.Background(), "WebSearchTask", "")
	require.NoError(t, err)
	assert.Equal(t, StageAllCapabilitiesDomain, stage)
	require.NotEmpty(t, ranked)

	// introspection records nothing
	m, err := store.RoutingMetrics(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), m.TotalDecisions)
}

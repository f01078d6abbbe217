package kg

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/agentroute/agentroute/types"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// in-memory sqlite: keep everything on one connection
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	store := NewGormStore(db, zap.NewNop())
	require.NoError(t, store.EnsureSchema(context.Background()))
	return store
}

func newSeededStore(t *testing.T) *GormStore {
	t.Helper()
	store := newTestStore(t)
	require.NoError(t, Seed(context.Background(), store, zap.NewNop()))
	return store
}

func TestSeedIsIdempotent(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()

	agents, err := store.ListAgents(ctx)
	require.NoError(t, err)
	before := len(agents)

	require.NoError(t, Seed(ctx, store, zap.NewNop()))

	agents, err = store.ListAgents(ctx)
	require.NoError(t, err)
	assert.Len(t, agents, before)
}

func TestSeedPreservesLearnedAccuracy(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()

	q := types.NewAnalyzedQuery("debug my function")
	dec, err := store.CreateDecision(ctx, q, "CodeAnalysisAgent", 0.8)
	require.NoError(t, err)
	require.NoError(t, store.ApplyOutcome(ctx, dec.ID, types.OutcomeSuccess))

	require.NoError(t, Seed(ctx, store, zap.NewNop()))

	agent, err := store.GetAgent(ctx, "CodeAnalysisAgent")
	require.NoError(t, err)
	assert.Equal(t, int64(1), agent.SuccessCount)
	assert.Equal(t, 1.0, agent.HistoricalAccuracy)
}

func TestGetAgentNotFound(t *testing.T) {
	store := newSeededStore(t)

	_, err := store.GetAgent(context.Background(), "NoSuchAgent")
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrNotFound))
}

func TestTaskTypeRequirements(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()

	caps, err := store.TaskTypeRequirements(ctx, "WebSearchTask")
	require.NoError(t, err)
	assert.Equal(t, []string{"web_search"}, caps)

	_, err = store.TaskTypeRequirements(ctx, "UnknownTask")
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrNotFound))
}

func TestAgentsWithAllCapabilitiesDomainOrdering(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()

	agents, err := store.AgentsWithAllCapabilities(ctx, "WebSearchTask", "medical", 0)
	require.NoError(t, err)
	require.NotEmpty(t, agents)

	// exact-domain match ranks ahead of higher-accuracy general agents
	assert.Equal(t, "MedicalResearchAgent", agents[0].Name)
	for _, a := range agents {
		assert.Contains(t, []string{"medical", types.DomainGeneral}, a.DomainExpertise)
	}
}

func TestAgentsWithAllCapabilitiesHonorsMinLevel(t *testing.T) {
	store := newSeededStore(t)

	agents, err := store.AgentsWithAllCapabilities(context.Background(), "WebSearchTask", types.DomainGeneral, 0.99)
	require.NoError(t, err)
	assert.Empty(t, agents)
}

func TestAgentsWithAllCapabilitiesUnknownTaskType(t *testing.T) {
	store := newSeededStore(t)

	agents, err := store.AgentsWithAllCapabilities(context.Background(), "NoSuchTask", "general", 0)
	require.NoError(t, err)
	assert.Empty(t, agents)
}

func TestAgentsWithAllCapabilitiesAnyDomain(t *testing.T) {
	store := newSeededStore(t)

	agents, err := store.AgentsWithAllCapabilitiesAnyDomain(context.Background(), "CodeDebuggingTask", 0)
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, "CodeAnalysisAgent", agents[0].Name)
}

func TestAgentsByDomain(t *testing.T) {
	store := newSeededStore(t)

	agents, err := store.AgentsByDomain(context.Background(), "software", 0)
	require.NoError(t, err)
	require.NotEmpty(t, agents)
	assert.Equal(t, "CodeAnalysisAgent", agents[0].Name)
}

func TestAllAgentsRankedOrdering(t *testing.T) {
	store := newSeededStore(t)

	agents, err := store.AllAgentsRanked(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, agents)

	for i := 1; i < len(agents); i++ {
		assert.GreaterOrEqual(t, agents[i-1].CapabilityLevel, agents[i].CapabilityLevel)
	}
}

func TestFallbackAgent(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()

	fb, err := store.FallbackAgent(ctx, "CodeAnalysisAgent")
	require.NoError(t, err)
	assert.Equal(t, SystemFallbackAgentName, fb)

	_, err = store.FallbackAgent(ctx, SystemFallbackAgentName)
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrNotFound))
}

func TestCreateDecision(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()

	q := types.NewAnalyzedQuery("find recent papers on CRISPR")
	q.TaskType = "WebSearchTask"
	q.Domain = "medical"

	dec, err := store.CreateDecision(ctx, q, "MedicalResearchAgent", 0.87)
	require.NoError(t, err)
	assert.NotEmpty(t, dec.ID)
	assert.Equal(t, "MedicalResearchAgent", dec.AgentName)
	assert.Equal(t, types.OutcomePending, dec.Outcome)

	got, err := store.GetDecision(ctx, dec.ID)
	require.NoError(t, err)
	assert.Equal(t, "find recent papers on CRISPR", got.QueryText)
	assert.Equal(t, 0.87, got.Confidence)
}

func TestCreateDecisionAutoCreatesAgent(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()

	_, err := store.CreateDecision(ctx, types.NewAnalyzedQuery("hello"), "BrandNewAgent", 0.5)
	require.NoError(t, err)

	agent, err := store.GetAgent(ctx, "BrandNewAgent")
	require.NoError(t, err)
	assert.Equal(t, types.DomainGeneral, agent.DomainExpertise)
}

func TestGetDecisionNotFound(t *testing.T) {
	store := newSeededStore(t)

	_, err := store.GetDecision(context.Background(), "no-such-id")
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrNotFound))
}

func TestApplyOutcomeUpdatesAccuracy(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()

	// 2 successes, 1 failure -> accuracy 2/3
	outcomes := []types.Outcome{types.OutcomeSuccess, types.OutcomeSuccess, types.OutcomeFailure}
	for _, o := range outcomes {
		dec, err := store.CreateDecision(ctx, types.NewAnalyzedQuery("q"), "VisualizationAgent", 0.7)
		require.NoError(t, err)
		require.NoError(t, store.ApplyOutcome(ctx, dec.ID, o))
	}

	agent, err := store.GetAgent(ctx, "VisualizationAgent")
	require.NoError(t, err)
	assert.Equal(t, int64(2), agent.SuccessCount)
	assert.Equal(t, int64(1), agent.FailureCount)
	assert.InDelta(t, 2.0/3.0, agent.HistoricalAccuracy, 1e-9)
}

func TestApplyOutcomeExactlyOnce(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()

	dec, err := store.CreateDecision(ctx, types.NewAnalyzedQuery("q"), "WebSearchAgent", 0.9)
	require.NoError(t, err)

	require.NoError(t, store.ApplyOutcome(ctx, dec.ID, types.OutcomeSuccess))

	err = store.ApplyOutcome(ctx, dec.ID, types.OutcomeFailure)
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidRequest))

	// the duplicate did not double-count
	agent, err := store.GetAgent(ctx, "WebSearchAgent")
	require.NoError(t, err)
	assert.Equal(t, int64(1), agent.SuccessCount)
	assert.Equal(t, int64(0), agent.FailureCount)
}

func TestApplyOutcomeValidation(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()

	err := store.ApplyOutcome(ctx, "no-such-id", types.OutcomeSuccess)
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrNotFound))

	dec, err := store.CreateDecision(ctx, types.NewAnalyzedQuery("q"), "WebSearchAgent", 0.9)
	require.NoError(t, err)
	err = store.ApplyOutcome(ctx, dec.ID, types.OutcomePending)
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidRequest))
}

func TestAgentDecisions(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		dec, err := store.CreateDecision(ctx, types.NewAnalyzedQuery("summarize this"), "SummarizationAgent", 0.8)
		require.NoError(t, err)
		ids = append(ids, dec.ID)
	}
	require.NoError(t, store.ApplyOutcome(ctx, ids[0], types.OutcomeSuccess))
	require.NoError(t, store.ApplyOutcome(ctx, ids[1], types.OutcomeFailure))

	decs, err := store.AgentDecisions(ctx, "SummarizationAgent", 10)
	require.NoError(t, err)
	assert.Len(t, decs, 2)
	for _, d := range decs {
		assert.NotEqual(t, types.OutcomePending, d.Outcome)
		assert.Equal(t, "SummarizationAgent", d.AgentName)
		assert.Equal(t, "summarize this", d.QueryText)
	}

	decs, err = store.AgentDecisions(ctx, "SummarizationAgent", 1)
	require.NoError(t, err)
	assert.Len(t, decs, 1)
}

// Unresolved decisions stay out of the history until feedback lands.
func TestAgentDecisionsExcludesPending(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()

	dec, err := store.CreateDecision(ctx, types.NewAnalyzedQuery("pending query"), "WebSearchAgent", 0.7)
	require.NoError(t, err)

	decs, err := store.AgentDecisions(ctx, "WebSearchAgent", 0)
	require.NoError(t, err)
	assert.Empty(t, decs)

	require.NoError(t, store.ApplyOutcome(ctx, dec.ID, types.OutcomeSuccess))

	decs, err = store.AgentDecisions(ctx, "WebSearchAgent", 0)
	require.NoError(t, err)
	require.Len(t, decs, 1)
	assert.Equal(t, dec.ID, decs[0].ID)
	assert.Equal(t, types.OutcomeSuccess, decs[0].Outcome)
}

func TestSimilarAgents(t *testing.T) {
	store := newSeededStore(t)

	similar, err := store.SimilarAgents(context.Background(), "WebSearchAgent")
	require.NoError(t, err)
	require.NotEmpty(t, similar)

	names := make(map[string][]string)
	for _, sa := range similar {
		names[sa.Name] = sa.SharedCapabilities
	}
	assert.Equal(t, []string{"general_qa", "web_search"}, names["MedicalResearchAgent"])
	assert.Equal(t, []string{"general_qa", "web_search"}, names[SystemFallbackAgentName])
	assert.NotContains(t, names, "VisualizationAgent")

	_, err = store.SimilarAgents(context.Background(), "NoSuchAgent")
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrNotFound))
}

// Equal capability overlap breaks ties on capability level, then accuracy,
// so a stronger agent is never displaced by a weaker one that sorts earlier
// by name.
func TestSimilarAgentsOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertCapability(ctx, types.Capability{Name: "translation"}))

	target := types.NewAgent("TranslationAgent")
	require.NoError(t, store.UpsertAgent(ctx, target))
	require.NoError(t, store.SetAgentCapabilities(ctx, target.Name, []string{"translation"}))

	weak := types.NewAgent("ApprenticeTranslator")
	weak.CapabilityLevel = 0.1
	weak.HistoricalAccuracy = 0.1
	require.NoError(t, store.UpsertAgent(ctx, weak))
	require.NoError(t, store.SetAgentCapabilities(ctx, weak.Name, []string{"translation"}))

	strong := types.NewAgent("VeteranTranslator")
	strong.CapabilityLevel = 0.95
	strong.HistoricalAccuracy = 0.9
	require.NoError(t, store.UpsertAgent(ctx, strong))
	require.NoError(t, store.SetAgentCapabilities(ctx, strong.Name, []string{"translation"}))

	similar, err := store.SimilarAgents(ctx, target.Name)
	require.NoError(t, err)
	require.Len(t, similar, 2)

	assert.Equal(t, "VeteranTranslator", similar[0].Name)
	assert.Equal(t, "ApprenticeTranslator", similar[1].Name)
	assert.InDelta(t, 0.95, similar[0].CapabilityLevel, 1e-9)
	assert.InDelta(t, 0.9, similar[0].HistoricalAccuracy, 1e-9)

	// equal capability level falls back to accuracy
	weak.CapabilityLevel = 0.95
	weak.HistoricalAccuracy = 0.3
	require.NoError(t, store.UpsertAgent(ctx, weak))

	similar, err = store.SimilarAgents(ctx, target.Name)
	require.NoError(t, err)
	require.Len(t, similar, 2)
	assert.Equal(t, "VeteranTranslator", similar[0].Name)
}

func TestRoutingMetrics(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()

	d1, err := store.CreateDecision(ctx, types.NewAnalyzedQuery("a"), "WebSearchAgent", 0.8)
	require.NoError(t, err)
	d2, err := store.CreateDecision(ctx, types.NewAnalyzedQuery("b"), "WebSearchAgent", 0.6)
	require.NoError(t, err)
	require.NoError(t, store.ApplyOutcome(ctx, d1.ID, types.OutcomeSuccess))
	require.NoError(t, store.ApplyOutcome(ctx, d2.ID, types.OutcomeFailure))

	m, err := store.RoutingMetrics(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), m.TotalDecisions)
	assert.InDelta(t, 0.7, m.AverageConfidence, 1e-9)
	assert.InDelta(t, 0.5, m.RecentAccuracy, 1e-9)

	require.Len(t, m.AgentPerformance, 1)
	perf := m.AgentPerformance[0]
	assert.Equal(t, "WebSearchAgent", perf.AgentName)
	assert.Equal(t, int64(2), perf.Decisions)
	assert.Equal(t, int64(1), perf.Successes)
	assert.InDelta(t, 0.5, perf.SuccessRate, 1e-9)
}

func TestRoutingMetricsEmptyStore(t *testing.T) {
	store := newSeededStore(t)

	m, err := store.RoutingMetrics(context.Background(), 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(0), m.TotalDecisions)
	assert.Equal(t, 0.0, m.AverageConfidence)
	assert.Equal(t, 0.5, m.RecentAccuracy)
}

func TestGraphExport(t *testing.T) {
	store := newSeededStore(t)

	view, err := store.GraphExport(context.Background())
	require.NoError(t, err)

	kinds := make(map[string]int)
	for _, n := range view.Nodes {
		kinds[n.Kind]++
	}
	assert.Equal(t, len(seedAgents), kinds["agent"])
	assert.Equal(t, len(SeedCapabilities), kinds["capability"])
	assert.Equal(t, len(SeedTaskTypes), kinds["task_type"])

	relations := make(map[string]int)
	for _, e := range view.Edges {
		relations[e.Relation]++
	}
	assert.Greater(t, relations["HAS_CAPABILITY"], 0)
	assert.Equal(t, len(SeedTaskTypes), relations["REQUIRES_CAPABILITY"])
	assert.Equal(t, len(seedAgents)-1, relations["FALLBACK_AGENT"])
}

func TestListTaskTypes(t *testing.T) {
	store := newSeededStore(t)

	tts, err := store.ListTaskTypes(context.Background())
	require.NoError(t, err)
	assert.Len(t, tts, len(SeedTaskTypes))

	byName := make(map[string][]string)
	for _, tt := range tts {
		byName[tt.Name] = tt.RequiredCapabilities
	}
	assert.Equal(t, []string{"code_analysis"}, byName["CodeDebuggingTask"])
}

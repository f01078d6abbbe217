package routing

import (
	"context"

	"go.uber.org/zap"

	"github.com/agentroute/agentroute/kg"
	"github.com/agentroute/agentroute/types"
)

// Retrieval stage names, in relaxation order.
const (
	StageAllCapabilitiesDomain = "all_capabilities_domain"
	StageAllCapabilities       = "all_capabilities"
	StageDomain                = "domain"
	StageAllAgents             = "all_agents"
	StageNone                  = "none"
)

// retrievalStage is one predicate in the relaxation chain.
type retrievalStage struct {
	name  string
	fetch func(ctx context.Context) ([]types.Agent, error)
}

// Retriever returns structurally eligible agents for a task type and
// domain, relaxing the match criteria stage by stage until one yields
// results. The result is empty only when the store holds no agents at
// all.
type Retriever struct {
	store  kg.Store
	logger *zap.Logger
}

// NewRetriever creates a candidate retriever.
func NewRetriever(store kg.Store, logger *zap.Logger) *Retriever {
	return &Retriever{
		store:  store,
		logger: logger.With(zap.String("component", "retriever")),
	}
}

// Retrieve runs the relaxation chain. It returns the candidates, the
// name of the stage that produced them (StageNone for an empty store),
// and any store error, which aborts the whole routing request.
func (r *Retriever) Retrieve(ctx context.Context, taskType, domain string, minLevel float64) ([]types.Agent, string, error) {
	stages := []retrievalStage{
		{
			name: StageAllCapabilitiesDomain,
			fetch: func(ctx context.Context) ([]types.Agent, error) {
				return r.store.AgentsWithAllCapabilities(ctx, taskType, domain, minLevel)
			},
		},
		{
			name: StageAllCapabilities,
			fetch: func(ctx context.Context) ([]types.Agent, error) {
				return r.store.AgentsWithAllCapabilitiesAnyDomain(ctx, taskType, minLevel)
			},
		},
		{
			name: StageDomain,
			fetch: func(ctx context.Context) ([]types.Agent, error) {
				return r.store.AgentsByDomain(ctx, domain, minLevel)
			},
		},
		{
			name: StageAllAgents,
			fetch: func(ctx context.Context) ([]types.Agent, error) {
				return r.store.AllAgentsRanked(ctx)
			},
		},
	}

	for _, stage := range stages {
		agents, err := stage.fetch(ctx)
		if err != nil {
			return nil, "", err
		}
		if len(agents) > 0 {
			r.logger.Debug("candidates retrieved",
				zap.String("task_type", taskType),
				zap.String("domain", domain),
				zap.String("stage", stage.name),
				zap.Int("count", len(agents)),
			)
			return agents, stage.name, nil
		}
	}

	return nil, StageNone, nil
}

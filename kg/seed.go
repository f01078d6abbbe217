package kg

import (
	"context"

	"go.uber.org/zap"

	"github.com/agentroute/agentroute/types"
)

// SystemFallbackAgentName is the handler routed to when retrieval
// yields no candidates at all.
const SystemFallbackAgentName = "PerplexityFallbackAgent"

// SeedCapabilities is the reference capability catalog.
var SeedCapabilities = []types.Capability{
	{Name: "web_search", Description: "Search the web and synthesize results"},
	{Name: "code_analysis", Description: "Read, debug and explain source code"},
	{Name: "summarization", Description: "Condense long content into summaries"},
	{Name: "visualization", Description: "Produce charts and visual representations"},
	{Name: "general_qa", Description: "Answer general knowledge questions"},
}

// SeedTaskTypes maps each task category to its required capabilities.
var SeedTaskTypes = []types.TaskType{
	{Name: "WebSearchTask", RequiredCapabilities: []string{"web_search"}},
	{Name: "CodeDebuggingTask", RequiredCapabilities: []string{"code_analysis"}},
	{Name: "SummarizationTask", RequiredCapabilities: []string{"summarization"}},
	{Name: "VisualizationTask", RequiredCapabilities: []string{"visualization"}},
	{Name: "OtherTask", RequiredCapabilities: []string{"general_qa"}},
}

type seedAgent struct {
	agent        types.Agent
	capabilities []string
	fallback     string
}

var seedAgents = []seedAgent{
	{
		agent: types.Agent{
			Name:                "WebSearchAgent",
			CapabilityLevel:     0.9,
			DomainExpertise:     types.DomainGeneral,
			InputFormat:         "text",
			OutputFormat:        "text",
			HistoricalAccuracy:  0.8,
			ResponseTime:        0.3,
			CostEfficiency:      0.7,
			Reliability:         0.9,
			SpecializationScore: 0.6,
			Description:         "Searches the web and synthesizes cited answers",
		},
		capabilities: []string{"web_search", "general_qa"},
		fallback:     SystemFallbackAgentName,
	},
	{
		agent: types.Agent{
			Name:                "CodeAnalysisAgent",
			CapabilityLevel:     0.85,
			DomainExpertise:     "software",
			InputFormat:         "text",
			OutputFormat:        "text",
			HistoricalAccuracy:  0.75,
			ResponseTime:        0.4,
			CostEfficiency:      0.6,
			Reliability:         0.85,
			SpecializationScore: 0.9,
			Description:         "Debugs and explains source code",
		},
		capabilities: []string{"code_analysis"},
		fallback:     SystemFallbackAgentName,
	},
	{
		agent: types.Agent{
			Name:                "SummarizationAgent",
			CapabilityLevel:     0.8,
			DomainExpertise:     types.DomainGeneral,
			InputFormat:         "text",
			OutputFormat:        "text",
			HistoricalAccuracy:  0.85,
			ResponseTime:        0.2,
			CostEfficiency:      0.8,
			Reliability:         0.9,
			SpecializationScore: 0.7,
			Description:         "Condenses documents into concise summaries",
		},
		capabilities: []string{"summarization"},
		fallback:     SystemFallbackAgentName,
	},
	{
		agent: types.Agent{
			Name:                "VisualizationAgent",
			CapabilityLevel:     0.75,
			DomainExpertise:     types.DomainGeneral,
			InputFormat:         "text",
			OutputFormat:        "image",
			HistoricalAccuracy:  0.7,
			ResponseTime:        0.5,
			CostEfficiency:      0.5,
			Reliability:         0.8,
			SpecializationScore: 0.85,
			Description:         "Renders charts and visual representations of data",
		},
		capabilities: []string{"visualization"},
		fallback:     SystemFallbackAgentName,
	},
	{
		agent: types.Agent{
			Name:                "MedicalResearchAgent",
			CapabilityLevel:     0.95,
			DomainExpertise:     "medical",
			InputFormat:         "text",
			OutputFormat:        "text",
			HistoricalAccuracy:  0.6,
			ResponseTime:        0.6,
			CostEfficiency:      0.4,
			Reliability:         0.85,
			SpecializationScore: 0.95,
			Description:         "Answers clinical and biomedical research questions",
		},
		capabilities: []string{"web_search", "general_qa"},
		fallback:     "WebSearchAgent",
	},
	{
		agent: types.Agent{
			Name:                SystemFallbackAgentName,
			CapabilityLevel:     0.7,
			DomainExpertise:     types.DomainGeneral,
			InputFormat:         "text",
			OutputFormat:        "text",
			HistoricalAccuracy:  0.7,
			ResponseTime:        0.3,
			CostEfficiency:      0.9,
			Reliability:         0.95,
			SpecializationScore: 0.3,
			Description:         "General purpose handler of last resort",
		},
		capabilities: []string{"general_qa", "web_search"},
	},
}

// Seed populates the reference graph with the built-in capability
// catalog, task types, and agents. Idempotent: rerunning refreshes the
// reference data without touching the decision audit trail or the
// feedback counters of agents that already exist.
func Seed(ctx context.Context, store Store, logger *zap.Logger) error {
	for _, cap := range SeedCapabilities {
		if err := store.UpsertCapability(ctx, cap); err != nil {
			return err
		}
	}

	for _, tt := range SeedTaskTypes {
		if err := store.UpsertTaskType(ctx, tt); err != nil {
			return err
		}
	}

	for _, sa := range seedAgents {
		agent := sa.agent

		// Preserve learned accuracy across reseeds.
		if existing, err := store.GetAgent(ctx, agent.Name); err == nil {
			agent.HistoricalAccuracy = existing.HistoricalAccuracy
			agent.SuccessCount = existing.SuccessCount
			agent.FailureCount = existing.FailureCount
		} else if !types.IsErrorCode(err, types.ErrNotFound) {
			return err
		}

		if err := store.UpsertAgent(ctx, &agent); err != nil {
			return err
		}
		if err := store.SetAgentCapabilities(ctx, agent.Name, sa.capabilities); err != nil {
			return err
		}
		if sa.fallback != "" {
			if err := store.SetFallback(ctx, agent.Name, sa.fallback, 0); err != nil {
				return err
			}
		}
	}

	logger.Info("knowledge graph seeded",
		zap.Int("capabilities", len(SeedCapabilities)),
		zap.Int("task_types", len(SeedTaskTypes)),
		zap.Int("agents", len(seedAgents)),
	)
	return nil
}

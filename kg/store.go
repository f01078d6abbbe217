package kg

import (
	"context"
	"time"

	"github.com/agentroute/agentroute/types"
)

// SimilarAgent is an agent sharing capabilities with a reference agent.
type SimilarAgent struct {
	Name               string   `json:"name"`
	DomainExpertise    string   `json:"domain_expertise"`
	CapabilityLevel    float64  `json:"capability_level"`
	HistoricalAccuracy float64  `json:"historical_accuracy"`
	SharedCapabilities []string `json:"shared_capabilities"`
}

// AgentPerformance aggregates decision outcomes for one agent.
type AgentPerformance struct {
	AgentName   string  `json:"agent_name"`
	Decisions   int64   `json:"decisions"`
	Successes   int64   `json:"successes"`
	Failures    int64   `json:"failures"`
	SuccessRate float64 `json:"success_rate"`
}

// Metrics summarizes the routing decision audit trail.
type Metrics struct {
	TotalDecisions    int64              `json:"total_decisions"`
	AverageConfidence float64            `json:"average_confidence"`
	AgentPerformance  []AgentPerformance `json:"agent_performance"`
	// RecentAccuracy is the resolved success rate within the trailing
	// window, 0.5 when nothing resolved in the window.
	RecentAccuracy float64       `json:"recent_accuracy"`
	Window         time.Duration `json:"-"`
}

// GraphNode is one node in the visualization export.
type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Kind  string `json:"kind"`
}

// GraphEdge is one relationship in the visualization export.
type GraphEdge struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Relation string `json:"relation"`
}

// GraphView is the full graph shaped for visualization clients.
type GraphView struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// Store is the knowledge graph persistence contract. All methods are
// safe for concurrent use. Read methods may observe slightly stale
// reference data; writes are serialized by the underlying database.
type Store interface {
	// EnsureSchema creates or migrates the graph tables.
	EnsureSchema(ctx context.Context) error

	// UpsertAgent creates or replaces an agent node.
	UpsertAgent(ctx context.Context, agent *types.Agent) error

	// GetAgent returns an agent by name, or a NOT_FOUND error.
	GetAgent(ctx context.Context, name string) (*types.Agent, error)

	// ListAgents returns every agent ordered by name.
	ListAgents(ctx context.Context) ([]types.Agent, error)

	// UpsertCapability creates or replaces a capability node.
	UpsertCapability(ctx context.Context, cap types.Capability) error

	// UpsertTaskType creates or replaces a task type and its
	// REQUIRES_CAPABILITY edges.
	UpsertTaskType(ctx context.Context, tt types.TaskType) error

	// SetAgentCapabilities replaces the agent's HAS_CAPABILITY edges.
	SetAgentCapabilities(ctx context.Context, agentName string, capabilities []string) error

	// SetFallback creates a FALLBACK_AGENT edge. Lower priority wins.
	SetFallback(ctx context.Context, agentName, fallbackName string, priority int) error

	// AgentCapabilities returns the agent's capability names, sorted.
	AgentCapabilities(ctx context.Context, agentName string) ([]string, error)

	// TaskTypeRequirements returns the task type's required capability
	// names, sorted, or a NOT_FOUND error for an unknown task type.
	TaskTypeRequirements(ctx context.Context, taskType string) ([]string, error)

	// ListTaskTypes returns every task type with its requirements.
	ListTaskTypes(ctx context.Context) ([]types.TaskType, error)

	// FallbackAgent returns the designated substitute for an agent, or
	// a NOT_FOUND error when none is registered.
	FallbackAgent(ctx context.Context, agentName string) (string, error)

	// AgentsWithAllCapabilities returns agents possessing every
	// capability the task type requires, filtered to the query domain
	// or "general", exact-domain matches first.
	AgentsWithAllCapabilities(ctx context.Context, taskType, domain string, minLevel float64) ([]types.Agent, error)

	// AgentsWithAllCapabilitiesAnyDomain relaxes the domain filter.
	AgentsWithAllCapabilitiesAnyDomain(ctx context.Context, taskType string, minLevel float64) ([]types.Agent, error)

	// AgentsByDomain returns agents in the query domain or "general"
	// regardless of capabilities, exact-domain matches first.
	AgentsByDomain(ctx context.Context, domain string, minLevel float64) ([]types.Agent, error)

	// AllAgentsRanked returns every known agent ordered by capability
	// level then historical accuracy.
	AllAgentsRanked(ctx context.Context) ([]types.Agent, error)

	// CreateDecision atomically records a routing choice: the chosen
	// agent node is created if missing, a query node is written with
	// the raw text, and a PENDING decision is linked to both. Nothing
	// is persisted if any step fails.
	CreateDecision(ctx context.Context, query *types.AnalyzedQuery, agentName string, confidence float64) (*types.RoutingDecision, error)

	// GetDecision returns a decision with its query text, or NOT_FOUND.
	GetDecision(ctx context.Context, id string) (*types.RoutingDecision, error)

	// ApplyOutcome performs the single PENDING -> SUCCESS|FAILURE
	// transition and updates the routed agent's counters and accuracy
	// in the same transaction. Returns NOT_FOUND for an unknown id and
	// INVALID_REQUEST when the decision was already resolved.
	ApplyOutcome(ctx context.Context, id string, outcome types.Outcome) error

	// AgentDecisions returns the most recent decisions routed to an agent.
	AgentDecisions(ctx context.Context, agentName string, limit int) ([]types.RoutingDecision, error)

	// SimilarAgents returns agents sharing at least one capability with
	// the named agent, most shared first.
	SimilarAgents(ctx context.Context, agentName string) ([]SimilarAgent, error)

	// RoutingMetrics aggregates the decision audit trail.
	RoutingMetrics(ctx context.Context, window time.Duration) (*Metrics, error)

	// GraphExport returns the reference graph for visualization.
	GraphExport(ctx context.Context) (*GraphView, error)

	// Ping verifies store connectivity.
	Ping(ctx context.Context) error
}

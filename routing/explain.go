package routing

import (
	"context"

	"github.com/agentroute/agentroute/types"
)

// Explanation is the read-only reconstruction of why a decision routed
// where it did.
type Explanation struct {
	DecisionID              string        `json:"decision_id"`
	AgentName               string        `json:"agent_name"`
	TaskType                string        `json:"task_type"`
	QueryText               string        `json:"query_text"`
	Confidence              float64       `json:"confidence"`
	Outcome                 types.Outcome `json:"outcome"`
	AgentCapabilities       []string      `json:"agent_capabilities"`
	RequiredCapabilities    []string      `json:"required_capabilities"`
	MatchingCapabilities    []string      `json:"matching_capabilities"`
	MatchingCapabilityCount int           `json:"matching_capability_count"`
}

// TraversalStep is one hop in the path-shaped explanation.
type TraversalStep struct {
	Kind  string   `json:"kind"`
	Label string   `json:"label,omitempty"`
	Items []string `json:"items,omitempty"`
}

// Traversal is the explanation shaped as a graph walk for
// visualization: query, task type, required capabilities, agent, agent
// capabilities, matches.
type Traversal struct {
	DecisionID string          `json:"decision_id"`
	Steps      []TraversalStep `json:"steps"`
}

// Explain reconstructs the rationale for a decision. Pure read; a
// NOT_FOUND is returned when the decision id is unknown or when
// taskType is not the one the decision was actually made under.
func (r *Router) Explain(ctx context.Context, decisionID, taskType string) (*Explanation, error) {
	decision, err := r.store.GetDecision(ctx, decisionID)
	if err != nil {
		return nil, err
	}
	if decision.TaskType != taskType {
		return nil, types.NewErrorf(types.ErrNotFound,
			"decision %q was not made for task type %q", decisionID, taskType)
	}

	required, err := r.store.TaskTypeRequirements(ctx, taskType)
	if err != nil {
		return nil, err
	}

	agentCaps, err := r.store.AgentCapabilities(ctx, decision.AgentName)
	if err != nil {
		return nil, err
	}

	matching := intersect(required, agentCaps)

	return &Explanation{
		DecisionID:              decision.ID,
		AgentName:               decision.AgentName,
		TaskType:                taskType,
		QueryText:               decision.QueryText,
		Confidence:              decision.Confidence,
		Outcome:                 decision.Outcome,
		AgentCapabilities:       agentCaps,
		RequiredCapabilities:    required,
		MatchingCapabilities:    matching,
		MatchingCapabilityCount: len(matching),
	}, nil
}

// Path returns the explanation shaped as a traversal.
func (r *Router) Path(ctx context.Context, decisionID, taskType string) (*Traversal, error) {
	exp, err := r.Explain(ctx, decisionID, taskType)
	if err != nil {
		return nil, err
	}

	return &Traversal{
		DecisionID: exp.DecisionID,
		Steps: []TraversalStep{
			{Kind: "query", Label: exp.QueryText},
			{Kind: "task_type", Label: exp.TaskType},
			{Kind: "required_capabilities", Items: exp.RequiredCapabilities},
			{Kind: "agent", Label: exp.AgentName},
			{Kind: "agent_capabilities", Items: exp.AgentCapabilities},
			{Kind: "matching_capabilities", Items: exp.MatchingCapabilities},
		},
	}, nil
}

// intersect returns the elements of a that also appear in b,
// preserving a's order.
func intersect(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, s := range b {
		set[s] = struct{}{}
	}
	out := make([]string, 0, len(a))
	for _, s := range a {
		if _, ok := set[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

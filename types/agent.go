package types

import "time"

// DomainGeneral is the sentinel domain for agents without a specialty.
// Agents in this domain receive partial domain-match credit for every query.
const DomainGeneral = "general"

// Agent is a registered specialized handler stored in the knowledge graph.
// All scoring features are normalized to [0,1]. ResponseTime is inverted
// semantics: lower is better.
type Agent struct {
	// Name is the unique agent identifier.
	Name string `json:"name"`

	// CapabilityLevel is the agent's overall proficiency (0-1).
	CapabilityLevel float64 `json:"capability_level"`

	// DomainExpertise is the agent's specialty domain, or DomainGeneral.
	DomainExpertise string `json:"domain_expertise"`

	// InputFormat is the input format the agent consumes (e.g. "text").
	InputFormat string `json:"input_format"`

	// OutputFormat is the output format the agent produces.
	OutputFormat string `json:"output_format"`

	// HistoricalAccuracy is the running success ratio maintained by the
	// feedback component: SuccessCount/(SuccessCount+FailureCount), or 0.5
	// when no feedback has been recorded yet.
	HistoricalAccuracy float64 `json:"historical_accuracy"`

	// ResponseTime is the normalized response latency (0-1, lower is better).
	ResponseTime float64 `json:"response_time"`

	// CostEfficiency is the normalized cost efficiency (0-1, higher is better).
	CostEfficiency float64 `json:"cost_efficiency"`

	// Reliability is the normalized uptime/stability score (0-1).
	Reliability float64 `json:"reliability"`

	// SpecializationScore measures how narrowly focused the agent is (0-1).
	SpecializationScore float64 `json:"specialization_score"`

	// Description is a human-readable summary of what the agent does.
	Description string `json:"description,omitempty"`

	// SuccessCount and FailureCount back HistoricalAccuracy. Monotonically
	// increasing; mutated only by the feedback component.
	SuccessCount int64 `json:"success_count"`
	FailureCount int64 `json:"failure_count"`
}

// NewAgent returns an Agent with every optional feature populated with its
// documented default, so scoring never needs to check for absent fields.
func NewAgent(name string) *Agent {
	return &Agent{
		Name:                name,
		CapabilityLevel:     0.5,
		DomainExpertise:     DomainGeneral,
		InputFormat:         "text",
		OutputFormat:        "text",
		HistoricalAccuracy:  0.5,
		ResponseTime:        1.0,
		CostEfficiency:      0.5,
		Reliability:         0.5,
		SpecializationScore: 0.5,
	}
}

// Accuracy computes the success ratio from the raw counters, falling back
// to 0.5 when no outcomes have been recorded.
func (a *Agent) Accuracy() float64 {
	total := a.SuccessCount + a.FailureCount
	if total == 0 {
		return 0.5
	}
	return float64(a.SuccessCount) / float64(total)
}

// Capability is a named skill an agent may possess and a task type may
// require. Immutable reference data.
type Capability struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// TaskType is a category of request with an associated required-capability
// set. Immutable reference data.
type TaskType struct {
	Name                 string   `json:"name"`
	RequiredCapabilities []string `json:"required_capabilities"`
}

// AnalyzedQuery is the structured task descriptor produced by the
// classifier for a single request. It is transient: only the raw text is
// persisted, as the Query node attached to a routing decision.
type AnalyzedQuery struct {
	// RawText is the original user request.
	RawText string `json:"raw_text"`

	// TaskType is the classified task category (a TaskType name).
	TaskType string `json:"task_type"`

	// Complexity is the estimated task complexity (0-1).
	Complexity float64 `json:"complexity"`

	// Domain is the classified subject domain, or DomainGeneral.
	Domain string `json:"domain"`

	// OutputFormat is the requested output format, if the classifier
	// detected one. Empty means no preference.
	OutputFormat string `json:"output_format,omitempty"`
}

// NewAnalyzedQuery returns an AnalyzedQuery with defaults applied for
// fields the classifier left unset.
func NewAnalyzedQuery(rawText string) *AnalyzedQuery {
	return &AnalyzedQuery{
		RawText:    rawText,
		TaskType:   "OtherTask",
		Complexity: 0.5,
		Domain:     DomainGeneral,
	}
}

// Outcome is the lifecycle state of a routing decision.
type Outcome string

const (
	// OutcomePending indicates no feedback has been recorded yet.
	OutcomePending Outcome = "PENDING"
	// OutcomeSuccess indicates the routed agent handled the task well.
	OutcomeSuccess Outcome = "SUCCESS"
	// OutcomeFailure indicates the routed agent failed the task.
	OutcomeFailure Outcome = "FAILURE"
)

// Valid reports whether o is a known outcome value.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomePending, OutcomeSuccess, OutcomeFailure:
		return true
	}
	return false
}

// RoutingDecision is the persisted record of one routing choice. Created
// exactly once per routing request; the only mutation ever applied is the
// single PENDING -> SUCCESS|FAILURE outcome transition.
type RoutingDecision struct {
	// ID is the system-generated decision identifier.
	ID string `json:"id"`

	// AgentName is the agent the decision routed to.
	AgentName string `json:"agent_name"`

	// QueryText is the raw request text the decision served.
	QueryText string `json:"query_text"`

	// TaskType is the classified task type the decision was made under.
	TaskType string `json:"task_type"`

	// Confidence is the reported routing confidence (0-1).
	Confidence float64 `json:"confidence"`

	// Outcome is PENDING until feedback arrives.
	Outcome Outcome `json:"outcome"`

	// Timestamp is when the decision was recorded.
	Timestamp time.Time `json:"timestamp"`
}

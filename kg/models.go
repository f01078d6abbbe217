package kg

import (
	"time"

	"github.com/agentroute/agentroute/types"
)

type agentRecord struct {
	Name                string `gorm:"primaryKey;size:128"`
	CapabilityLevel     float64
	DomainExpertise     string `gorm:"size:64;index"`
	InputFormat         string `gorm:"size:32"`
	OutputFormat        string `gorm:"size:32"`
	HistoricalAccuracy  float64
	ResponseTime        float64
	CostEfficiency      float64
	Reliability         float64
	SpecializationScore float64
	Description         string
	SuccessCount        int64
	FailureCount        int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (agentRecord) TableName() string { return "agents" }

func (r *agentRecord) toAgent() types.Agent {
	return types.Agent{
		Name:                r.Name,
		CapabilityLevel:     r.CapabilityLevel,
		DomainExpertise:     r.DomainExpertise,
		InputFormat:         r.InputFormat,
		OutputFormat:        r.OutputFormat,
		HistoricalAccuracy:  r.HistoricalAccuracy,
		ResponseTime:        r.ResponseTime,
		CostEfficiency:      r.CostEfficiency,
		Reliability:         r.Reliability,
		SpecializationScore: r.SpecializationScore,
		Description:         r.Description,
		SuccessCount:        r.SuccessCount,
		FailureCount:        r.FailureCount,
	}
}

func fromAgent(a *types.Agent) agentRecord {
	return agentRecord{
		Name:                a.Name,
		CapabilityLevel:     a.CapabilityLevel,
		DomainExpertise:     a.DomainExpertise,
		InputFormat:         a.InputFormat,
		OutputFormat:        a.OutputFormat,
		HistoricalAccuracy:  a.HistoricalAccuracy,
		ResponseTime:        a.ResponseTime,
		CostEfficiency:      a.CostEfficiency,
		Reliability:         a.Reliability,
		SpecializationScore: a.SpecializationScore,
		Description:         a.Description,
		SuccessCount:        a.SuccessCount,
		FailureCount:        a.FailureCount,
	}
}

type capabilityRecord struct {
	Name        string `gorm:"primaryKey;size:128"`
	Description string
}

func (capabilityRecord) TableName() string { return "capabilities" }

type taskTypeRecord struct {
	Name string `gorm:"primaryKey;size:128"`
}

func (taskTypeRecord) TableName() string { return "task_types" }

// agentCapabilityRecord is the HAS_CAPABILITY edge.
type agentCapabilityRecord struct {
	AgentName      string `gorm:"primaryKey;size:128"`
	CapabilityName string `gorm:"primaryKey;size:128"`
}

func (agentCapabilityRecord) TableName() string { return "agent_capabilities" }

// taskTypeRequirementRecord is the REQUIRES_CAPABILITY edge.
type taskTypeRequirementRecord struct {
	TaskTypeName   string `gorm:"primaryKey;size:128"`
	CapabilityName string `gorm:"primaryKey;size:128"`
}

func (taskTypeRequirementRecord) TableName() string { return "task_type_requirements" }

// agentFallbackRecord is the FALLBACK_AGENT edge. Lower priority wins.
type agentFallbackRecord struct {
	AgentName    string `gorm:"primaryKey;size:128"`
	FallbackName string `gorm:"primaryKey;size:128"`
	Priority     int
}

func (agentFallbackRecord) TableName() string { return "agent_fallbacks" }

type queryRecord struct {
	ID           string `gorm:"primaryKey;size:36"`
	RawText      string
	TaskType     string `gorm:"size:128"`
	Complexity   float64
	Domain       string `gorm:"size:64"`
	OutputFormat string `gorm:"size:32"`
	CreatedAt    time.Time
}

func (queryRecord) TableName() string { return "queries" }

type decisionRecord struct {
	ID         string `gorm:"primaryKey;size:36"`
	QueryID    string `gorm:"size:36;index"`
	AgentName  string `gorm:"size:128;index"`
	Confidence float64
	Outcome    string `gorm:"size:16;index"`
	CreatedAt  time.Time
	ResolvedAt *time.Time
}

func (decisionRecord) TableName() string { return "routing_decisions" }

func (r *decisionRecord) toDecision(q queryRecord) types.RoutingDecision {
	return types.RoutingDecision{
		ID:         r.ID,
		AgentName:  r.AgentName,
		QueryText:  q.RawText,
		TaskType:   q.TaskType,
		Confidence: r.Confidence,
		Outcome:    types.Outcome(r.Outcome),
		Timestamp:  r.CreatedAt,
	}
}

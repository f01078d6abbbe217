package routing

import (
	"sort"

	"github.com/agentroute/agentroute/types"
)

// Scoring weights. They sum to 1.0 so a score over in-range features
// always lands in [0,1].
const (
	weightCapabilityLevel    = 0.25
	weightHistoricalAccuracy = 0.20
	weightDomainMatch        = 0.25
	weightResponseTime       = 0.10
	weightCostEfficiency     = 0.10
	weightReliability        = 0.05
	weightSpecialization     = 0.05
)

// Domain match credit.
const (
	domainMatchExact   = 1.0
	domainMatchGeneral = 0.6
	domainMatchOther   = 0.3
)

// TieBreak carries every scoring feature independently for
// deterministic secondary ordering and caller-visible rationale.
type TieBreak struct {
	DomainExactMatch    bool    `json:"domain_exact_match"`
	InputFormatMatch    bool    `json:"input_format_match"`
	OutputFormatMatch   bool    `json:"output_format_match"`
	DomainMatch         float64 `json:"domain_match"`
	CapabilityLevel     float64 `json:"capability_level"`
	HistoricalAccuracy  float64 `json:"historical_accuracy"`
	Reliability         float64 `json:"reliability"`
	SpecializationScore float64 `json:"specialization_score"`
	ResponseTimeScore   float64 `json:"response_time_score"`
	CostEfficiency      float64 `json:"cost_efficiency"`
}

// ScoredAgent is one ranked candidate with its score and tie-break vector.
type ScoredAgent struct {
	Agent    types.Agent `json:"agent"`
	Score    float64     `json:"score"`
	TieBreak TieBreak    `json:"tie_break"`
}

// domainMatch grades how well the agent's domain fits the query domain.
func domainMatch(agentDomain, queryDomain string) float64 {
	switch agentDomain {
	case queryDomain:
		return domainMatchExact
	case types.DomainGeneral:
		return domainMatchGeneral
	default:
		return domainMatchOther
	}
}

// Score computes the weighted linear combination for one agent against
// one query, together with its tie-break vector.
func Score(agent types.Agent, query *types.AnalyzedQuery) ScoredAgent {
	dm := domainMatch(agent.DomainExpertise, query.Domain)
	responseTimeScore := 1.0 - agent.ResponseTime

	score := weightCapabilityLevel*agent.CapabilityLevel +
		weightHistoricalAccuracy*agent.HistoricalAccuracy +
		weightDomainMatch*dm +
		weightResponseTime*responseTimeScore +
		weightCostEfficiency*agent.CostEfficiency +
		weightReliability*agent.Reliability +
		weightSpecialization*agent.SpecializationScore

	return ScoredAgent{
		Agent: agent,
		Score: score,
		TieBreak: TieBreak{
			DomainExactMatch: agent.DomainExpertise == query.Domain,
			// requests arrive as raw text
			InputFormatMatch:    agent.InputFormat == "text",
			OutputFormatMatch:   query.OutputFormat == "" || agent.OutputFormat == query.OutputFormat,
			DomainMatch:         dm,
			CapabilityLevel:     agent.CapabilityLevel,
			HistoricalAccuracy:  agent.HistoricalAccuracy,
			Reliability:         agent.Reliability,
			SpecializationScore: agent.SpecializationScore,
			ResponseTimeScore:   responseTimeScore,
			CostEfficiency:      agent.CostEfficiency,
		},
	}
}

// Rank scores every candidate and sorts descending by score, then by
// the tie-break vector, then by name. The order is fully determined by
// the inputs: identical candidate sets always rank identically.
func Rank(candidates []types.Agent, query *types.AnalyzedQuery) []ScoredAgent {
	scored := make([]ScoredAgent, 0, len(candidates))
	for _, a := range candidates {
		scored = append(scored, Score(a, query))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return lessRanked(scored[j], scored[i])
	})
	return scored
}

// lessRanked reports whether a ranks strictly below b.
func lessRanked(a, b ScoredAgent) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}

	at, bt := a.TieBreak, b.TieBreak
	if at.DomainExactMatch != bt.DomainExactMatch {
		return !at.DomainExactMatch
	}
	if at.CapabilityLevel != bt.CapabilityLevel {
		return at.CapabilityLevel < bt.CapabilityLevel
	}
	if at.HistoricalAccuracy != bt.HistoricalAccuracy {
		return at.HistoricalAccuracy < bt.HistoricalAccuracy
	}
	if at.Reliability != bt.Reliability {
		return at.Reliability < bt.Reliability
	}
	if at.SpecializationScore != bt.SpecializationScore {
		return at.SpecializationScore < bt.SpecializationScore
	}
	if at.ResponseTimeScore != bt.ResponseTimeScore {
		return at.ResponseTimeScore < bt.ResponseTimeScore
	}
	if at.CostEfficiency != bt.CostEfficiency {
		return at.CostEfficiency < bt.CostEfficiency
	}
	// stable last resort so equal vectors still order reproducibly
	return a.Agent.Name > b.Agent.Name
}

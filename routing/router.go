package routing

import (
	"context"

	"go.uber.org/zap"

	"github.com/agentroute/agentroute/classifier"
	"github.com/agentroute/agentroute/config"
	"github.com/agentroute/agentroute/kg"
	"github.com/agentroute/agentroute/types"
)

// SystemFallbackConfidence is reported when retrieval finds no
// candidates and the system fallback handler is chosen unscored.
const SystemFallbackConfidence = 0.5

// Recorder receives routing observability events. Implemented by the
// metrics collector; may be nil.
type Recorder interface {
	RecordRoutingDecision(agent, stage string, confidence float64, substituted bool)
	RecordFeedback(outcome string)
}

// RouteResult is the outcome of one routing request.
type RouteResult struct {
	DecisionID  string `json:"decision_id"`
	ChosenAgent string `json:"chosen_agent"`
	// Confidence is the recorded routing confidence. After a fallback
	// substitution it is raised to at least the low-confidence
	// threshold; a deliberate fallback is a confident decision.
	Confidence float64 `json:"confidence"`
	// TopCandidates is the head of the ranked list, with scores and
	// tie-break vectors. Empty when the system fallback was chosen.
	TopCandidates []ScoredAgent `json:"top_candidates"`
	// TieBreakingInfo is the winner's tie-break vector, nil for the
	// system fallback path.
	TieBreakingInfo *TieBreak `json:"tie_breaking_info,omitempty"`
	// Substituted reports whether a low-confidence fallback replaced
	// the top-ranked agent.
	Substituted bool `json:"substituted"`
	// RetrievalStage names the relaxation stage that produced the
	// candidate set.
	RetrievalStage string `json:"retrieval_stage"`
	TaskType       string `json:"task_type"`
	Domain         string `json:"domain"`
}

// Router is the routing decision engine. Stateless between requests;
// safe for concurrent use.
type Router struct {
	store      kg.Store
	classifier classifier.Classifier
	retriever  *Retriever
	cfg        config.RoutingConfig
	logger     *zap.Logger
	recorder   Recorder
}

// NewRouter wires the decision engine. recorder may be nil.
func NewRouter(store kg.Store, cls classifier.Classifier, cfg config.RoutingConfig, logger *zap.Logger, recorder Recorder) *Router {
	return &Router{
		store:      store,
		classifier: cls,
		retriever:  NewRetriever(store, logger),
		cfg:        cfg,
		logger:     logger.With(zap.String("component", "router")),
		recorder:   recorder,
	}
}

// Route classifies the request, retrieves and ranks candidates,
// applies low-confidence substitution, and persists the decision. The
// decision is written exactly once, atomically with its query; a store
// failure aborts the whole request with nothing recorded.
func (r *Router) Route(ctx context.Context, rawText string) (*RouteResult, error) {
	query, err := r.classifier.Classify(ctx, rawText)
	if err != nil {
		return nil, err
	}

	candidates, stage, err := r.retriever.Retrieve(ctx, query.TaskType, query.Domain, r.cfg.MinCapabilityThreshold)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		return r.commitSystemFallback(ctx, query)
	}

	ranked := Rank(candidates, query)
	top := ranked[0]

	chosen := top.Agent.Name
	confidence := top.Score
	substituted := false

	if top.Score < r.cfg.LowConfidenceThreshold {
		fallback, err := r.store.FallbackAgent(ctx, chosen)
		switch {
		case err == nil:
			chosen = fallback
			confidence = maxFloat(top.Score, r.cfg.LowConfidenceThreshold)
			substituted = true
		case types.IsErrorCode(err, types.ErrNotFound):
			// no fallback registered: keep the low-confidence choice
			// and report the true score
		default:
			return nil, err
		}
	}

	decision, err := r.store.CreateDecision(ctx, query, chosen, confidence)
	if err != nil {
		return nil, err
	}

	topN := ranked
	if len(topN) > r.cfg.TopCandidates {
		topN = topN[:r.cfg.TopCandidates]
	}

	tieBreak := top.TieBreak
	result := &RouteResult{
		DecisionID:      decision.ID,
		ChosenAgent:     chosen,
		Confidence:      confidence,
		TopCandidates:   topN,
		TieBreakingInfo: &tieBreak,
		Substituted:     substituted,
		RetrievalStage:  stage,
		TaskType:        query.TaskType,
		Domain:          query.Domain,
	}

	r.logger.Info("request routed",
		zap.String("decision_id", decision.ID),
		zap.String("agent", chosen),
		zap.Float64("confidence", confidence),
		zap.Bool("substituted", substituted),
		zap.String("stage", stage),
	)
	if r.recorder != nil {
		r.recorder.RecordRoutingDecision(chosen, stage, confidence, substituted)
	}
	return result, nil
}

// commitSystemFallback handles the no-candidate terminal state: the
// configured system handler is chosen unscored with a fixed confidence
// and an empty candidate list.
func (r *Router) commitSystemFallback(ctx context.Context, query *types.AnalyzedQuery) (*RouteResult, error) {
	decision, err := r.store.CreateDecision(ctx, query, r.cfg.SystemFallbackAgent, SystemFallbackConfidence)
	if err != nil {
		return nil, err
	}

	r.logger.Warn("no candidates found, using system fallback",
		zap.String("decision_id", decision.ID),
		zap.String("task_type", query.TaskType),
		zap.String("domain", query.Domain),
	)
	if r.recorder != nil {
		r.recorder.RecordRoutingDecision(r.cfg.SystemFallbackAgent, StageNone, SystemFallbackConfidence, false)
	}

	return &RouteResult{
		DecisionID:     decision.ID,
		ChosenAgent:    r.cfg.SystemFallbackAgent,
		Confidence:     SystemFallbackConfidence,
		TopCandidates:  []ScoredAgent{},
		RetrievalStage: StageNone,
		TaskType:       query.TaskType,
		Domain:         query.Domain,
	}, nil
}

// ListCandidates is read-only introspection: the ranked candidate list
// for a task type and optional domain, with no decision recorded.
func (r *Router) ListCandidates(ctx context.Context, taskType, domain string) ([]ScoredAgent, string, error) {
	if domain == "" {
		domain = types.DomainGeneral
	}

	candidates, stage, err := r.retriever.Retrieve(ctx, taskType, domain, r.cfg.MinCapabilityThreshold)
	if err != nil {
		return nil, "", err
	}

	query := types.NewAnalyzedQuery("")
	query.TaskType = taskType
	query.Domain = domain
	return Rank(candidates, query), stage, nil
}

// FeedbackResult reports the effect of recorded feedback.
type FeedbackResult struct {
	DecisionID string        `json:"decision_id"`
	AgentName  string        `json:"agent_name"`
	Outcome    types.Outcome `json:"outcome"`
	// UpdatedAccuracy is the agent's historical accuracy after the
	// feedback was applied.
	UpdatedAccuracy float64 `json:"updated_accuracy"`
}

// ApplyFeedback records the task outcome for a decision. The outcome
// transition and the agent accuracy update are one atomic store
// operation; a resubmission for an already resolved decision is
// rejected rather than double-counted.
func (r *Router) ApplyFeedback(ctx context.Context, decisionID string, success bool) (*FeedbackResult, error) {
	outcome := types.OutcomeFailure
	if success {
		outcome = types.OutcomeSuccess
	}

	if err := r.store.ApplyOutcome(ctx, decisionID, outcome); err != nil {
		return nil, err
	}

	decision, err := r.store.GetDecision(ctx, decisionID)
	if err != nil {
		return nil, err
	}
	agent, err := r.store.GetAgent(ctx, decision.AgentName)
	if err != nil {
		return nil, err
	}

	r.logger.Info("feedback recorded",
		zap.String("decision_id", decisionID),
		zap.String("agent", decision.AgentName),
		zap.String("outcome", string(outcome)),
		zap.Float64("updated_accuracy", agent.HistoricalAccuracy),
	)
	if r.recorder != nil {
		r.recorder.RecordFeedback(string(outcome))
	}

	return &FeedbackResult{
		DecisionID:      decisionID,
		AgentName:       decision.AgentName,
		Outcome:         outcome,
		UpdatedAccuracy: agent.HistoricalAccuracy,
	}, nil
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

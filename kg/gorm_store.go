package kg

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/agentroute/agentroute/types"
)

// GormStore implements Store on top of a relational database through GORM.
type GormStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormStore wraps an open gorm handle.
func NewGormStore(db *gorm.DB, logger *zap.Logger) *GormStore {
	return &GormStore{
		db:     db,
		logger: logger.With(zap.String("component", "kg_store")),
	}
}

// EnsureSchema migrates the graph tables.
func (s *GormStore) EnsureSchema(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&agentRecord{},
		&capabilityRecord{},
		&taskTypeRecord{},
		&agentCapabilityRecord{},
		&taskTypeRequirementRecord{},
		&agentFallbackRecord{},
		&queryRecord{},
		&decisionRecord{},
	)
	if err != nil {
		return storeError("schema migration", err)
	}
	return nil
}

// Ping verifies store connectivity.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return storeError("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return storeError("ping", err)
	}
	return nil
}

// =============================================================================
// Reference data
// =============================================================================

// UpsertAgent creates or replaces an agent node.
func (s *GormStore) UpsertAgent(ctx context.Context, agent *types.Agent) error {
	rec := fromAgent(agent)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rec).Error
	if err != nil {
		return storeError("upsert agent", err)
	}
	return nil
}

// GetAgent returns an agent by name.
func (s *GormStore) GetAgent(ctx context.Context, name string) (*types.Agent, error) {
	var rec agentRecord
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NewErrorf(types.ErrNotFound, "agent %q not found", name)
	}
	if err != nil {
		return nil, storeError("get agent", err)
	}
	agent := rec.toAgent()
	return &agent, nil
}

// ListAgents returns every agent ordered by name.
func (s *GormStore) ListAgents(ctx context.Context) ([]types.Agent, error) {
	var recs []agentRecord
	if err := s.db.WithContext(ctx).Order("name").Find(&recs).Error; err != nil {
		return nil, storeError("list agents", err)
	}
	return toAgents(recs), nil
}

// UpsertCapability creates or replaces a capability node.
func (s *GormStore) UpsertCapability(ctx context.Context, cap types.Capability) error {
	rec := capabilityRecord{Name: cap.Name, Description: cap.Description}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rec).Error
	if err != nil {
		return storeError("upsert capability", err)
	}
	return nil
}

// UpsertTaskType creates or replaces a task type and its requirement edges.
func (s *GormStore) UpsertTaskType(ctx context.Context, tt types.TaskType) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := taskTypeRecord{Name: tt.Name}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error; err != nil {
			return err
		}
		if err := tx.Where("task_type_name = ?", tt.Name).
			Delete(&taskTypeRequirementRecord{}).Error; err != nil {
			return err
		}
		for _, cap := range tt.RequiredCapabilities {
			edge := taskTypeRequirementRecord{TaskTypeName: tt.Name, CapabilityName: cap}
			if err := tx.Create(&edge).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return storeError("upsert task type", err)
	}
	return nil
}

// SetAgentCapabilities replaces the agent's capability edges.
func (s *GormStore) SetAgentCapabilities(ctx context.Context, agentName string, capabilities []string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("agent_name = ?", agentName).
			Delete(&agentCapabilityRecord{}).Error; err != nil {
			return err
		}
		for _, cap := range capabilities {
			edge := agentCapabilityRecord{AgentName: agentName, CapabilityName: cap}
			if err := tx.Create(&edge).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return storeError("set agent capabilities", err)
	}
	return nil
}

// SetFallback creates a fallback edge.
func (s *GormStore) SetFallback(ctx context.Context, agentName, fallbackName string, priority int) error {
	rec := agentFallbackRecord{AgentName: agentName, FallbackName: fallbackName, Priority: priority}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rec).Error
	if err != nil {
		return storeError("set fallback", err)
	}
	return nil
}

// AgentCapabilities returns the agent's capability names, sorted.
func (s *GormStore) AgentCapabilities(ctx context.Context, agentName string) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Model(&agentCapabilityRecord{}).
		Where("agent_name = ?", agentName).
		Order("capability_name").
		Pluck("capability_name", &names).Error
	if err != nil {
		return nil, storeError("agent capabilities", err)
	}
	return names, nil
}

// TaskTypeRequirements returns the task type's required capabilities.
func (s *GormStore) TaskTypeRequirements(ctx context.Context, taskType string) ([]string, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&taskTypeRecord{}).
		Where("name = ?", taskType).
		Count(&count).Error; err != nil {
		return nil, storeError("task type requirements", err)
	}
	if count == 0 {
		return nil, types.NewErrorf(types.ErrNotFound, "task type %q not found", taskType)
	}

	var names []string
	err := s.db.WithContext(ctx).
		Model(&taskTypeRequirementRecord{}).
		Where("task_type_name = ?", taskType).
		Order("capability_name").
		Pluck("capability_name", &names).Error
	if err != nil {
		return nil, storeError("task type requirements", err)
	}
	return names, nil
}

// ListTaskTypes returns every task type with its requirements.
func (s *GormStore) ListTaskTypes(ctx context.Context) ([]types.TaskType, error) {
	var names []string
	if err := s.db.WithContext(ctx).
		Model(&taskTypeRecord{}).
		Order("name").
		Pluck("name", &names).Error; err != nil {
		return nil, storeError("list task types", err)
	}

	var edges []taskTypeRequirementRecord
	if err := s.db.WithContext(ctx).
		Order("task_type_name, capability_name").
		Find(&edges).Error; err != nil {
		return nil, storeError("list task types", err)
	}

	byType := make(map[string][]string)
	for _, e := range edges {
		byType[e.TaskTypeName] = append(byType[e.TaskTypeName], e.CapabilityName)
	}

	out := make([]types.TaskType, 0, len(names))
	for _, n := range names {
		out = append(out, types.TaskType{Name: n, RequiredCapabilities: byType[n]})
	}
	return out, nil
}

// FallbackAgent returns the highest priority fallback for an agent.
func (s *GormStore) FallbackAgent(ctx context.Context, agentName string) (string, error) {
	var rec agentFallbackRecord
	err := s.db.WithContext(ctx).
		Where("agent_name = ?", agentName).
		Order("priority, fallback_name").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", types.NewErrorf(types.ErrNotFound, "no fallback registered for agent %q", agentName)
	}
	if err != nil {
		return "", storeError("fallback agent", err)
	}
	return rec.FallbackName, nil
}

// =============================================================================
// Candidate retrieval
// =============================================================================

// AgentsWithAllCapabilities returns agents covering every required
// capability of the task type within the query domain or "general".
func (s *GormStore) AgentsWithAllCapabilities(ctx context.Context, taskType, domain string, minLevel float64) ([]types.Agent, error) {
	required, err := s.requiredCapabilities(ctx, taskType)
	if err != nil || len(required) == 0 {
		return nil, err
	}

	var recs []agentRecord
	err = s.db.WithContext(ctx).
		Table("agents").
		Select("agents.*, CASE WHEN agents.domain_expertise = ? THEN 0 ELSE 1 END AS domain_rank", domain).
		Joins("JOIN agent_capabilities ac ON ac.agent_name = agents.name").
		Where("ac.capability_name IN ?", required).
		Where("agents.capability_level >= ?", minLevel).
		Where("agents.domain_expertise IN ?", []string{domain, types.DomainGeneral}).
		Group("agents.name").
		Having("COUNT(DISTINCT ac.capability_name) = ?", len(required)).
		Order("domain_rank").
		Order("capability_level DESC").
		Order("historical_accuracy DESC").
		Order("agents.name").
		Find(&recs).Error
	if err != nil {
		return nil, storeError("agents with all capabilities", err)
	}
	return toAgents(recs), nil
}

// AgentsWithAllCapabilitiesAnyDomain drops the domain filter.
func (s *GormStore) AgentsWithAllCapabilitiesAnyDomain(ctx context.Context, taskType string, minLevel float64) ([]types.Agent, error) {
	required, err := s.requiredCapabilities(ctx, taskType)
	if err != nil || len(required) == 0 {
		return nil, err
	}

	var recs []agentRecord
	err = s.db.WithContext(ctx).
		Table("agents").
		Select("agents.*").
		Joins("JOIN agent_capabilities ac ON ac.agent_name = agents.name").
		Where("ac.capability_name IN ?", required).
		Where("agents.capability_level >= ?", minLevel).
		Group("agents.name").
		Having("COUNT(DISTINCT ac.capability_name) = ?", len(required)).
		Order("capability_level DESC").
		Order("historical_accuracy DESC").
		Order("agents.name").
		Find(&recs).Error
	if err != nil {
		return nil, storeError("agents with all capabilities", err)
	}
	return toAgents(recs), nil
}

// AgentsByDomain returns domain or general agents regardless of capabilities.
func (s *GormStore) AgentsByDomain(ctx context.Context, domain string, minLevel float64) ([]types.Agent, error) {
	var recs []agentRecord
	err := s.db.WithContext(ctx).
		Model(&agentRecord{}).
		Select("agents.*, CASE WHEN domain_expertise = ? THEN 0 ELSE 1 END AS domain_rank", domain).
		Where("capability_level >= ?", minLevel).
		Where("domain_expertise IN ?", []string{domain, types.DomainGeneral}).
		Order("domain_rank").
		Order("capability_level DESC").
		Order("historical_accuracy DESC").
		Order("name").
		Find(&recs).Error
	if err != nil {
		return nil, storeError("agents by domain", err)
	}
	return toAgents(recs), nil
}

// AllAgentsRanked returns every known agent ordered by capability then accuracy.
func (s *GormStore) AllAgentsRanked(ctx context.Context) ([]types.Agent, error) {
	var recs []agentRecord
	err := s.db.WithContext(ctx).
		Order("capability_level DESC").
		Order("historical_accuracy DESC").
		Order("name").
		Find(&recs).Error
	if err != nil {
		return nil, storeError("all agents", err)
	}
	return toAgents(recs), nil
}

// requiredCapabilities is the retrieval-path variant of
// TaskTypeRequirements: an unknown task type yields no candidates
// instead of an error, so the relaxation ladder can keep degrading.
func (s *GormStore) requiredCapabilities(ctx context.Context, taskType string) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Model(&taskTypeRequirementRecord{}).
		Where("task_type_name = ?", taskType).
		Pluck("capability_name", &names).Error
	if err != nil {
		return nil, storeError("required capabilities", err)
	}
	return names, nil
}

// =============================================================================
// Decisions and feedback
// =============================================================================

// CreateDecision atomically records a routing choice.
func (s *GormStore) CreateDecision(ctx context.Context, query *types.AnalyzedQuery, agentName string, confidence float64) (*types.RoutingDecision, error) {
	now := time.Now().UTC()
	dec := decisionRecord{
		ID:         uuid.NewString(),
		QueryID:    uuid.NewString(),
		AgentName:  agentName,
		Confidence: confidence,
		Outcome:    string(types.OutcomePending),
		CreatedAt:  now,
	}

	q := queryRecord{
		ID:           dec.QueryID,
		RawText:      query.RawText,
		TaskType:     query.TaskType,
		Complexity:   query.Complexity,
		Domain:       query.Domain,
		OutputFormat: query.OutputFormat,
		CreatedAt:    now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Fallback and system handler names may not exist as nodes yet.
		agent := fromAgent(types.NewAgent(agentName))
		agent.CreatedAt = now
		agent.UpdatedAt = now
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&agent).Error; err != nil {
			return err
		}

		if err := tx.Create(&q).Error; err != nil {
			return err
		}

		return tx.Create(&dec).Error
	})
	if err != nil {
		return nil, storeError("create decision", err)
	}

	s.logger.Debug("routing decision recorded",
		zap.String("decision_id", dec.ID),
		zap.String("agent", agentName),
		zap.Float64("confidence", confidence),
	)

	out := dec.toDecision(q)
	return &out, nil
}

// GetDecision returns a decision with its query text.
func (s *GormStore) GetDecision(ctx context.Context, id string) (*types.RoutingDecision, error) {
	var rec decisionRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NewErrorf(types.ErrNotFound, "decision %q not found", id)
	}
	if err != nil {
		return nil, storeError("get decision", err)
	}

	var q queryRecord
	if err := s.db.WithContext(ctx).Where("id = ?", rec.QueryID).First(&q).Error; err != nil &&
		!errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeError("get decision", err)
	}

	out := rec.toDecision(q)
	return &out, nil
}

// ApplyOutcome performs the single outcome transition and the agent
// counter update in one transaction. The accuracy recompute reads the
// incremented counters inside the same UPDATE statement, so concurrent
// feedback for the same agent never observes a stale snapshot.
func (s *GormStore) ApplyOutcome(ctx context.Context, id string, outcome types.Outcome) error {
	if outcome != types.OutcomeSuccess && outcome != types.OutcomeFailure {
		return types.NewErrorf(types.ErrInvalidRequest, "invalid outcome %q", outcome)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dec decisionRecord
		if err := tx.Where("id = ?", id).First(&dec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.NewErrorf(types.ErrNotFound, "decision %q not found", id)
			}
			return storeError("apply outcome", err)
		}

		now := time.Now().UTC()
		res := tx.Model(&decisionRecord{}).
			Where("id = ? AND outcome = ?", id, string(types.OutcomePending)).
			Updates(map[string]interface{}{
				"outcome":     string(outcome),
				"resolved_at": now,
			})
		if res.Error != nil {
			return storeError("apply outcome", res.Error)
		}
		if res.RowsAffected == 0 {
			return types.NewErrorf(types.ErrInvalidRequest,
				"decision %q already resolved as %s", id, dec.Outcome)
		}

		var updates map[string]interface{}
		if outcome == types.OutcomeSuccess {
			updates = map[string]interface{}{
				"success_count": gorm.Expr("success_count + 1"),
				"historical_accuracy": gorm.Expr(
					"(success_count + 1.0) / (success_count + failure_count + 1.0)"),
			}
		} else {
			updates = map[string]interface{}{
				"failure_count": gorm.Expr("failure_count + 1"),
				"historical_accuracy": gorm.Expr(
					"(success_count + 0.0) / (success_count + failure_count + 1.0)"),
			}
		}

		res = tx.Model(&agentRecord{}).Where("name = ?", dec.AgentName).Updates(updates)
		if res.Error != nil {
			return storeError("apply outcome", res.Error)
		}
		if res.RowsAffected == 0 {
			return types.NewErrorf(types.ErrNotFound, "agent %q not found", dec.AgentName)
		}
		return nil
	})
	if err != nil {
		if types.AsError(err) != nil {
			return err
		}
		return storeError("apply outcome", err)
	}

	s.logger.Debug("feedback applied",
		zap.String("decision_id", id),
		zap.String("outcome", string(outcome)),
	)
	return nil
}

// AgentDecisions returns the most recent decisions routed to an agent.
func (s *GormStore) AgentDecisions(ctx context.Context, agentName string, limit int) ([]types.RoutingDecision, error) {
	if limit <= 0 {
		limit = 20
	}

	var recs []decisionRecord
	err := s.db.WithContext(ctx).
		Where("agent_name = ?", agentName).
		Where("outcome <> ?", string(types.OutcomePending)).
		Order("created_at DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, storeError("agent decisions", err)
	}

	out := make([]types.RoutingDecision, 0, len(recs))
	for i := range recs {
		var q queryRecord
		if err := s.db.WithContext(ctx).Where("id = ?", recs[i].QueryID).First(&q).Error; err != nil &&
			!errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storeError("agent decisions", err)
		}
		out = append(out, recs[i].toDecision(q))
	}
	return out, nil
}

// SimilarAgents returns agents sharing capabilities with the named agent.
func (s *GormStore) SimilarAgents(ctx context.Context, agentName string) ([]SimilarAgent, error) {
	if _, err := s.GetAgent(ctx, agentName); err != nil {
		return nil, err
	}

	type row struct {
		Name       string
		Capability string
		Domain     string
		CapLevel   float64
		Accuracy   float64
	}
	var rows []row
	err := s.db.WithContext(ctx).
		Table("agent_capabilities AS mine").
		Select("other.agent_name AS name, other.capability_name AS capability, agents.domain_expertise AS domain, agents.capability_level AS cap_level, agents.historical_accuracy AS accuracy").
		Joins("JOIN agent_capabilities AS other ON other.capability_name = mine.capability_name AND other.agent_name <> mine.agent_name").
		Joins("JOIN agents ON agents.name = other.agent_name").
		Where("mine.agent_name = ?", agentName).
		Scan(&rows).Error
	if err != nil {
		return nil, storeError("similar agents", err)
	}

	byName := make(map[string]*SimilarAgent)
	for _, r := range rows {
		sa, ok := byName[r.Name]
		if !ok {
			sa = &SimilarAgent{
				Name:               r.Name,
				DomainExpertise:    r.Domain,
				CapabilityLevel:    r.CapLevel,
				HistoricalAccuracy: r.Accuracy,
			}
			byName[r.Name] = sa
		}
		sa.SharedCapabilities = append(sa.SharedCapabilities, r.Capability)
	}

	out := make([]SimilarAgent, 0, len(byName))
	for _, sa := range byName {
		sort.Strings(sa.SharedCapabilities)
		out = append(out, *sa)
	}
	// Order mirrors the fallback preference: more overlap first, then the
	// stronger agent on capability level and accuracy.
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].SharedCapabilities) != len(out[j].SharedCapabilities) {
			return len(out[i].SharedCapabilities) > len(out[j].SharedCapabilities)
		}
		if out[i].CapabilityLevel != out[j].CapabilityLevel {
			return out[i].CapabilityLevel > out[j].CapabilityLevel
		}
		if out[i].HistoricalAccuracy != out[j].HistoricalAccuracy {
			return out[i].HistoricalAccuracy > out[j].HistoricalAccuracy
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// RoutingMetrics aggregates the decision audit trail.
func (s *GormStore) RoutingMetrics(ctx context.Context, window time.Duration) (*Metrics, error) {
	m := &Metrics{Window: window, RecentAccuracy: 0.5}

	if err := s.db.WithContext(ctx).
		Model(&decisionRecord{}).
		Count(&m.TotalDecisions).Error; err != nil {
		return nil, storeError("routing metrics", err)
	}

	if err := s.db.WithContext(ctx).
		Model(&decisionRecord{}).
		Select("COALESCE(AVG(confidence), 0)").
		Scan(&m.AverageConfidence).Error; err != nil {
		return nil, storeError("routing metrics", err)
	}

	type perfRow struct {
		AgentName string
		Decisions int64
		Successes int64
		Failures  int64
	}
	var perf []perfRow
	err := s.db.WithContext(ctx).
		Model(&decisionRecord{}).
		Select("agent_name, COUNT(*) AS decisions, " +
			"SUM(CASE WHEN outcome = 'SUCCESS' THEN 1 ELSE 0 END) AS successes, " +
			"SUM(CASE WHEN outcome = 'FAILURE' THEN 1 ELSE 0 END) AS failures").
		Group("agent_name").
		Order("decisions DESC, agent_name").
		Scan(&perf).Error
	if err != nil {
		return nil, storeError("routing metrics", err)
	}
	for _, p := range perf {
		rate := 0.5
		if resolved := p.Successes + p.Failures; resolved > 0 {
			rate = float64(p.Successes) / float64(resolved)
		}
		m.AgentPerformance = append(m.AgentPerformance, AgentPerformance{
			AgentName:   p.AgentName,
			Decisions:   p.Decisions,
			Successes:   p.Successes,
			Failures:    p.Failures,
			SuccessRate: rate,
		})
	}

	cutoff := time.Now().UTC().Add(-window)
	var recent perfRow
	err = s.db.WithContext(ctx).
		Model(&decisionRecord{}).
		Select("SUM(CASE WHEN outcome = 'SUCCESS' THEN 1 ELSE 0 END) AS successes, "+
			"SUM(CASE WHEN outcome = 'FAILURE' THEN 1 ELSE 0 END) AS failures").
		Where("resolved_at IS NOT NULL AND resolved_at >= ?", cutoff).
		Scan(&recent).Error
	if err != nil {
		return nil, storeError("routing metrics", err)
	}
	if resolved := recent.Successes + recent.Failures; resolved > 0 {
		m.RecentAccuracy = float64(recent.Successes) / float64(resolved)
	}

	return m, nil
}

// GraphExport returns the reference graph for visualization.
func (s *GormStore) GraphExport(ctx context.Context) (*GraphView, error) {
	view := &GraphView{}

	var agents []agentRecord
	if err := s.db.WithContext(ctx).Order("name").Find(&agents).Error; err != nil {
		return nil, storeError("graph export", err)
	}
	for _, a := range agents {
		view.Nodes = append(view.Nodes, GraphNode{ID: a.Name, Label: a.Name, Kind: "agent"})
	}

	var caps []capabilityRecord
	if err := s.db.WithContext(ctx).Order("name").Find(&caps).Error; err != nil {
		return nil, storeError("graph export", err)
	}
	for _, c := range caps {
		view.Nodes = append(view.Nodes, GraphNode{ID: c.Name, Label: c.Name, Kind: "capability"})
	}

	var tts []taskTypeRecord
	if err := s.db.WithContext(ctx).Order("name").Find(&tts).Error; err != nil {
		return nil, storeError("graph export", err)
	}
	for _, t := range tts {
		view.Nodes = append(view.Nodes, GraphNode{ID: t.Name, Label: t.Name, Kind: "task_type"})
	}

	var hasCap []agentCapabilityRecord
	if err := s.db.WithContext(ctx).Order("agent_name, capability_name").Find(&hasCap).Error; err != nil {
		return nil, storeError("graph export", err)
	}
	for _, e := range hasCap {
		view.Edges = append(view.Edges, GraphEdge{From: e.AgentName, To: e.CapabilityName, Relation: "HAS_CAPABILITY"})
	}

	var reqs []taskTypeRequirementRecord
	if err := s.db.WithContext(ctx).Order("task_type_name, capability_name").Find(&reqs).Error; err != nil {
		return nil, storeError("graph export", err)
	}
	for _, e := range reqs {
		view.Edges = append(view.Edges, GraphEdge{From: e.TaskTypeName, To: e.CapabilityName, Relation: "REQUIRES_CAPABILITY"})
	}

	var fallbacks []agentFallbackRecord
	if err := s.db.WithContext(ctx).Order("agent_name, priority").Find(&fallbacks).Error; err != nil {
		return nil, storeError("graph export", err)
	}
	for _, e := range fallbacks {
		view.Edges = append(view.Edges, GraphEdge{From: e.AgentName, To: e.FallbackName, Relation: "FALLBACK_AGENT"})
	}

	return view, nil
}

func toAgents(recs []agentRecord) []types.Agent {
	out := make([]types.Agent, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].toAgent())
	}
	return out
}

func storeError(op string, err error) error {
	return types.NewErrorf(types.ErrStore, "%s failed", op).WithCause(err)
}

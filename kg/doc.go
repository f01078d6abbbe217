// Copyright (c) AgentRoute Authors.
// Licensed under the MIT License.

// Package kg implements the persistent knowledge graph backing the
// router: agents, their capabilities, task types and their required
// capabilities, fallback edges, and the append-only routing decision
// audit trail.
//
// The graph is stored relationally through GORM. Nodes map to the
// agents, capabilities and task_types tables; relationships map to join
// tables (agent_capabilities, task_type_requirements, agent_fallbacks)
// and foreign keys on routing_decisions. PostgreSQL is the production
// backend; the pure-Go SQLite driver serves development and tests.
//
// The store is the single serialization point for all durable state.
// Decision creation is transactional (a decision row is never written
// without its query row), and the feedback counter update runs as one
// SQL statement so concurrent feedback for the same agent never loses
// an increment.
package kg

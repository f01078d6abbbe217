// Copyright (c) AgentRoute Authors.
// Licensed under the MIT License.

// Package routing implements the decision core: candidate retrieval
// with a cascading relaxation policy, fixed-weight multi-criteria
// scoring with deterministic tie-breaking, the routing decision state
// machine with low-confidence fallback substitution, feedback with the
// atomic accuracy update, and read-only decision explainability.
//
// The router holds no mutable state of its own; every durable fact
// lives in the knowledge graph store, which is the sole serialization
// point. Concurrent Route, ApplyFeedback and Explain calls need no
// in-process coordination.
package routing

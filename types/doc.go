// Copyright (c) AgentRoute Authors.
// Licensed under the MIT License.

/*
Package types provides the shared value objects of the AgentRoute router.

types is the lowest-level package with no internal dependencies. It defines
the reference-data entities stored in the knowledge graph (Agent, Capability,
TaskType), the transient classifier output (AnalyzedQuery), the persisted
RoutingDecision record, and the structured error type used across the
routing core, the store adapter, and the HTTP layer.

All entities are fully populated at construction time: constructors apply
explicit defaults so downstream scoring code never probes for missing
fields.
*/
package types

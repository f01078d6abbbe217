// Copyright (c) AgentRoute Authors.
// Licensed under the MIT License.

// Package classifier turns raw request text into a structured
// AnalyzedQuery. Two implementations are provided: a Gemini-backed
// extractor and a keyword heuristic used when no API key is configured.
// Classifiers are constructed explicitly and injected into the router;
// there is no process-wide model handle.
package classifier

import (
	"context"

	"github.com/agentroute/agentroute/types"
)

// TaskTypeNames are the task categories the classifier may emit.
var TaskTypeNames = []string{
	"WebSearchTask",
	"CodeDebuggingTask",
	"SummarizationTask",
	"VisualizationTask",
	"OtherTask",
}

// Classifier produces a structured task descriptor for raw request
// text. A classification failure fails the whole routing request; the
// router does not retry.
type Classifier interface {
	Classify(ctx context.Context, rawText string) (*types.AnalyzedQuery, error)
}

func knownTaskType(name string) bool {
	for _, t := range TaskTypeNames {
		if t == name {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

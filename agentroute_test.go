package agentroute

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	result, err := r.Route(context.Background(), "search for the latest treatment guidelines for diabetes")
	require.NoError(t, err)
	assert.Equal(t, "MedicalResearchAgent", result.ChosenAgent)
	assert.NotEmpty(t, result.DecisionID)
}

func TestNewWithoutSeed(t *testing.T) {
	r, err := New(WithoutSeed())
	require.NoError(t, err)

	// empty catalog routes to the system fallback
	result, err := r.Route(context.Background(), "summarize this document")
	require.NoError(t, err)
	assert.Equal(t, "PerplexityFallbackAgent", result.ChosenAgent)
	assert.InDelta(t, 0.5, result.Confidence, 1e-9)
	assert.Empty(t, result.TopCandidates)
}

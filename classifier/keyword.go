package classifier

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/agentroute/agentroute/types"
)

var taskTypeKeywords = []struct {
	taskType string
	words    []string
}{
	{"CodeDebuggingTask", []string{"debug", "bug", "stack trace", "exception", "compile", "code", "function", "error in"}},
	{"SummarizationTask", []string{"summarize", "summary", "tl;dr", "condense", "shorten"}},
	{"VisualizationTask", []string{"chart", "plot", "graph", "visualize", "visualise", "diagram", "dashboard"}},
	{"WebSearchTask", []string{"search", "find", "latest", "news", "look up", "recent", "current"}},
}

var domainKeywords = []struct {
	domain string
	words  []string
}{
	{"medical", []string{"medical", "biomedical", "health", "clinical", "patient", "disease", "treatment", "diagnosis", "drug"}},
	{"research", []string{"research", "academic", "papers", "studies", "literature", "publication"}},
	{"legal", []string{"legal", "law", "contract", "compliance", "regulation"}},
	{"finance", []string{"financial", "investment", "stock", "market", "trading"}},
	{"technical", []string{"code", "programming", "software", "debug", "algorithm", "api"}},
}

// KeywordClassifier classifies by keyword matching. Used for local
// development and as the zero-dependency default when no LLM API key
// is configured.
type KeywordClassifier struct {
	logger *zap.Logger
}

// NewKeywordClassifier creates a keyword classifier.
func NewKeywordClassifier(logger *zap.Logger) *KeywordClassifier {
	return &KeywordClassifier{
		logger: logger.With(zap.String("component", "keyword_classifier")),
	}
}

// Classify matches task type and domain keyword lists against the
// lowercased text. Complexity is a rough word-count heuristic.
func (c *KeywordClassifier) Classify(_ context.Context, rawText string) (*types.AnalyzedQuery, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, types.NewError(types.ErrClassification, "empty query text")
	}

	lower := strings.ToLower(rawText)
	q := types.NewAnalyzedQuery(rawText)

	for _, tk := range taskTypeKeywords {
		if containsAny(lower, tk.words) {
			q.TaskType = tk.taskType
			break
		}
	}

	for _, dk := range domainKeywords {
		if containsAny(lower, dk.words) {
			q.Domain = dk.domain
			break
		}
	}

	q.Complexity = complexityEstimate(rawText)

	if strings.Contains(lower, "as a chart") || strings.Contains(lower, "as an image") {
		q.OutputFormat = "image"
	}

	c.logger.Debug("query classified",
		zap.String("task_type", q.TaskType),
		zap.String("domain", q.Domain),
		zap.Float64("complexity", q.Complexity),
	)
	return q, nil
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// complexityEstimate scales with query length, clamped away from the
// extremes so scoring still differentiates.
func complexityEstimate(text string) float64 {
	words := len(strings.Fields(text))
	est := 0.2 + float64(words)/50.0
	return clamp01(minFloat(est, 0.9))
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/agentroute/agentroute/types"
)

const extractionPrompt = `You are a JSON-only task extraction model. Given a user query, output JSON with:
- task_type: one of ["WebSearchTask", "CodeDebuggingTask", "SummarizationTask", "VisualizationTask", "OtherTask"]
- complexity: float between 0.0 and 1.0
- domain: one of ["technical", "general", "legal", "medical", "research", "finance", "education", "content", "analytics", "development", "security", "automation", "media"] - choose the most specific domain that matches the query content
- output_format: string or null

Important domain classification rules:
- For queries mentioning "medical", "biomedical", "health", "clinical", "patient", "disease", "treatment", "diagnosis", etc., use domain: "medical"
- For queries mentioning "research", "academic", "papers", "studies", "literature", "publication", etc., use domain: "research"
- For queries mentioning "code", "programming", "software", "debug", "algorithm", etc., use domain: "technical" or "development"
- For queries mentioning "legal", "law", "contract", "compliance", "regulation", etc., use domain: "legal"
- For queries mentioning "financial", "investment", "stock", "market", "trading", etc., use domain: "finance"
- If no specific domain matches, use domain: "general"

Respond with ONLY JSON, no extra text.

User query: %q`

// GeminiOptions configures the Gemini classifier.
type GeminiOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// GeminiClassifier extracts the task descriptor with a Gemini
// generateContent call. The HTTP client is injected so tests can point
// it at a stub server.
type GeminiClassifier struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewGeminiClassifier creates a Gemini classifier.
func NewGeminiClassifier(opts GeminiOptions, logger *zap.Logger) (*GeminiClassifier, error) {
	if opts.APIKey == "" {
		return nil, types.NewError(types.ErrConfiguration, "gemini classifier requires an API key")
	}
	if opts.Model == "" {
		opts.Model = "gemini-1.5-flash"
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &GeminiClassifier{
		apiKey:  opts.APIKey,
		model:   opts.Model,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		client:  opts.HTTPClient,
		logger:  logger.With(zap.String("component", "gemini_classifier")),
	}, nil
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type extractionResult struct {
	TaskType     string  `json:"task_type"`
	Complexity   float64 `json:"complexity"`
	Domain       string  `json:"domain"`
	OutputFormat *string `json:"output_format"`
}

// Classify calls the generateContent endpoint and parses the strict
// JSON extraction result. Any malformed model output is a
// CLASSIFICATION_ERROR; nothing is persisted for such requests.
func (c *GeminiClassifier) Classify(ctx context.Context, rawText string) (*types.AnalyzedQuery, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, types.NewError(types.ErrClassification, "empty query text")
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: fmt.Sprintf(extractionPrompt, rawText)}}},
		},
		GenerationConfig: geminiGenConfig{
			Temperature:     0.3,
			MaxOutputTokens: 500,
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, types.NewError(types.ErrClassification, "failed to encode request").WithCause(err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, types.NewError(types.ErrClassification, "failed to build request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, types.NewError(types.ErrClassification, "gemini request failed").WithCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, types.NewError(types.ErrClassification, "failed to read gemini response").WithCause(err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewErrorf(types.ErrClassification,
			"gemini returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var gr geminiResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return nil, types.NewError(types.ErrClassification, "invalid gemini response").WithCause(err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, types.NewError(types.ErrClassification, "empty gemini response")
	}

	text := stripCodeFence(gr.Candidates[0].Content.Parts[0].Text)

	var ext extractionResult
	if err := json.Unmarshal([]byte(text), &ext); err != nil {
		return nil, types.NewErrorf(types.ErrClassification,
			"model output is not valid JSON: %s", truncate(text, 200)).WithCause(err)
	}

	q := types.NewAnalyzedQuery(rawText)
	if knownTaskType(ext.TaskType) {
		q.TaskType = ext.TaskType
	}
	if ext.Domain != "" {
		q.Domain = ext.Domain
	}
	q.Complexity = clamp01(ext.Complexity)
	if ext.OutputFormat != nil {
		q.OutputFormat = *ext.OutputFormat
	}

	c.logger.Debug("query classified",
		zap.String("task_type", q.TaskType),
		zap.String("domain", q.Domain),
	)
	return q, nil
}

// stripCodeFence removes a markdown fence the model sometimes wraps
// around its JSON despite the prompt.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

package llm

import (
	"context"
	"strings"
)

// Task identifies the structured output a caller expects back.
type Task string

const (
	TaskFactCheck        Task = "fact_check"
	TaskIntegritySummary Task = "integrity_summary"
	TaskSocialHighlights Task = "social_highlights"
)

// Request is a single generation call.
type Request struct {
	Task      Task   `json:"task"`
	System    string `json:"system,omitempty"`
	Prompt    string `json:"prompt"`
	JSON      bool   `json:"json"`                 // ask the model for a JSON object
	MaxTokens int    `json:"max_tokens,omitempty"` // 0 lets the provider decide
}

// Response carries the generated text and usage estimates.
type Response struct {
	Text       string  `json:"text"`
	TokensUsed int     `json:"tokens_used"`
	Cost       float64 `json:"cost,omitempty"`
	Model      string  `json:"model,omitempty"`
}

// Provider is a generative model backend.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Response, error)
}

// EstimateTokens provides a rough token estimation for text
func EstimateTokens(text string) int {
	// ~4 characters per token on average
	return len(text) / 4
}

// estimateCost keeps the same heuristic across providers that do not report cost.
func estimateCost(tokens int) float64 {
	return float64(tokens) * 0.002 / 1000.0
}

// usage estimates tokens for a request and its answer when the backend reports none.
func usage(req Request, answer string) int {
	var sb strings.Builder
	sb.WriteString(req.System)
	sb.WriteString("\n")
	sb.WriteString(req.Prompt)
	sb.WriteString("\n")
	sb.WriteString(answer)
	return EstimateTokens(sb.String())
}

// ExtractJSON trims code fences and surrounding prose so the first JSON
// object in s can be decoded.
func ExtractJSON(s string) string {
	s = strings.TrimSpace(stripThinkingSections(s))
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

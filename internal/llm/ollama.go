package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// Ollama implements a real LLM provider backed by a local Ollama server.
// It satisfies Provider and Discovery.
type Ollama struct {
	endpoint   string
	model      string
	httpClient *http.Client
	logger     *log.Logger
}

// NewOllama constructs a new Ollama provider.
// endpoint example: http://localhost:11434
// model example: qwen3:0.6b (may be empty when only using discovery)
func NewOllama(endpoint, model string, logger *log.Logger) (*Ollama, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("ollama: endpoint is required")
	}
	cli := &http.Client{
		Timeout: 60 * time.Second,
	}
	return &Ollama{
		endpoint:   strings.TrimRight(endpoint, "/"),
		model:      strings.TrimSpace(model),
		httpClient: cli,
		logger:     logger,
	}, nil
}

// Name implements Provider.
func (o *Ollama) Name() string { return "ollama" }

// Generate sends a non-streaming request to Ollama's /api/chat endpoint.
func (o *Ollama) Generate(ctx context.Context, req Request) (*Response, error) {
	if o.model == "" {
		return nil, fmt.Errorf("ollama: model not configured")
	}

	type ollamaMsg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	type chatReq struct {
		Model    string      `json:"model"`
		Messages []ollamaMsg `json:"messages"`
		Stream   bool        `json:"stream"`
		Format   string      `json:"format,omitempty"`
		Options  struct {
			NumPredict int `json:"num_predict,omitempty"`
		} `json:"options"`
		Thinking struct {
			Type string `json:"type"`
		} `json:"thinking,omitempty"`
	}
	type chatResp struct {
		Model   string `json:"model"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		// Optional counters present in some builds of Ollama
		EvalCount       int `json:"eval_count"`
		PromptEvalCount int `json:"prompt_eval_count"`
	}

	system := req.System
	if system == "" {
		system = SystemPrompt(req.Task)
	}
	var msgs []ollamaMsg
	if system != "" {
		msgs = append(msgs, ollamaMsg{Role: "system", Content: system})
	}
	msgs = append(msgs, ollamaMsg{Role: "user", Content: req.Prompt})

	payload := chatReq{
		Model:    o.model,
		Messages: msgs,
		Stream:   false,
	}
	if req.JSON {
		payload.Format = "json"
	}
	payload.Options.NumPredict = req.MaxTokens
	// Disable reasoning/thinking content per Ollama thinking API
	payload.Thinking.Type = "disabled"

	data, _ := json.Marshal(payload)

	url := o.endpoint + "/api/chat"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ollama: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama: request error: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("ollama: status %d: %s", resp.StatusCode, truncateString(string(body), 300))
	}

	var cr chatResp
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, fmt.Errorf("ollama: decode response: %w", err)
	}

	content := stripThinkingSections(cr.Message.Content)
	tokens := cr.EvalCount + cr.PromptEvalCount
	if tokens <= 0 {
		tokens = usage(req, content)
	}
	model := cr.Model
	if model == "" {
		model = o.model
	}
	if o.logger != nil {
		o.logger.Printf("ollama %s answered %s (%d tokens)", model, req.Task, tokens)
	}
	return &Response{
		Text:       content,
		TokensUsed: tokens,
		Cost:       estimateCost(tokens),
		Model:      model,
	}, nil
}

// ListModels queries Ollama /api/tags and returns available model names.
func (o *Ollama) ListModels(ctx context.Context) ([]string, error) {
	type tagModel struct {
		Name string `json:"name"`
	}
	type tagsResp struct {
		Models []tagModel `json:"models"`
	}

	url := o.endpoint + "/api/tags"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ollama list models: %w", err)
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama list models: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama list models: status %d: %s", resp.StatusCode, truncateString(string(body), 300))
	}
	body, _ := io.ReadAll(resp.Body)
	var tr tagsResp
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("ollama list models: decode: %w", err)
	}
	out := make([]string, 0, len(tr.Models))
	for _, m := range tr.Models {
		if strings.TrimSpace(m.Name) != "" {
			out = append(out, m.Name)
		}
	}
	return out, nil
}

// HealthCheck performs a lightweight check against /api/tags.
func (o *Ollama) HealthCheck(ctx context.Context) error {
	url := o.endpoint + "/api/tags"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ollama health: status %d: %s", resp.StatusCode, truncateString(string(body), 200))
	}
	return nil
}

func truncateString(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

var (
	reThink    = regexp.MustCompile(`(?is)<\s*think\s*>.*?<\s*/\s*think\s*>`)
	reThinking = regexp.MustCompile(`(?is)<\s*thinking\s*>.*?<\s*/\s*thinking\s*>`)
)

// stripThinkingSections removes <think> and <thinking> blocks from model
// output, case-insensitively, then trims surrounding whitespace.
func stripThinkingSections(s string) string {
	if s == "" {
		return s
	}
	s = reThink.ReplaceAllString(s, "")
	s = reThinking.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

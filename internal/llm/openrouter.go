package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"
)

// OpenRouter implements an LLM provider backed by OpenRouter (OpenAI-compatible API).
// Docs: https://openrouter.ai/docs
type OpenRouter struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
	logger     *log.Logger
}

// NewOpenRouter constructs a new OpenRouter provider.
// endpoint example: https://openrouter.ai/api/v1
// model example: "qwen/qwen-2.5-7b-instruct" (OpenRouter model id)
// apiKey is required; when empty this constructor will try OPENROUTER_API_KEY env var.
func NewOpenRouter(endpoint, model, apiKey string, logger *log.Logger) (*OpenRouter, error) {
	ep := strings.TrimSpace(endpoint)
	if ep == "" {
		ep = "https://openrouter.ai/api/v1"
	}
	key := strings.TrimSpace(apiKey)
	if key == "" {
		key = strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY"))
	}
	if key == "" {
		return nil, fmt.Errorf("openrouter: apiKey required (set in settings or OPENROUTER_API_KEY)")
	}
	return &OpenRouter{
		endpoint:   strings.TrimRight(ep, "/"),
		model:      strings.TrimSpace(model),
		apiKey:     key,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}, nil
}

// Name implements Provider.
func (o *OpenRouter) Name() string { return "openrouter" }

// Generate uses OpenRouter's /chat/completions (OpenAI-style).
func (o *OpenRouter) Generate(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(o.model) == "" {
		return nil, fmt.Errorf("openrouter: model not configured")
	}

	type orMsg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	type orFormat struct {
		Type string `json:"type"`
	}
	type orReq struct {
		Model          string    `json:"model"`
		Messages       []orMsg   `json:"messages"`
		MaxTokens      int       `json:"max_tokens,omitempty"`
		ResponseFormat *orFormat `json:"response_format,omitempty"`
	}
	type orChoice struct {
		Index        int    `json:"index"`
		FinishReason string `json:"finish_reason"`
		Message      struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	}
	type orUsage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	}
	type orResp struct {
		ID      string     `json:"id"`
		Model   string     `json:"model"`
		Choices []orChoice `json:"choices"`
		Usage   orUsage    `json:"usage"`
		Error   *struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    any    `json:"code"`
		} `json:"error,omitempty"`
	}

	system := req.System
	if system == "" {
		system = SystemPrompt(req.Task)
	}
	var msgs []orMsg
	if system != "" {
		msgs = append(msgs, orMsg{Role: "system", Content: system})
	}
	msgs = append(msgs, orMsg{Role: "user", Content: req.Prompt})

	payload := orReq{
		Model:     o.model,
		Messages:  msgs,
		MaxTokens: req.MaxTokens,
	}
	if req.JSON {
		payload.ResponseFormat = &orFormat{Type: "json_object"}
	}
	data, _ := json.Marshal(payload)

	url := o.endpoint + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("openrouter: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	httpReq.Header.Set("X-Title", "KenyaWatch")

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openrouter: request error: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("openrouter: status %d: %s", resp.StatusCode, truncateString(string(body), 400))
	}

	var parsed orResp
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("openrouter: decode response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("openrouter: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("openrouter: empty choices")
	}
	content := stripThinkingSections(parsed.Choices[0].Message.Content)

	// Prefer usage tokens if provided
	tokens := parsed.Usage.TotalTokens
	if tokens <= 0 {
		tokens = usage(req, content)
	}
	model := parsed.Model
	if model == "" {
		model = o.model
	}
	if o.logger != nil {
		o.logger.Printf("openrouter %s answered %s (%d tokens)", model, req.Task, tokens)
	}
	return &Response{
		Text:       content,
		TokensUsed: tokens,
		Cost:       estimateCost(tokens),
		Model:      model,
	}, nil
}

// ListModels queries OpenRouter /models and returns model IDs.
func (o *OpenRouter) ListModels(ctx context.Context) ([]string, error) {
	type mdl struct {
		ID string `json:"id"`
	}
	type mdlResp struct {
		Data []mdl `json:"data"`
	}
	url := o.endpoint + "/models"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("openrouter list models: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openrouter list models: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("openrouter list models: status %d: %s", resp.StatusCode, truncateString(string(body), 400))
	}
	var parsed mdlResp
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("openrouter list models: decode: %w", err)
	}
	out := make([]string, 0, len(parsed.Data))
	for _, m := range parsed.Data {
		if strings.TrimSpace(m.ID) != "" {
			out = append(out, m.ID)
		}
	}
	sort.Strings(out)
	return out, nil
}

// HealthCheck performs a lightweight GET /models using the API key.
func (o *OpenRouter) HealthCheck(ctx context.Context) error {
	url := o.endpoint + "/models"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("openrouter health: status %d: %s", resp.StatusCode, truncateString(string(body), 300))
	}
	return nil
}

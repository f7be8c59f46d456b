package llm

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// Gemini implements Provider on Google's Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
	logger *log.Logger
}

// NewGemini constructs a Gemini provider. apiKey falls back to GEMINI_API_KEY
// and then GOOGLE_API_KEY. A non-empty endpoint overrides the API base URL.
func NewGemini(ctx context.Context, endpoint, model, apiKey string, logger *log.Logger) (*Gemini, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		key = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	if key == "" {
		key = strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))
	}
	if key == "" {
		return nil, fmt.Errorf("gemini: apiKey required (set in settings or GEMINI_API_KEY)")
	}
	if strings.TrimSpace(model) == "" {
		model = defaultGeminiModel
	}
	cfg := &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	}
	if ep := strings.TrimSpace(endpoint); ep != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: ep}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Gemini{client: client, model: strings.TrimSpace(model), logger: logger}, nil
}

// Name implements Provider.
func (g *Gemini) Name() string { return "gemini" }

// Generate implements Provider.
func (g *Gemini) Generate(ctx context.Context, req Request) (*Response, error) {
	cfg := &genai.GenerateContentConfig{}
	system := req.System
	if system == "" {
		system = SystemPrompt(req.Task)
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate: %w", err)
	}
	text := strings.TrimSpace(resp.Text())

	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	if tokens <= 0 {
		tokens = usage(req, text)
	}
	if g.logger != nil {
		g.logger.Printf("gemini %s answered %s (%d tokens)", g.model, req.Task, tokens)
	}
	return &Response{
		Text:       text,
		TokensUsed: tokens,
		Cost:       estimateCost(tokens),
		Model:      g.model,
	}, nil
}

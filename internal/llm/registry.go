package llm

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// Discovery is an optional capability a provider can implement to expose
// model listing and health checks for settings UIs.
type Discovery interface {
	ListModels(ctx context.Context) ([]string, error)
	HealthCheck(ctx context.Context) error
}

// Providers lists the selectable provider names.
func Providers() []string {
	return []string{"local_stub", "ollama", "openrouter", "gemini"}
}

// Build constructs a Provider from a ProviderConfig.
// Returns an error if the provider cannot be built; callers should handle the error.
func Build(ctx context.Context, cfg ProviderConfig, logger *log.Logger) (Provider, error) {
	switch normalize(cfg.Provider) {
	case "ollama":
		p, err := NewOllama(cfg.Endpoint, cfg.Model, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "openrouter":
		p, err := NewOpenRouter(cfg.Endpoint, cfg.Model, cfg.APIKey, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "gemini":
		p, err := NewGemini(ctx, cfg.Endpoint, cfg.Model, cfg.APIKey, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "local_stub", "":
		return NewLocalStub(logger), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}

// TryHealthCheck attempts a provider health check when supported.
func TryHealthCheck(ctx context.Context, p Provider) error {
	if d, ok := p.(Discovery); ok {
		return d.HealthCheck(ctx)
	}
	return nil
}

// TryListModels attempts to list models for a provider when supported.
func TryListModels(ctx context.Context, p Provider) ([]string, error) {
	if d, ok := p.(Discovery); ok {
		return d.ListModels(ctx)
	}
	return nil, fmt.Errorf("model listing not supported by this provider")
}

func normalize(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ollama":
		return "ollama"
	case "openrouter":
		return "openrouter"
	case "gemini", "googleai", "google":
		return "gemini"
	case "localstub", "local", "stub", "local_stub":
		return "local_stub"
	case "":
		return ""
	default:
		return s
	}
}

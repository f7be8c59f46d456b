package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaGenerate(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Stream   bool   `json:"stream"`
		Format   string `json:"format"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/chat":
			_ = json.NewDecoder(r.Body).Decode(&got)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"model":             got.Model,
				"message":           map[string]string{"role": "assistant", "content": "<thinking>x</thinking> {\"highlights\": []}"},
				"eval_count":        4,
				"prompt_eval_count": 6,
			})
		case "/api/tags":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"models": []map[string]string{{"name": "qwen3:0.6b"}, {"name": " "}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p, err := NewOllama(srv.URL+"/", "qwen3:0.6b", nil)
	if err != nil {
		t.Fatalf("NewOllama: %v", err)
	}
	resp, err := p.Generate(context.Background(), Request{
		Task:   TaskSocialHighlights,
		Prompt: SocialHighlightsPrompt("Jane", "post"),
		JSON:   true,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got.Stream {
		t.Errorf("expected non-streaming request")
	}
	if got.Format != "json" {
		t.Errorf("expected json format, got %q", got.Format)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Role != "user" {
		t.Errorf("unexpected messages %+v", got.Messages)
	}
	if resp.Text != `{"highlights": []}` {
		t.Errorf("thinking not stripped: %q", resp.Text)
	}
	if resp.TokensUsed != 10 {
		t.Errorf("expected 10 tokens, got %d", resp.TokensUsed)
	}

	models, err := p.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 1 || models[0] != "qwen3:0.6b" {
		t.Errorf("models = %v", models)
	}
	if err := p.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck: %v", err)
	}
}

func TestOllamaRequiresEndpointAndModel(t *testing.T) {
	if _, err := NewOllama("", "m", nil); err == nil {
		t.Fatalf("expected error for empty endpoint")
	}
	p, err := NewOllama("http://127.0.0.1:1", "", nil)
	if err != nil {
		t.Fatalf("NewOllama: %v", err)
	}
	if _, err := p.Generate(context.Background(), Request{Prompt: "x"}); err == nil {
		t.Fatalf("expected error without model")
	}
}

func TestStripThinkingSections(t *testing.T) {
	in := "<THINK>\nplan\n</THINK>answer <thinking>more</thinking>"
	if got := stripThinkingSections(in); got != "answer" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractJSON(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```":     `{"a":1}`,
		"Sure! {\"a\":1} Hope it helps": `{"a":1}`,
		"{\"a\":{\"b\":2}}":             `{"a":{"b":2}}`,
		"no json here":                  "no json here",
	}
	for in, want := range cases {
		if got := ExtractJSON(in); got != want {
			t.Errorf("ExtractJSON(%q) = %q, want %q", in, got, want)
		}
	}
}

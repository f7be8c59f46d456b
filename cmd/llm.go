package cmd

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Devcode940/kenyawatch/internal/llm"
	"github.com/Devcode940/kenyawatch/internal/logging"
)

var (
	llmProvider string
	llmEndpoint string
	llmModel    string
	llmAPIKey   string
	llmCheck    bool
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Show or change the AI model provider",
}

var llmShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active provider settings",
	Args:  cobra.NoArgs,
	RunE:  runLLMShow,
}

var llmSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change the active provider",
	Long: `Change the active model provider and save it to the settings file.

Providers: local_stub, ollama, openrouter, gemini.

Examples:
  kenyawatch llm set --provider ollama --model qwen3:0.6b
  kenyawatch llm set --provider gemini --api-key $GEMINI_API_KEY --check`,
	Args: cobra.NoArgs,
	RunE: runLLMSet,
}

func init() {
	rootCmd.AddCommand(llmCmd)
	llmCmd.AddCommand(llmShowCmd, llmSetCmd)

	llmShowCmd.Flags().BoolVar(&llmCheck, "check", false, "Run a health check and list models")

	llmSetCmd.Flags().StringVar(&llmProvider, "provider", "", "Provider name")
	llmSetCmd.Flags().StringVar(&llmEndpoint, "endpoint", "", "Provider endpoint (default depends on provider)")
	llmSetCmd.Flags().StringVar(&llmModel, "model", "", "Model name (default depends on provider)")
	llmSetCmd.Flags().StringVar(&llmAPIKey, "api-key", "", "API key for cloud providers")
	llmSetCmd.Flags().BoolVar(&llmCheck, "check", false, "Run a health check after saving")
	llmSetCmd.MarkFlagRequired("provider")
}

func runLLMShow(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	settings, err := llm.LoadSettings(cfg.LLM.Settings)
	if err != nil {
		return err
	}
	printSettings(cmd, cfg.LLM.Settings, settings.Active)
	if llmCheck {
		return checkProvider(cmd, cfg, settings.Active)
	}
	return nil
}

func runLLMSet(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	provider := strings.ToLower(strings.TrimSpace(llmProvider))
	if !slices.Contains(llm.Providers(), provider) {
		return fmt.Errorf("unknown provider %q (use %s)", llmProvider, strings.Join(llm.Providers(), ", "))
	}

	settings, err := llm.LoadSettings(cfg.LLM.Settings)
	if err != nil {
		return err
	}
	active := llm.ProviderConfig{
		Provider: provider,
		Endpoint: llmEndpoint,
		Model:    llmModel,
		APIKey:   llmAPIKey,
	}
	if settings.Active.Provider == provider {
		active.Extra = settings.Active.Extra
		if active.APIKey == "" {
			active.APIKey = settings.Active.APIKey
		}
	}
	if active.Endpoint == "" {
		active.Endpoint = llm.DefaultEndpoint(provider)
	}
	if active.Model == "" {
		active.Model = llm.DefaultModel(provider)
	}
	settings.Active = active

	if err := llm.SaveSettings(cfg.LLM.Settings, settings); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Saved provider settings.")
	printSettings(cmd, cfg.LLM.Settings, active)
	if llmCheck {
		return checkProvider(cmd, cfg, active)
	}
	return nil
}

func printSettings(cmd *cobra.Command, path string, p llm.ProviderConfig) {
	out := cmd.OutOrStdout()
	key := "<not set>"
	if p.APIKey != "" {
		key = "<set>"
	}
	fmt.Fprintf(out, "Settings: %s\n", path)
	fmt.Fprintf(out, "Provider: %s\n", p.Provider)
	fmt.Fprintf(out, "Endpoint: %s\n", p.Endpoint)
	fmt.Fprintf(out, "Model:    %s\n", p.Model)
	fmt.Fprintf(out, "API key:  %s\n", key)
}

func checkProvider(cmd *cobra.Command, cfg Config, p llm.ProviderConfig) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	provider, err := llm.Build(ctx, p, logging.Std(logger, "llm"))
	if err != nil {
		return fmt.Errorf("build provider: %w", err)
	}
	if err := llm.TryHealthCheck(ctx, provider); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Health check: ok")
	if models, err := llm.TryListModels(ctx, provider); err == nil && len(models) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Models: %s\n", strings.Join(models, ", "))
	}
	return nil
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Devcode940/kenyawatch/internal/bus"
	"github.com/Devcode940/kenyawatch/internal/civic"
	"github.com/Devcode940/kenyawatch/internal/flows"
)

var (
	aiAsync    bool
	aiRaw      bool
	newsFile   string
	newsText   string
	handleFlag string
)

var factCheckCmd = &cobra.Command{
	Use:   "factcheck <slug|id>",
	Short: "Run an AI fact check on a representative",
	Long: `Search recent news for a representative and ask the configured model for a
neutral integrity assessment. The report is stored as the representative's
latest integrity report.

With --async the job is queued on the Redis jobs stream and picked up by a
running "kenyawatch serve".`,
	Args: cobra.ExactArgs(1),
	RunE: runFactCheck,
}

var integrityCmd = &cobra.Command{
	Use:   "integrity <slug|id>",
	Short: "Summarize a news digest into an integrity report",
	Long: `Condense a news digest (50 to 5000 characters) into an integrity report. The
digest is read from --news-file ("-" for stdin) or --news, and defaults to
the representative's stored news summary.`,
	Args: cobra.ExactArgs(1),
	RunE: runIntegrity,
}

var highlightsCmd = &cobra.Command{
	Use:   "highlights <slug|id>",
	Short: "Generate highlights from a representative's social media posts",
	Args:  cobra.ExactArgs(1),
	RunE:  runHighlights,
}

var refreshCmd = &cobra.Command{
	Use:   "refresh-data",
	Short: "Refresh county GDP and census figures",
	Args:  cobra.NoArgs,
	RunE:  runRefresh,
}

func init() {
	rootCmd.AddCommand(factCheckCmd, integrityCmd, highlightsCmd, refreshCmd)

	for _, c := range []*cobra.Command{factCheckCmd, integrityCmd, highlightsCmd, refreshCmd} {
		c.Flags().BoolVar(&aiAsync, "async", false, "Queue the job on the Redis jobs stream instead of running it now")
		c.Flags().BoolVar(&aiRaw, "raw", false, "Print output without terminal styling")
	}
	integrityCmd.Flags().StringVar(&newsFile, "news-file", "", "File holding the news digest (- for stdin)")
	integrityCmd.Flags().StringVar(&newsText, "news", "", "News digest text")
	highlightsCmd.Flags().StringVar(&handleFlag, "handle", "", "Twitter handle (defaults to the stored contact)")
}

// withFlows opens the app with the flows service and runs fn.
func withFlows(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	cfg := GetConfig()
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	a, err := openApp(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

// enqueue queues a job for a serve process.
func (a *app) enqueue(ctx context.Context, cmd *cobra.Command, kind bus.JobKind, repID string, payload map[string]string) error {
	if bus.IsNull(a.bus) {
		return errors.New("--async needs a Redis bus (set --redis or redis.url)")
	}
	if payload == nil {
		payload = map[string]string{}
	}
	if a.cfg.User.Name != "" {
		payload[flows.PayloadActor] = a.cfg.User.Name
	}
	id, err := flows.NewRunner(a.flows, a.bus, a.logger.Named("runner")).Enqueue(ctx, kind, repID, payload)
	if err != nil {
		return err
	}
	a.logger.Info("job queued", zap.String("job_id", id), zap.String("kind", string(kind)))
	fmt.Fprintf(cmd.OutOrStdout(), "Queued %s job %s\n", kind, id)
	return nil
}

func runFactCheck(cmd *cobra.Command, args []string) error {
	return withFlows(cmd, func(ctx context.Context, a *app) error {
		rep, err := a.representative(ctx, args[0])
		if err != nil {
			return err
		}
		if aiAsync {
			return a.enqueue(ctx, cmd, bus.JobFactCheck, rep.ID, map[string]string{flows.PayloadName: rep.Name})
		}
		out, err := a.flows.FactCheck(ctx, flows.FactCheckInput{Name: rep.Name, RepresentativeID: rep.ID})
		if err != nil {
			return validationMessage(err)
		}
		return printReport(cmd, rep, civic.ReportFactCheck, out.IntegrityReport)
	})
}

func runIntegrity(cmd *cobra.Command, args []string) error {
	return withFlows(cmd, func(ctx context.Context, a *app) error {
		rep, err := a.representative(ctx, args[0])
		if err != nil {
			return err
		}
		news, err := readNews(cmd, newsFile, newsText)
		if err != nil {
			return err
		}
		if news == "" {
			news = rep.NewsSummaryForAI
		}
		if aiAsync {
			return a.enqueue(ctx, cmd, bus.JobIntegritySummary, rep.ID, map[string]string{
				flows.PayloadName:        rep.Name,
				flows.PayloadNewsSummary: news,
			})
		}
		out, err := a.flows.SummarizeIntegrityReport(ctx, flows.IntegrityReportInput{
			Name:             rep.Name,
			NewsSummary:      news,
			RepresentativeID: rep.ID,
		})
		if err != nil {
			return validationMessage(err)
		}
		return printReport(cmd, rep, civic.ReportSummary, out.IntegrityReport)
	})
}

func runHighlights(cmd *cobra.Command, args []string) error {
	return withFlows(cmd, func(ctx context.Context, a *app) error {
		rep, err := a.representative(ctx, args[0])
		if err != nil {
			return err
		}
		handle := handleFlag
		if handle == "" {
			handle = rep.ContactInfo.Twitter
		}
		if aiAsync {
			return a.enqueue(ctx, cmd, bus.JobSocialHighlights, rep.ID, map[string]string{
				flows.PayloadName:          rep.Name,
				flows.PayloadTwitterHandle: handle,
			})
		}
		out, err := a.flows.GenerateSocialHighlights(ctx, flows.SocialHighlightsInput{
			RepresentativeID:   rep.ID,
			RepresentativeName: rep.Name,
			TwitterHandle:      handle,
		})
		if err != nil {
			return validationMessage(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), out.Summary)
		return nil
	})
}

func runRefresh(cmd *cobra.Command, args []string) error {
	return withFlows(cmd, func(ctx context.Context, a *app) error {
		if aiAsync {
			return a.enqueue(ctx, cmd, bus.JobRefreshEconomic, "", nil)
		}
		out, err := a.flows.FetchEconomicData(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out.Summary)
		return nil
	})
}

// readNews returns the digest from path ("-" is stdin) or text.
func readNews(cmd *cobra.Command, path, text string) (string, error) {
	switch path {
	case "":
		return strings.TrimSpace(text), nil
	case "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read news from stdin: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read news file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func printReport(cmd *cobra.Command, rep civic.Representative, kind civic.ReportKind, report string) error {
	title := "Fact Check"
	if kind == civic.ReportSummary {
		title = "Integrity Summary"
	}
	md := fmt.Sprintf("# %s: %s\n\n%s\n", title, rep.Name, report)
	return printMarkdown(cmd.OutOrStdout(), md, aiRaw)
}

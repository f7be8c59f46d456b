package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Devcode940/kenyawatch/internal/civic"
	"github.com/Devcode940/kenyawatch/internal/store"
)

var (
	showRaw    bool
	showOutput string
)

// showCmd prints a representative profile.
var showCmd = &cobra.Command{
	Use:   "show <slug|id>",
	Short: "Show a representative profile",
	Long: `Show a representative with performance metrics, highlights, citizen reviews
and the latest integrity report.

Examples:
  kenyawatch show ali-omar-mp
  kenyawatch show 3 -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().BoolVar(&showRaw, "raw", false, "Print markdown without terminal styling")
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "markdown", "Output format: markdown, json")
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := GetConfig()
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	a, err := openApp(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer a.Close()

	rep, err := a.representative(ctx, args[0])
	if err != nil {
		return err
	}
	p, err := a.store.Profile(ctx, rep.ID)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	if strings.EqualFold(showOutput, "json") {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	}
	return printMarkdown(cmd.OutOrStdout(), profileMarkdown(p), showRaw)
}

// printMarkdown renders md for the terminal. Rendering failures fall back
// to the plain markdown.
func printMarkdown(w io.Writer, md string, raw bool) error {
	if !raw {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
		if err == nil {
			if out, err := r.Render(md); err == nil {
				_, err = io.WriteString(w, out)
				return err
			}
		}
	}
	_, err := io.WriteString(w, md)
	return err
}

// profileMarkdown formats a profile as a markdown document.
func profileMarkdown(p store.Profile) string {
	var b strings.Builder
	r := p.Representative

	fmt.Fprintf(&b, "# %s\n\n", r.Name)
	fmt.Fprintf(&b, "**%s**, %s", r.Position, r.ConstituencyOrWard)
	if r.County != "" && r.County != r.ConstituencyOrWard {
		fmt.Fprintf(&b, ", %s", r.County)
	}
	if r.Party != "" {
		fmt.Fprintf(&b, " | %s", r.Party)
	}
	b.WriteString("\n\n")
	if r.VotesGarnered != nil {
		fmt.Fprintf(&b, "Votes garnered: %s\n\n", humanize.Comma(*r.VotesGarnered))
	}

	c := r.ContactInfo
	for _, item := range []struct{ label, value string }{
		{"Email", c.Email},
		{"Phone", c.Phone},
		{"Office", c.OfficeAddress},
		{"Twitter", c.Twitter},
		{"Facebook", c.Facebook},
	} {
		if item.value != "" {
			fmt.Fprintf(&b, "- %s: %s\n", item.label, item.value)
		}
	}
	if r.ParticipationRecordSummary != "" {
		fmt.Fprintf(&b, "\n## Participation\n\n%s\n", r.ParticipationRecordSummary)
	}

	b.WriteString("\n## Performance Metrics\n\n")
	if len(p.Metrics) == 0 {
		b.WriteString("_No performance metrics recorded._\n")
	} else {
		b.WriteString("| Metric | Value | Trend |\n|---|---|---|\n")
		for _, m := range p.Metrics {
			value := m.Value.String()
			switch {
			case m.Unit == "%":
				value += "%"
			case m.Unit != "":
				value += " " + m.Unit
			}
			fmt.Fprintf(&b, "| %s | %s | %s |\n", m.Name, value, trendWord(m.Trend))
		}
	}

	b.WriteString("\n## Highlights\n\n")
	if len(p.Highlights) == 0 {
		b.WriteString("_No highlights yet._\n")
	}
	for _, h := range p.Highlights {
		date := h.Date
		if len(date) >= 10 {
			date = date[:10]
		}
		fmt.Fprintf(&b, "- **%s** (%s, %s)", h.Title, h.Category, date)
		if h.Description != "" {
			fmt.Fprintf(&b, ": %s", h.Description)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n## Citizen Reviews\n\n")
	if len(p.Reviews) == 0 {
		b.WriteString("_No reviews yet._\n")
	}
	for _, rv := range p.Reviews {
		stars := strings.Repeat("★", rv.Rating) + strings.Repeat("☆", civic.MaxRating-rv.Rating)
		fmt.Fprintf(&b, "- %s %s, %s\n  > %s\n", stars, rv.UserName, humanize.Time(rv.CreatedAt), rv.Comment)
	}

	b.WriteString("\n## Integrity Report\n\n")
	if p.Report == nil {
		b.WriteString("_No integrity report yet. Run `kenyawatch factcheck` to create one._\n")
	} else {
		fmt.Fprintf(&b, "_%s, %s_\n\n%s\n", p.Report.Kind, humanize.Time(p.Report.CreatedAt), p.Report.Report)
	}
	return b.String()
}

func trendWord(t civic.Trend) string {
	switch t {
	case civic.TrendUp:
		return "↑ up"
	case civic.TrendDown:
		return "↓ down"
	case civic.TrendStable:
		return "→ stable"
	}
	return ""
}

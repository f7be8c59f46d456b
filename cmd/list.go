package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/Devcode940/kenyawatch/internal/datasets"
	"github.com/Devcode940/kenyawatch/internal/ingest"
	"github.com/Devcode940/kenyawatch/internal/table"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list <dataset>",
	Short: "Print a dataset table",
	Long: `Print one of the dataset tables (representatives, census, gdp, leaderboard)
with the same search, filter and sort behaviour as the TUI. This command
works in any terminal and is handy for scripts.

Examples:
  # Representatives sorted by name
  kenyawatch list representatives

  # Governors in Nairobi
  kenyawatch list representatives --filter position=Governor --filter county=Nairobi

  # Counties by population, smallest first
  kenyawatch list census --sort totalPopulation

  # Leaderboard as JSON
  kenyawatch list leaderboard -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

var (
	listSearch  string
	listFilters []string
	listSort    string
	listDesc    bool
	listOutput  string
	listLimit   int
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Case-insensitive search term")
	listCmd.Flags().StringArrayVarP(&listFilters, "filter", "f", nil, "Filter as path=value (repeatable, value 'all' clears)")
	listCmd.Flags().StringVar(&listSort, "sort", "", "Sort by column path (default: the table's initial sort)")
	listCmd.Flags().BoolVar(&listDesc, "desc", false, "Sort descending")
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "table", "Output format: table, json, yaml")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Maximum number of rows to print (0 = all)")
}

func runList(cmd *cobra.Command, args []string) error {
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

	v, err := datasets.Open(ctx, a.store, datasetName(args[0]), logger.Named("table"))
	if err != nil {
		return err
	}
	if err := applyListState(v, listSearch, listFilters, listSort, listDesc, cmd.Flags().Changed("desc")); err != nil {
		return err
	}
	return renderList(cmd.OutOrStdout(), v, listOutput, listLimit)
}

// datasetName accepts the dataset names plus the ingest aliases.
func datasetName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if _, ok := datasets.Lookup(name); ok {
		return name
	}
	if n := ingest.NormalizeDataset(name); n != "" {
		return n
	}
	return name
}

// applyListState applies the command line search, filters and sort to v.
func applyListState(v *table.View, search string, filters []string, sortPath string, desc, descSet bool) error {
	v.SetSearchTerm(search)
	for _, f := range filters {
		path, value, ok := strings.Cut(f, "=")
		if !ok || strings.TrimSpace(path) == "" {
			return fmt.Errorf("invalid filter %q, expected path=value", f)
		}
		v.SetFilter(strings.TrimSpace(path), strings.TrimSpace(value))
	}

	state := v.State()
	if sortPath != "" {
		p := table.ParsePath(sortPath)
		if !v.Schema().Sortable(p) {
			return fmt.Errorf("cannot sort by %q", sortPath)
		}
		state.SortKey = p
		state.SortDir = table.Asc
	}
	if descSet {
		state.SortDir = table.Asc
		if desc {
			state.SortDir = table.Desc
		}
	}
	v.SetState(state)
	return nil
}

// renderList writes the derived rows of v in format.
func renderList(w io.Writer, v *table.View, format string, limit int) error {
	grid := v.Render()
	rows, cells := grid.Projection, grid.Rows
	if limit > 0 && len(rows) > limit {
		rows, cells = rows[:limit], cells[:limit]
	}

	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if rows == nil {
			rows = []table.Row{}
		}
		return enc.Encode(rows)
	case "yaml", "yml":
		if rows == nil {
			rows = []table.Row{}
		}
		out, err := yaml.Marshal(rows)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		_, err = w.Write(out)
		return err
	case "table", "":
	default:
		return fmt.Errorf("unknown output format %q (use table, json or yaml)", format)
	}

	if grid.Empty {
		_, err := fmt.Fprintln(w, grid.EmptyMessage)
		return err
	}
	_, err := fmt.Fprintf(w, "%s\n%d of %d row(s)\n", listTable(grid.Headers, cells).Render(), len(cells), len(grid.Rows))
	return err
}

func listTable(headers []string, rows [][]string) *lgtable.Table {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#006600")).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	altStyle := cellStyle.Faint(true)

	return lgtable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#BB0000"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == lgtable.HeaderRow:
				return headerStyle
			case row%2 == 1:
				return altStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
}

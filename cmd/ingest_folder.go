package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Devcode940/kenyawatch/internal/ingest"
	"github.com/Devcode940/kenyawatch/internal/logging"
)

var (
	folderDir      string
	folderWatch    bool
	folderDataset  string
	folderPatterns string
)

// ingestFolderCmd represents the ingest-folder command
var ingestFolderCmd = &cobra.Command{
	Use:   "ingest-folder [dir]",
	Short: "Ingest records from files in a directory (optionally watch for changes)",
	Long: `Ingest representative, GDP and census records from a directory. Supports
JSONL (line-delimited), JSON and TOML fixture files.

Examples:
  # One-shot: ingest existing files and exit
  kenyawatch ingest-folder --dir ./incoming

  # Watch mode: tail JSONL appends and reprocess JSON and TOML changes
  kenyawatch ingest-folder --dir ./incoming --watch

  # Treat records without a dataset field as county GDP
  kenyawatch ingest-folder --dir ./incoming --dataset gdp --pattern "*.jsonl"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngestFolder,
}

func init() {
	rootCmd.AddCommand(ingestFolderCmd)

	ingestFolderCmd.Flags().StringVar(&folderDir, "dir", "", "Directory to read files from (default ingest.dir)")
	ingestFolderCmd.Flags().BoolVar(&folderWatch, "watch", false, "Watch directory for changes and tail JSONL files")
	ingestFolderCmd.Flags().StringVar(&folderDataset, "dataset", "", "Dataset for records without a dataset field")
	ingestFolderCmd.Flags().StringVar(&folderPatterns, "pattern", "*.jsonl,*.json,*.toml", "Comma-separated glob patterns to match (e.g. \"*.jsonl,*.json\")")
}

func runIngestFolder(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := GetConfig()
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	dir := folderDir
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" {
		dir = cfg.Ingest.Dir
	}
	dataset := ingest.NormalizeDataset(folderDataset)
	if folderDataset != "" && dataset == "" {
		return fmt.Errorf("unknown dataset %q (use representatives, gdp or census)", folderDataset)
	}

	a, err := openApp(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := ingest.FolderOptions{
		Dir:      dir,
		Watch:    folderWatch,
		Patterns: splitPatterns(folderPatterns),
		Dataset:  dataset,
		Logger:   logging.Std(logger, "ingest-folder"),
	}
	logger.Info("starting ingest-folder",
		zap.String("dir", opts.Dir),
		zap.Bool("watch", opts.Watch),
		zap.String("dataset", opts.Dataset),
		zap.Strings("patterns", opts.Patterns),
	)

	ingestor := ingest.NewFolderIngestor(ingest.NewParser(), a.store, a.bus, opts)
	if err := ingestor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("ingest-folder error: %w", err)
	}

	stats := ingestor.Stats()
	logger.Info("ingest-folder completed", zap.Int("ingested", stats.Ingested), zap.Int("errors", stats.Errors))
	fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d record(s), %d error(s)\n", stats.Ingested, stats.Errors)
	return nil
}

// splitPatterns parses a comma-separated glob list, defaulting to the
// JSONL, JSON and TOML patterns.
func splitPatterns(s string) []string {
	var patterns []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	if len(patterns) == 0 {
		patterns = []string{"*.jsonl", "*.json", "*.toml"}
	}
	return patterns
}

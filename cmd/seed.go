package cmd

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Devcode940/kenyawatch/internal/bus"
	"github.com/Devcode940/kenyawatch/internal/datasets"
	"github.com/Devcode940/kenyawatch/internal/fixtures"
	"github.com/Devcode940/kenyawatch/internal/store"
)

var (
	seedForce bool
	seedFile  string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed sample representatives and economic data into the database",
	Long: `Seed the sample representatives, performance metrics, highlights, county
GDP, census and scorecard records into the SQLite database.

A database that already holds representatives is left alone unless --force
is given. Seeding is idempotent: records with the same IDs are updated.

Examples:
  kenyawatch seed
  kenyawatch seed --force
  kenyawatch seed --file my-fixtures.toml`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().BoolVar(&seedForce, "force", false, "Seed even when the database already has data")
	seedCmd.Flags().StringVar(&seedFile, "file", "", "TOML fixture file to seed instead of the built-in set")
}

func runSeed(cmd *cobra.Command, args []string) error {
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

	empty, err := a.store.IsEmpty(ctx)
	if err != nil {
		return err
	}
	if !empty && !seedForce {
		fmt.Fprintln(cmd.OutOrStdout(), "Database already has data, skipping (use --force to seed anyway)")
		return nil
	}

	set, err := loadFixtures(seedFile)
	if err != nil {
		return err
	}
	logger.Info("seeding database", zap.String("db", cfg.Database.Path), zap.Int("records", set.Len()))
	if err := a.store.Seed(ctx, set); err != nil {
		return err
	}

	for _, dataset := range datasets.Names() {
		msg := bus.UpdateMessage{Dataset: dataset, Action: bus.ActionUpserted, Timestamp: time.Now().Unix()}
		if err := a.bus.PublishUpdate(ctx, msg); err != nil {
			logger.Warn("publish update failed", zap.String("dataset", dataset), zap.Error(err))
		}
	}
	if err := a.store.LogAction(ctx, "", "seed", cfg.User.Name, map[string]interface{}{"records": set.Len()}); err != nil {
		logger.Warn("failed to write audit entry", zap.Error(err))
	}

	return printCounts(cmd, a.store)
}

func loadFixtures(path string) (*fixtures.Set, error) {
	if path == "" {
		return fixtures.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return fixtures.Parse(data)
}

func printCounts(cmd *cobra.Command, st *store.Store) error {
	counts, err := st.Counts(cmd.Context())
	if err != nil {
		return err
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Seeding completed:")
	for _, name := range names {
		fmt.Fprintf(out, "  %-20s %d\n", name, counts[name])
	}
	return nil
}

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"

	"github.com/Devcode940/kenyawatch/internal/bus"
)

var (
	confirmReset bool
	resetRedis   bool
	resetDB      bool
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset Redis streams and/or database",
	Long: `Reset command clears the KenyaWatch Redis streams and/or the SQLite database.

By default, both are reset. You can selectively reset only Redis or only the
database using the --redis-only or --db-only flags. Only the "updates" and
"jobs" streams are deleted; other keys in the Redis database are kept.

WARNING: This operation is irreversible and will permanently delete all data.

Examples:
  # Reset both Redis and database (requires confirmation)
  kenyawatch reset

  # Reset with automatic confirmation
  kenyawatch reset --yes

  # Reset only Redis data
  kenyawatch reset --redis-only

  # Reset only database
  kenyawatch reset --db-only`,
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().BoolVarP(&confirmReset, "yes", "y", false, "Automatically confirm reset operation")
	resetCmd.Flags().BoolVar(&resetRedis, "redis-only", false, "Reset only Redis data")
	resetCmd.Flags().BoolVar(&resetDB, "db-only", false, "Reset only database")
}

func runReset(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := GetConfig()
	out := cmd.OutOrStdout()
	in := bufio.NewReader(cmd.InOrStdin())

	doRedis, doDB := resetRedis, resetDB
	resetBoth := !doRedis && !doDB
	if resetBoth {
		doRedis, doDB = true, true
	}
	if doRedis && cfg.Redis.URL == "" {
		if !doDB {
			return fmt.Errorf("no Redis URL configured (set --redis or redis.url)")
		}
		doRedis = false
	}

	var targets []string
	if doRedis {
		targets = append(targets, "Redis streams")
	}
	if doDB {
		targets = append(targets, "SQLite database")
	}
	fmt.Fprintf(out, "This will permanently delete: %s\n", strings.Join(targets, " and "))

	if !confirmReset && !confirm(out, in, "Are you sure you want to continue? (y/N): ") {
		fmt.Fprintln(out, "Reset operation cancelled.")
		return nil
	}

	if doRedis {
		if err := resetRedisStreams(ctx, out, cfg.Redis.URL); err != nil {
			fmt.Fprintf(out, "Warning: Failed to reset Redis data: %v\n", err)
			if !doDB {
				return fmt.Errorf("failed to reset Redis data: %w", err)
			}
			if resetBoth && !confirmReset && !confirm(out, in, "Would you like to continue with database reset only? (y/N): ") {
				return fmt.Errorf("reset operation cancelled due to Redis connection failure")
			}
		} else {
			fmt.Fprintln(out, "✓ Redis streams cleared successfully")
		}
	}

	if doDB {
		if err := resetDatabase(out, cfg.Database.Path); err != nil {
			return fmt.Errorf("failed to reset database: %w", err)
		}
		fmt.Fprintln(out, "✓ Database cleared successfully")
	}

	fmt.Fprintln(out, "Reset operation completed successfully!")
	return nil
}

func confirm(out io.Writer, in *bufio.Reader, prompt string) bool {
	fmt.Fprint(out, prompt)
	response, _ := in.ReadString('\n')
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}

func resetRedisStreams(ctx context.Context, out io.Writer, redisURL string) error {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	n, err := client.Del(ctx, bus.UpdatesStream, bus.JobsStream).Result()
	if err != nil {
		return fmt.Errorf("failed to delete streams: %w", err)
	}
	if n == 0 {
		fmt.Fprintln(out, "No Redis streams found to clear")
		return nil
	}
	fmt.Fprintf(out, "Deleted %d Redis stream(s)\n", n)
	return nil
}

func resetDatabase(out io.Writer, dbPath string) error {
	if dbPath == "" || dbPath == ":memory:" {
		fmt.Fprintln(out, "No database files found to remove")
		return nil
	}

	dbFiles := []string{
		dbPath,
		dbPath + "-shm", // Shared memory file
		dbPath + "-wal", // Write-ahead log file
	}

	var removedFiles []string
	for _, file := range dbFiles {
		if _, err := os.Stat(file); err == nil {
			if err := os.Remove(file); err != nil {
				return fmt.Errorf("failed to remove database file %s: %w", file, err)
			}
			removedFiles = append(removedFiles, filepath.Base(file))
		}
	}

	if len(removedFiles) == 0 {
		fmt.Fprintln(out, "No database files found to remove")
		return nil
	}

	fmt.Fprintf(out, "Removed database files: %s\n", strings.Join(removedFiles, ", "))
	return nil
}

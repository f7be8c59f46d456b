package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Devcode940/kenyawatch/internal/bus"
	"github.com/Devcode940/kenyawatch/internal/ingest"
)

var (
	inputFile     string
	batchSize     int
	skipInvalid   bool
	ingestDataset string
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest representative, GDP or census records from file or stdin",
	Long: `Ingest records from a file or stdin. Supports JSONL (one record per line)
and JSON (one object or an array of objects).

Each record names its dataset with a "dataset" field (representatives, gdp,
census). Records without one use --dataset, or the dataset the file name
implies (e.g. county_gdp.jsonl).

Examples:
  # Ingest from file
  kenyawatch ingest representatives.jsonl

  # Ingest from stdin
  cat gdp.json | kenyawatch ingest --dataset gdp -

  # Skip invalid records instead of failing
  kenyawatch ingest --skip-invalid census.jsonl`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVarP(&inputFile, "file", "f", "", "Input file path (use '-' for stdin)")
	ingestCmd.Flags().IntVar(&batchSize, "batch-size", 50, "Number of records to store in each transaction")
	ingestCmd.Flags().BoolVar(&skipInvalid, "skip-invalid", false, "Skip invalid records instead of failing")
	ingestCmd.Flags().StringVar(&ingestDataset, "dataset", "", "Dataset for records without a dataset field")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := GetConfig()
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if len(args) > 0 {
		inputFile = args[0]
	}

	var input io.Reader
	inputName := "stdin"
	fallback := ingest.NormalizeDataset(ingestDataset)
	if inputFile == "" || inputFile == "-" {
		input = cmd.InOrStdin()
	} else {
		file, err := os.Open(inputFile)
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		input = file
		inputName = inputFile
		if fallback == "" {
			fallback = ingest.DatasetFromFilename(inputFile)
		}
	}
	if ingestDataset != "" && fallback == "" {
		return fmt.Errorf("unknown dataset %q (use representatives, gdp or census)", ingestDataset)
	}

	cfg.Database.Path = resolvePathRelativeToBase(getWorkingDir(), cfg.Database.Path)
	a, err := openApp(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer a.Close()

	log := logger.Named("ingest")
	log.Info("starting ingestion", zap.String("input", inputName), zap.String("db", cfg.Database.Path))

	stats, err := processRecords(ctx, input, ingest.NewParser(), a, fallback, log)
	if err != nil {
		return fmt.Errorf("failed to process records: %w", err)
	}

	log.Info("ingestion completed",
		zap.Int("total", stats.TotalRecords),
		zap.Int("ingested", stats.SuccessfulRecords),
		zap.Int("failed", stats.FailedRecords),
		zap.Int("skipped", stats.SkippedRecords),
		zap.Duration("elapsed", stats.ProcessingTime),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d of %d record(s)\n", stats.SuccessfulRecords, stats.TotalRecords)

	if stats.FailedRecords > 0 && !skipInvalid {
		return fmt.Errorf("ingestion completed with %d failed records", stats.FailedRecords)
	}
	return nil
}

// IngestStats holds statistics about the ingestion process
type IngestStats struct {
	TotalRecords      int
	SuccessfulRecords int
	FailedRecords     int
	SkippedRecords    int
	ProcessingTime    time.Duration
}

// processRecords reads JSON or JSONL from input and stores records in
// batches of batchSize.
func processRecords(ctx context.Context, input io.Reader, parser *ingest.Parser,
	a *app, fallback string, logger *zap.Logger) (*IngestStats, error) {

	startTime := time.Now()
	stats := &IngestStats{}

	br := bufio.NewReader(input)
	raws, err := readRaws(br)
	if err != nil {
		return stats, err
	}

	size := batchSize
	if size <= 0 {
		size = 50
	}
	for start := 0; start < len(raws); start += size {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		end := min(start+size, len(raws))
		if err := processBatch(ctx, raws[start:end], parser, a, fallback, logger, start+1, stats); err != nil {
			return stats, err
		}
	}

	stats.ProcessingTime = time.Since(startTime)
	return stats, nil
}

// readRaws splits the input into raw records. Input starting with '[' is a
// JSON array; anything else is JSONL.
func readRaws(br *bufio.Reader) ([]json.RawMessage, error) {
	data, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("error reading input: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if data[0] == '[' {
		var raws []json.RawMessage
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, fmt.Errorf("invalid JSON array: %w", err)
		}
		return raws, nil
	}

	var raws []json.RawMessage
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		raws = append(raws, json.RawMessage(line))
	}
	return raws, nil
}

// processBatch parses one batch and stores the valid records in one pass.
func processBatch(ctx context.Context, raws []json.RawMessage, parser *ingest.Parser,
	a *app, fallback string, logger *zap.Logger, startRecord int, stats *IngestStats) error {

	var batch ingest.Batch
	var records []ingest.Record
	for i, raw := range raws {
		stats.TotalRecords++
		rec, err := parser.ParseRecord(raw, fallback)
		if err != nil {
			stats.FailedRecords++
			if skipInvalid {
				stats.SkippedRecords++
				logger.Warn("skipping invalid record", zap.Int("record", startRecord+i), zap.Error(err))
			} else {
				logger.Error("failed to parse record", zap.Int("record", startRecord+i), zap.Error(err))
			}
			continue
		}
		batch.Add(rec)
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil
	}
	if err := batch.Store(ctx, a.store); err != nil {
		return err
	}
	stats.SuccessfulRecords += len(records)

	for _, r := range records {
		err := a.bus.PublishUpdate(ctx, bus.UpdateMessage{
			Dataset:   r.Dataset,
			SubjectID: r.SubjectID(),
			Action:    bus.ActionUpserted,
			Timestamp: time.Now().Unix(),
		})
		if err != nil {
			logger.Warn("failed to publish update", zap.String("dataset", r.Dataset), zap.Error(err))
		}
	}
	return nil
}

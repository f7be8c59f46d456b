package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Devcode940/kenyawatch/internal/bus"
	"github.com/Devcode940/kenyawatch/internal/datasets"
	"github.com/Devcode940/kenyawatch/internal/store"
)

// FolderOptions controls ingest-folder behavior.
type FolderOptions struct {
	Dir      string
	Watch    bool
	Patterns []string // e.g. []string{"*.jsonl", "*.json", "*.toml"}
	// Dataset is used for records that carry no "dataset" field and whose
	// file name has no dataset prefix.
	Dataset string
	Logger  *log.Logger
	// When true and in Watch mode, start JSONL files at EOF on startup so
	// existing lines are not ingested again on every start.
	TailFromEnd bool
}

// Stats counts ingested records and failures.
type Stats struct {
	Ingested int
	Errors   int
}

// FolderIngestor loads civic records from a directory (one-shot or watch mode).
type FolderIngestor struct {
	parser *Parser
	store  *store.Store
	bus    bus.Bus
	opts   FolderOptions
	now    func() time.Time

	offsets map[string]int64 // per-file tail offset for jsonl
	mu      sync.Mutex

	ingested int
	errors   int
}

// NewFolderIngestor constructs a folder ingestor.
func NewFolderIngestor(parser *Parser, st *store.Store, b bus.Bus, opts FolderOptions) *FolderIngestor {
	if opts.Logger == nil {
		opts.Logger = log.New(log.Writer(), "[ingest-folder] ", log.LstdFlags)
	}
	if len(opts.Patterns) == 0 {
		opts.Patterns = []string{"*.jsonl", "*.json", "*.toml"}
	}
	if parser == nil {
		parser = NewParser()
	}
	if b == nil {
		b = bus.NewNullBus(opts.Logger)
	}
	return &FolderIngestor{
		parser:  parser,
		store:   st,
		bus:     b,
		opts:    opts,
		now:     time.Now,
		offsets: make(map[string]int64),
	}
}

// Stats returns the counters accumulated so far.
func (fi *FolderIngestor) Stats() Stats {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	return Stats{Ingested: fi.ingested, Errors: fi.errors}
}

// Run executes the ingestion per options (one-shot or watch).
func (fi *FolderIngestor) Run(ctx context.Context) error {
	if err := fi.scanOnce(ctx); err != nil {
		return err
	}

	if !fi.opts.Watch {
		s := fi.Stats()
		fi.opts.Logger.Printf("Completed one-shot ingest: ingested=%d errors=%d", s.Ingested, s.Errors)
		return nil
	}

	return fi.watchLoop(ctx)
}

func (fi *FolderIngestor) matches(name string) bool {
	lower := strings.ToLower(name)
	for _, pat := range fi.opts.Patterns {
		p := strings.TrimSpace(strings.ToLower(pat))
		if ok, _ := filepath.Match(p, lower); ok {
			return true
		}
	}
	return false
}

func (fi *FolderIngestor) scanOnce(ctx context.Context) error {
	entries, err := os.ReadDir(fi.opts.Dir)
	if err != nil {
		return fmt.Errorf("read dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !fi.matches(e.Name()) {
			continue
		}
		path := filepath.Join(fi.opts.Dir, e.Name())
		if strings.HasSuffix(strings.ToLower(e.Name()), ".jsonl") && fi.opts.Watch && fi.opts.TailFromEnd {
			if st, err := os.Stat(path); err == nil {
				fi.mu.Lock()
				fi.offsets[path] = st.Size()
				fi.mu.Unlock()
			}
			continue
		}
		fi.processPath(ctx, path)
	}
	return nil
}

// processPath dispatches on the file extension. JSONL files are tailed from
// their last known offset.
func (fi *FolderIngestor) processPath(ctx context.Context, path string) {
	lower := strings.ToLower(path)
	var err error
	switch {
	case strings.HasSuffix(lower, ".jsonl"):
		fi.mu.Lock()
		offset := fi.offsets[path]
		fi.mu.Unlock()
		var next int64
		next, err = fi.processJSONL(ctx, path, offset)
		if err == nil {
			fi.mu.Lock()
			fi.offsets[path] = next
			fi.mu.Unlock()
		}
	case strings.HasSuffix(lower, ".json"):
		err = fi.processJSONFile(ctx, path)
	case strings.HasSuffix(lower, ".toml"):
		err = fi.processTOMLFile(ctx, path)
	}
	if err != nil {
		fi.opts.Logger.Printf("error processing %s: %v", path, err)
		fi.countError()
	}
}

func (fi *FolderIngestor) watchLoop(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer w.Close()

	if err := w.Add(fi.opts.Dir); err != nil {
		return fmt.Errorf("watch add: %w", err)
	}

	fi.opts.Logger.Printf("Watching directory: %s (patterns: %s)", fi.opts.Dir, strings.Join(fi.opts.Patterns, ","))

	for {
		select {
		case <-ctx.Done():
			s := fi.Stats()
			fi.opts.Logger.Printf("Watch stopping: ingested=%d errors=%d", s.Ingested, s.Errors)
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !fi.matches(filepath.Base(ev.Name)) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				fi.processPath(ctx, ev.Name)
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				fi.mu.Lock()
				delete(fi.offsets, ev.Name)
				fi.mu.Unlock()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				fi.opts.Logger.Printf("watch error: %v", err)
			}
		}
	}
}

func (fi *FolderIngestor) fallbackDataset(path string) string {
	if ds := DatasetFromFilename(path); ds != "" {
		return ds
	}
	return fi.opts.Dataset
}

func (fi *FolderIngestor) processJSONL(ctx context.Context, path string, startOffset int64) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		// File might be transiently missing (rename/rotate)
		return startOffset, err
	}
	defer f.Close()

	if st, err := f.Stat(); err == nil && st.Size() < startOffset {
		// truncated
		startOffset = 0
	}
	if startOffset > 0 {
		if _, err := f.Seek(startOffset, io.SeekStart); err != nil {
			return startOffset, err
		}
	}

	fallback := fi.fallbackDataset(path)
	reader := bufio.NewScanner(f)
	reader.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024)

	bytesRead := startOffset
	for reader.Scan() {
		bytesRead += int64(len(reader.Bytes())) + 1
		line := strings.TrimSpace(reader.Text())
		if line == "" {
			continue
		}
		rec, err := fi.parser.ParseRecord([]byte(line), fallback)
		if err != nil {
			fi.opts.Logger.Printf("parse error in %s: %v", path, err)
			fi.countError()
			continue
		}
		if err := fi.apply(ctx, []Record{rec}); err != nil {
			fi.opts.Logger.Printf("store error in %s: %v", path, err)
			fi.countError()
		}
	}
	return bytesRead, reader.Err()
}

func (fi *FolderIngestor) processJSONFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	trim := strings.TrimSpace(string(data))
	if trim == "" {
		return nil
	}

	fallback := fi.fallbackDataset(path)
	var raws []json.RawMessage
	if strings.HasPrefix(trim, "[") {
		if err := json.Unmarshal([]byte(trim), &raws); err != nil {
			return err
		}
	} else {
		raws = []json.RawMessage{json.RawMessage(trim)}
	}

	var records []Record
	for _, raw := range raws {
		rec, err := fi.parser.ParseRecord(raw, fallback)
		if err != nil {
			fi.opts.Logger.Printf("parse error in %s: %v", path, err)
			fi.countError()
			continue
		}
		records = append(records, rec)
	}
	return fi.apply(ctx, records)
}

func (fi *FolderIngestor) processTOMLFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	set, err := fi.parser.ParseFixtures(data)
	if err != nil {
		return err
	}
	if err := fi.store.Seed(ctx, set); err != nil {
		return err
	}
	fi.mu.Lock()
	fi.ingested += set.Len()
	fi.mu.Unlock()

	for _, ds := range []struct {
		name string
		n    int
	}{
		{datasets.Representatives, len(set.Representatives) + len(set.Metrics) + len(set.Highlights)},
		{datasets.Leaderboard, len(set.Reviews) + len(set.ScoreCards)},
		{datasets.GDP, len(set.GDP)},
		{datasets.Census, len(set.Census)},
	} {
		if ds.n > 0 {
			fi.publish(ctx, ds.name, "")
		}
	}
	return nil
}

// apply stores records in one batch per dataset and announces each record.
func (fi *FolderIngestor) apply(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	var batch Batch
	for _, r := range records {
		batch.Add(r)
	}
	if err := batch.Store(ctx, fi.store); err != nil {
		return err
	}
	fi.mu.Lock()
	fi.ingested += len(records)
	fi.mu.Unlock()
	for _, r := range records {
		fi.publish(ctx, r.Dataset, r.SubjectID())
	}
	return nil
}

func (fi *FolderIngestor) publish(ctx context.Context, dataset, subjectID string) {
	err := fi.bus.PublishUpdate(ctx, bus.UpdateMessage{
		Dataset:   dataset,
		SubjectID: subjectID,
		Action:    bus.ActionUpserted,
		Timestamp: fi.now().Unix(),
	})
	if err != nil {
		fi.opts.Logger.Printf("publish update for %s failed: %v", dataset, err)
	}
}

func (fi *FolderIngestor) countError() {
	fi.mu.Lock()
	fi.errors++
	fi.mu.Unlock()
}

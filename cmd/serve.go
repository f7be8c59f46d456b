package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Devcode940/kenyawatch/internal/bus"
	"github.com/Devcode940/kenyawatch/internal/fixtures"
	"github.com/Devcode940/kenyawatch/internal/flows"
	"github.com/Devcode940/kenyawatch/internal/ingest"
	"github.com/Devcode940/kenyawatch/internal/llm"
	"github.com/Devcode940/kenyawatch/internal/logging"
	"github.com/Devcode940/kenyawatch/internal/store"
	"github.com/Devcode940/kenyawatch/internal/ui"
)

// Consumer group shared by every process that executes queued jobs.
const jobsGroup = "kenyawatch-jobs"

var (
	noTUI       bool
	forceTUI    bool
	seedIfEmpty bool
	noWatch     bool

	// HTTP ingestion flags
	httpIngestEnable bool
	httpIngestBind   string
	httpIngestToken  string
	httpIngestRPS    int
	httpIngestBurst  int
	httpIngestDir    string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the TUI and background services",
	Long: `Start KenyaWatch, which includes:

1. Terminal User Interface (TUI) with the dataset tables
2. Job processor for queued fact-checks, summaries and highlights
3. Update listener that reloads tables when records change
4. Folder watcher ingesting records dropped into the ingest directory
5. Optional HTTP ingestion endpoint

The serve command runs until interrupted (Ctrl+C) or q is pressed in the TUI.

Examples:
  # Start with TUI (default)
  kenyawatch serve

  # Start without TUI (headless mode)
  kenyawatch serve --no-tui

  # Accept records over HTTP
  kenyawatch serve --http-ingest-enable --http-ingest-token secret`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&noTUI, "no-tui", false, "Run in headless mode without TUI")
	serveCmd.Flags().BoolVar(&forceTUI, "force-tui", false, "Force TUI mode even in unsupported terminals")
	serveCmd.Flags().BoolVar(&seedIfEmpty, "seed-if-empty", true, "Load the bundled sample records when the database is empty")
	serveCmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not watch the ingest directory")

	serveCmd.Flags().BoolVar(&httpIngestEnable, "http-ingest-enable", false, "Enable HTTP ingestion server")
	serveCmd.Flags().StringVar(&httpIngestBind, "http-ingest-bind", "127.0.0.1:8081", "Bind address for HTTP ingestion")
	serveCmd.Flags().StringVar(&httpIngestToken, "http-ingest-token", "", "Bearer token required for HTTP ingestion (optional)")
	serveCmd.Flags().IntVar(&httpIngestRPS, "http-ingest-rps", 10, "Max HTTP ingestion requests per second")
	serveCmd.Flags().IntVar(&httpIngestBurst, "http-ingest-burst", 20, "Burst size for HTTP ingestion rate limiter")
	serveCmd.Flags().StringVar(&httpIngestDir, "http-ingest-dir", "", "Directory to write ingested payloads (default: ingest.dir)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := GetConfig()

	useTUI := !noTUI
	if useTUI && !forceTUI && !canInitializeTUI() {
		if needsPseudoTTY() {
			return runWithPseudoTTY(cmd, args)
		}
		fmt.Fprintln(os.Stderr, "TUI cannot be initialized in this terminal, switching to headless mode.")
		fmt.Fprintln(os.Stderr, "Use `kenyawatch list <dataset>` for one-off queries.")
		useTUI = false
	}

	// In TUI mode logs go to files so they do not corrupt the screen.
	var outputs, uiOutputs []string
	if useTUI {
		logDir := filepath.Join(getWorkingDir(), "logs")
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return fmt.Errorf("create logs directory: %w", err)
		}
		outputs = []string{filepath.Join(logDir, "kenyawatch-serve.log")}
		uiOutputs = []string{filepath.Join(logDir, "kenyawatch-ui.log")}
	}
	logger, err := newLogger(cfg, outputs...)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("starting KenyaWatch", zap.Bool("tui", useTUI), zap.String("terminal", getTerminalInfo()))

	cfg.Database.Path = resolvePathRelativeToBase(getWorkingDir(), cfg.Database.Path)
	logger.Info("using database", zap.String("path", cfg.Database.Path))

	st, err := store.NewStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	if seedIfEmpty {
		if err := seedWhenEmpty(ctx, st, logger); err != nil {
			return err
		}
	}

	eventBus := bus.NewBus(cfg.Redis.URL, logging.Std(logger, "bus"))
	defer eventBus.Close()

	// Without Redis nothing carries updates back, so in-process publishes
	// reload the tables directly.
	reload := &reloader{}
	serviceBus := eventBus
	if bus.IsNull(eventBus) {
		serviceBus = localUpdates{Bus: eventBus, reload: reload}
	}

	model := buildModel(ctx, cfg, logger)
	svc, err := flows.New(flows.Deps{
		Store:  st,
		Bus:    serviceBus,
		Model:  model,
		Logger: logger.Named("flows"),
		Actor:  cfg.User.Name,
	})
	if err != nil {
		return err
	}

	coordinator := &ServiceCoordinator{
		store:    st,
		bus:      eventBus,
		runner:   flows.NewRunner(svc, eventBus, logger.Named("jobs")),
		model:    model,
		reload:   reload,
		logger:   logger,
		consumer: consumerName(),
	}

	if !noWatch {
		dir := cfg.Ingest.Dir
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create ingest directory %s: %w", dir, err)
		}
		coordinator.folder = ingest.NewFolderIngestor(ingest.NewParser(), st, serviceBus, ingest.FolderOptions{
			Dir:    dir,
			Watch:  true,
			Logger: logging.Std(logger, "folder-ingest"),
			// Existing JSONL lines were ingested by earlier runs.
			TailFromEnd: true,
		})
	}

	if httpIngestEnable {
		dir := httpIngestDir
		if dir == "" {
			dir = cfg.Ingest.Dir
		}
		coordinator.http, err = ingest.NewHTTPIngestServer(ingest.HTTPIngestOptions{
			Bind:   httpIngestBind,
			Token:  httpIngestToken,
			Dir:    dir,
			RPS:    httpIngestRPS,
			Burst:  httpIngestBurst,
			Logger: logging.Std(logger, "http-ingest"),
		})
		if err != nil {
			return fmt.Errorf("HTTP ingest init: %w", err)
		}
	}

	svcCtx, svcCancel := context.WithCancel(ctx)
	defer svcCancel()

	if !useTUI {
		logger.Info("running in headless mode")
		reload.Set(func(dataset string) {
			logger.Info("dataset updated", zap.String("dataset", dataset))
		})
		err := coordinator.Run(svcCtx)
		logger.Info("KenyaWatch stopped")
		return err
	}

	uiLogger, err := newLogger(cfg, uiOutputs...)
	if err != nil {
		return err
	}
	defer uiLogger.Sync()

	var tui *ui.UI
	tui, err = ui.NewUI(svcCtx, ui.Deps{
		Store:  st,
		Flows:  svc,
		Logger: uiLogger,
		Theme:  cfg.UI.Theme,
		User:   cfg.User.Name,
		Ready:  func() { reload.Set(tui.Reload) },
	})
	if err != nil {
		return fmt.Errorf("failed to build TUI: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- coordinator.Run(svcCtx) }()

	uiErr := tui.Start(svcCtx)

	logger.Info("TUI exited, stopping background services")
	svcCancel()
	svcErr := <-done
	logger.Info("KenyaWatch stopped")

	if uiErr != nil {
		return fmt.Errorf("TUI error: %w", uiErr)
	}
	return svcErr
}

// seedWhenEmpty loads the bundled fixtures into an empty database.
func seedWhenEmpty(ctx context.Context, st *store.Store, logger *zap.Logger) error {
	empty, err := st.IsEmpty(ctx)
	if err != nil {
		return err
	}
	if !empty {
		return nil
	}
	set, err := fixtures.Default()
	if err != nil {
		return err
	}
	if err := st.Seed(ctx, set); err != nil {
		return err
	}
	logger.Info("seeded empty database", zap.Int("records", set.Len()))
	return nil
}

// reloader forwards dataset changes to whoever displays them. Changes
// arriving before a target is set are dropped.
type reloader struct {
	mu sync.RWMutex
	fn func(dataset string)
}

func (r *reloader) Set(fn func(dataset string)) {
	r.mu.Lock()
	r.fn = fn
	r.mu.Unlock()
}

func (r *reloader) Reload(dataset string) {
	r.mu.RLock()
	fn := r.fn
	r.mu.RUnlock()
	if fn != nil {
		fn(dataset)
	}
}

// localUpdates is a bus that also reloads tables on every published update.
type localUpdates struct {
	bus.Bus
	reload *reloader
}

func (l localUpdates) PublishUpdate(ctx context.Context, msg bus.UpdateMessage) error {
	err := l.Bus.PublishUpdate(ctx, msg)
	l.reload.Reload(msg.Dataset)
	return err
}

// ServiceCoordinator manages background services
type ServiceCoordinator struct {
	store    *store.Store
	bus      bus.Bus
	runner   *flows.Runner
	model    llm.Provider
	folder   *ingest.FolderIngestor
	http     *ingest.HTTPIngestServer
	reload   *reloader
	logger   *zap.Logger
	consumer string
}

// Run starts every background service and blocks until ctx is cancelled
// or one of them fails.
func (sc *ServiceCoordinator) Run(ctx context.Context) error {
	if sc.http != nil {
		if err := sc.http.Start(ctx); err != nil {
			return fmt.Errorf("HTTP ingest start: %w", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sc.runJobProcessor(ctx) })
	g.Go(func() error { return sc.runUpdateListener(ctx) })
	g.Go(func() error { return sc.runHealthMonitor(ctx) })
	g.Go(func() error { return sc.runStatsCollector(ctx) })
	if sc.folder != nil {
		g.Go(func() error {
			if err := sc.folder.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("folder ingest: %w", err)
			}
			return nil
		})
	}

	sc.logger.Info("background services started", zap.String("consumer", sc.consumer))
	err := g.Wait()
	sc.logger.Info("background services stopped")
	return err
}

// runJobProcessor executes queued jobs, reconnecting after stream errors.
func (sc *ServiceCoordinator) runJobProcessor(ctx context.Context) error {
	return sc.retry(ctx, "jobs", func() error {
		return sc.runner.Run(ctx, jobsGroup, sc.consumer)
	})
}

// runUpdateListener reloads tables for updates published by any process.
// Each process uses its own group so every one of them sees every update.
func (sc *ServiceCoordinator) runUpdateListener(ctx context.Context) error {
	group := "kenyawatch-updates-" + sc.consumer
	return sc.retry(ctx, "updates", func() error {
		return sc.bus.ReadUpdatesStream(ctx, group, sc.consumer, func(_ context.Context, msg bus.UpdateMessage) error {
			sc.logger.Debug("update received",
				zap.String("dataset", msg.Dataset),
				zap.String("subject", msg.SubjectID),
				zap.String("action", msg.Action))
			sc.reload.Reload(msg.Dataset)
			return nil
		})
	})
}

func (sc *ServiceCoordinator) retry(ctx context.Context, stream string, read func() error) error {
	for {
		err := read()
		if ctx.Err() != nil {
			return nil
		}
		sc.logger.Warn("stream read failed, retrying", zap.String("stream", stream), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(5 * time.Second):
		}
	}
}

// runHealthMonitor checks the bus, the store and the model provider
func (sc *ServiceCoordinator) runHealthMonitor(ctx context.Context) error {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			sc.performHealthChecks(ctx)
		}
	}
}

func (sc *ServiceCoordinator) performHealthChecks(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := sc.bus.HealthCheck(ctx); err != nil {
		sc.logger.Warn("bus health check failed", zap.Error(err))
	}
	if err := sc.store.Ping(ctx); err != nil {
		sc.logger.Error("database health check failed", zap.Error(err))
	}
	if err := llm.TryHealthCheck(ctx, sc.model); err != nil {
		sc.logger.Warn("LLM provider health check failed", zap.String("provider", sc.model.Name()), zap.Error(err))
	}
}

// runStatsCollector logs row counts and bus statistics
func (sc *ServiceCoordinator) runStatsCollector(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			sc.collectStats(ctx)
		}
	}
}

func (sc *ServiceCoordinator) collectStats(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if stats, err := sc.bus.GetStats(ctx); err != nil {
		sc.logger.Warn("failed to get bus stats", zap.Error(err))
	} else {
		sc.logger.Info("bus stats", zap.Any("stats", stats))
	}

	counts, err := sc.store.Counts(ctx)
	if err != nil {
		sc.logger.Warn("failed to count records", zap.Error(err))
	} else {
		sc.logger.Info("database stats", zap.Any("counts", counts))
	}

	if sc.folder != nil {
		s := sc.folder.Stats()
		sc.logger.Info("ingest stats", zap.Int("ingested", s.Ingested), zap.Int("errors", s.Errors))
	}
}

// consumerName identifies this process within the consumer groups.
func consumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "kenyawatch"
	}
	return fmt.Sprintf("%s-%d-%s", host, os.Getpid(), uuid.NewString()[:8])
}

// canInitializeTUI tests if tcell can actually be initialized
func canInitializeTUI() bool {
	screen, err := tcell.NewScreen()
	if err != nil {
		return false
	}
	if err := screen.Init(); err != nil {
		return false
	}
	screen.Fini()
	return true
}

// getTerminalInfo returns detailed terminal information
func getTerminalInfo() string {
	var info []string

	if term := os.Getenv("TERM"); term == "" {
		info = append(info, "TERM=<not set>")
	} else {
		info = append(info, fmt.Sprintf("TERM=%s", term))
	}
	if termProgram := os.Getenv("TERM_PROGRAM"); termProgram != "" {
		info = append(info, fmt.Sprintf("TERM_PROGRAM=%s", termProgram))
	}
	if isTerminal() {
		info = append(info, "TTY=yes")
	} else {
		info = append(info, "TTY=no")
	}
	if supportsColors() {
		info = append(info, "Colors=yes")
	} else {
		info = append(info, "Colors=no")
	}
	return strings.Join(info, ", ")
}

// getExecutableDir returns the directory of the running executable.
// Falls back to current directory on error.
func getExecutableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// getWorkingDir returns the current working directory.
// Falls back to executable directory if os.Getwd fails.
func getWorkingDir() string {
	if wd, err := os.Getwd(); err == nil && wd != "" {
		return wd
	}
	return getExecutableDir()
}

// resolvePathRelativeToBase resolves a possibly relative path against a base directory.
// Absolute paths and ":memory:" are returned unchanged.
func resolvePathRelativeToBase(base, p string) string {
	if filepath.IsAbs(p) || p == ":memory:" {
		return p
	}
	p = strings.TrimPrefix(p, "./")
	return filepath.Join(base, p)
}

// isTerminal checks if stdout is a terminal
func isTerminal() bool {
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		return (fileInfo.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

// supportsColors checks if terminal supports colors
func supportsColors() bool {
	term := strings.ToLower(os.Getenv("TERM"))
	for _, colorTerm := range []string{"color", "256", "truecolor", "24bit"} {
		if strings.Contains(term, colorTerm) {
			return true
		}
	}
	if os.Getenv("COLORTERM") != "" {
		return true
	}
	for _, supported := range []string{"xterm", "screen", "tmux", "linux", "ansi"} {
		if strings.Contains(term, supported) {
			return true
		}
	}
	return false
}

// needsPseudoTTY checks if we need to use script command for pseudo-TTY
func needsPseudoTTY() bool {
	if file, err := os.OpenFile("/dev/tty", os.O_RDWR, 0); err == nil {
		file.Close()
		return false
	}
	return true
}

// runWithPseudoTTY re-executes serve under script(1) so tcell gets a TTY.
func runWithPseudoTTY(cmd *cobra.Command, args []string) error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	cmdArgs := append([]string{"serve"}, args...)
	cmdArgs = append(cmdArgs, "--force-tui")
	// Keep the flags of this invocation.
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if f.Name != "force-tui" {
			cmdArgs = append(cmdArgs, "--"+f.Name+"="+f.Value.String())
		}
	})

	quoted := make([]string, len(cmdArgs))
	for i, arg := range cmdArgs {
		quoted[i] = fmt.Sprintf("%q", arg)
	}
	fullCmd := fmt.Sprintf("TERM=%s %q %s", os.Getenv("TERM"), executable, strings.Join(quoted, " "))

	scriptCmd := exec.Command("script", "-qec", fullCmd, "/dev/null")
	scriptCmd.Stdin = os.Stdin
	scriptCmd.Stdout = os.Stdout
	scriptCmd.Stderr = os.Stderr
	scriptCmd.Env = os.Environ()
	return scriptCmd.Run()
}

package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// HTTPIngestOptions controls the HTTP ingestion server behavior.
type HTTPIngestOptions struct {
	// Bind address, e.g. "127.0.0.1:8081"
	Bind string
	// Token for Authorization: Bearer <token> header. Empty disables auth.
	Token string
	// Dir to write accepted payload files into (watched by the folder ingestor)
	Dir string
	// RPS is max requests per second. 0 disables rate limiting.
	RPS int
	// Burst is the token bucket size. If 0 and RPS>0, defaults to RPS.
	Burst int
	Logger *log.Logger
	// MaxBodyBytes caps request body size; defaults to 10 MiB.
	MaxBodyBytes int64
}

// Ack is the response body of an accepted upload.
type Ack struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// HTTPIngestServer provides POST /ingest. Accepted payloads are validated
// and written atomically to Dir for the folder ingestor to pick up.
type HTTPIngestServer struct {
	srv     *http.Server
	opts    HTTPIngestOptions
	limiter *rate.Limiter
	parser  *Parser
	logger  *log.Logger
	started int32
	now     func() time.Time
}

// NewHTTPIngestServer constructs a new HTTP server for ingestion.
func NewHTTPIngestServer(opts HTTPIngestOptions) (*HTTPIngestServer, error) {
	if opts.Bind == "" {
		opts.Bind = "127.0.0.1:8081"
	}
	if opts.Dir == "" {
		opts.Dir = "data/incoming"
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 10 * 1024 * 1024
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[http-ingest] ", log.LstdFlags)
	}
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create ingest dir: %w", err)
	}
	var lim *rate.Limiter
	if opts.RPS > 0 {
		if opts.Burst <= 0 {
			opts.Burst = opts.RPS
		}
		lim = rate.NewLimiter(rate.Limit(opts.RPS), opts.Burst)
	}
	his := &HTTPIngestServer{
		opts:    opts,
		limiter: lim,
		parser:  NewParser(),
		logger:  logger,
		now:     time.Now,
	}

	his.srv = &http.Server{
		Addr:         opts.Bind,
		Handler:      his.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return his, nil
}

// Handler returns the request router.
func (h *HTTPIngestServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ingest", h.handleIngest)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Start starts the HTTP server concurrently and shuts it down when ctx ends.
func (h *HTTPIngestServer) Start(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&h.started, 0, 1) {
		return errors.New("http ingest server already started")
	}
	// Bind early to surface errors synchronously
	ln, err := net.Listen("tcp", h.opts.Bind)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", h.opts.Bind, err)
	}
	h.logger.Printf("HTTP ingest listening on http://%s, dir=%s rps=%d burst=%d auth=%v",
		h.opts.Bind, h.opts.Dir, h.opts.RPS, h.opts.Burst, h.opts.Token != "")

	go func() {
		if err := h.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Printf("server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.srv.Shutdown(shutdownCtx); err != nil {
			h.logger.Printf("graceful shutdown failed: %v", err)
		}
	}()
	return nil
}

// handleIngest accepts POST /ingest?dataset=<name> with JSON, JSONL or TOML.
func (h *HTTPIngestServer) handleIngest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.opts.Token != "" {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")) != h.opts.Token {
			w.Header().Set("WWW-Authenticate", `Bearer realm="kenyawatch"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}
	if h.limiter != nil && !h.limiter.Allow() {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	dataset := ""
	if q := r.URL.Query().Get("dataset"); q != "" {
		dataset = NormalizeDataset(q)
		if dataset == "" {
			http.Error(w, fmt.Sprintf("unknown dataset %q", q), http.StatusBadRequest)
			return
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes)
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		http.Error(w, "empty body", http.StatusBadRequest)
		return
	}

	ct := strings.ToLower(r.Header.Get("Content-Type"))
	format := detectFormat(ct, body)
	var verr error
	switch format {
	case "jsonl":
		verr = h.validateJSONL(body, dataset)
	case "json":
		verr = h.validateJSON(body, dataset)
	case "toml":
		if dataset != "" {
			verr = errors.New("toml payloads carry their own datasets")
		} else {
			_, verr = h.parser.ParseFixtures(body)
		}
	}
	if verr != nil {
		http.Error(w, fmt.Sprintf("invalid %s: %v", strings.ToUpper(format), verr), http.StatusBadRequest)
		return
	}

	prefix := dataset
	if prefix == "" {
		prefix = "ingest"
	}
	id := uuid.New().String()
	ts := h.now().UTC().Format("20060102T150405Z")
	finalName := fmt.Sprintf("%s-%s-%s.%s", prefix, ts, id, format)
	finalPath := filepath.Join(h.opts.Dir, finalName)
	if err := writeAtomic(h.opts.Dir, finalName, body); err != nil {
		h.logger.Printf("write %s failed: %v", finalName, err)
		http.Error(w, "failed to store payload", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(Ack{ID: id, Path: finalPath})
	h.logger.Printf("accepted id=%s bytes=%d dataset=%q path=%s remote=%s dur=%s",
		id, len(body), dataset, finalName, remoteIP(r.RemoteAddr), time.Since(start).String())
}

func detectFormat(contentType string, body []byte) string {
	switch {
	case strings.Contains(contentType, "toml"):
		return "toml"
	case strings.Contains(contentType, "ndjson"), strings.Contains(contentType, "jsonl"):
		return "jsonl"
	case strings.Contains(contentType, "json"):
		return "json"
	}
	trim := bytes.TrimSpace(body)
	switch {
	case trim[0] == '[':
		// a TOML table header also starts with '['
		if json.Valid(trim) {
			return "json"
		}
		return "toml"
	case trim[0] == '{':
		if json.Valid(trim) {
			return "json"
		}
		return "jsonl"
	}
	return "toml"
}

func (h *HTTPIngestServer) validateJSON(body []byte, dataset string) error {
	trim := bytes.TrimSpace(body)
	if !json.Valid(trim) {
		return errors.New("not valid json")
	}
	var raws []json.RawMessage
	switch trim[0] {
	case '[':
		if err := json.Unmarshal(trim, &raws); err != nil {
			return err
		}
	case '{':
		raws = []json.RawMessage{trim}
	default:
		return errors.New("expected object or array")
	}
	if len(raws) == 0 {
		return errors.New("no records")
	}
	for i, raw := range raws {
		if _, err := h.parser.ParseRecord(raw, dataset); err != nil {
			return fmt.Errorf("record %d: %w", i+1, err)
		}
	}
	return nil
}

func (h *HTTPIngestServer) validateJSONL(body []byte, dataset string) error {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024)
	lineNum := 0
	nonEmpty := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		nonEmpty++
		if _, err := h.parser.ParseRecord([]byte(line), dataset); err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if nonEmpty == 0 {
		return errors.New("no non-empty lines")
	}
	return nil
}

// writeAtomic writes data to a temp file in dir and renames it into place
// so the folder watcher never sees a partial file.
func writeAtomic(dir, name string, data []byte) error {
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, filepath.Join(dir, name)); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// remoteIP extracts ip from host:port
func remoteIP(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

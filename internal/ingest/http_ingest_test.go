package ingest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts HTTPIngestOptions) (*HTTPIngestServer, string) {
	t.Helper()
	if opts.Dir == "" {
		opts.Dir = t.TempDir()
	}
	opts.Logger = quietLogger()
	h, err := NewHTTPIngestServer(opts)
	require.NoError(t, err)
	h.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return h, opts.Dir
}

func post(h *HTTPIngestServer, target, contentType, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHTTPIngestAcceptsDatasetPayload(t *testing.T) {
	h, dir := newTestServer(t, HTTPIngestOptions{})

	rec := post(h, "/ingest?dataset=county_gdp", "application/json",
		`[{"county":"Nairobi","year":2023,"gdpMillionsKsh":1}]`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var ack Ack
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.NotEmpty(t, ack.ID)
	assert.Equal(t, dir, filepath.Dir(ack.Path))

	name := filepath.Base(ack.Path)
	assert.True(t, strings.HasPrefix(name, "gdp-20240301T120000Z-"+ack.ID), name)
	assert.Equal(t, ".json", filepath.Ext(name))
	data, err := os.ReadFile(ack.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Nairobi")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestHTTPIngestFormats(t *testing.T) {
	h, _ := newTestServer(t, HTTPIngestOptions{})

	rec := post(h, "/ingest", "application/x-ndjson",
		`{"dataset":"census","county":"Kisumu","year":2019}`+"\n"+`{"dataset":"gdp","county":"Kisumu","year":2019}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var ack Ack
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.True(t, strings.HasPrefix(filepath.Base(ack.Path), "ingest-"))
	assert.Equal(t, ".jsonl", filepath.Ext(ack.Path))

	rec = post(h, "/ingest", "", "[[gdp]]\ncounty = \"Kisumu\"\nyear = 2022\ngdpMillionsKsh = 1.0\n")
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.Equal(t, ".toml", filepath.Ext(ack.Path))
}

func TestHTTPIngestRejects(t *testing.T) {
	h, dir := newTestServer(t, HTTPIngestOptions{Token: "s3cret", MaxBodyBytes: 256})
	auth := []string{"Authorization", "Bearer s3cret"}

	tests := []struct {
		name   string
		method string
		target string
		body   string
		header []string
		code   int
	}{
		{"no token", http.MethodPost, "/ingest?dataset=gdp", `{"county":"A","year":1}`, nil, http.StatusUnauthorized},
		{"wrong token", http.MethodPost, "/ingest?dataset=gdp", `{"county":"A","year":1}`, []string{"Authorization", "Bearer nope"}, http.StatusUnauthorized},
		{"method", http.MethodGet, "/ingest", "", auth, http.StatusMethodNotAllowed},
		{"unknown dataset", http.MethodPost, "/ingest?dataset=weather", `{"county":"A","year":1}`, auth, http.StatusBadRequest},
		{"empty", http.MethodPost, "/ingest?dataset=gdp", "  ", auth, http.StatusBadRequest},
		{"invalid record", http.MethodPost, "/ingest?dataset=gdp", `{"year":2023}`, auth, http.StatusBadRequest},
		{"no dataset", http.MethodPost, "/ingest", `{"county":"A","year":1}`, auth, http.StatusBadRequest},
		{"too large", http.MethodPost, "/ingest?dataset=gdp", `{"county":"` + strings.Repeat("x", 300) + `","year":1}`, auth, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			for i := 0; i+1 < len(tt.header); i += 2 {
				req.Header.Set(tt.header[i], tt.header[i+1])
			}
			rec := httptest.NewRecorder()
			h.Handler().ServeHTTP(rec, req)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHTTPIngestRateLimit(t *testing.T) {
	h, _ := newTestServer(t, HTTPIngestOptions{RPS: 1, Burst: 1})
	body := `{"county":"A","year":1}`

	assert.Equal(t, http.StatusAccepted, post(h, "/ingest?dataset=gdp", "application/json", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, post(h, "/ingest?dataset=gdp", "application/json", body).Code)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, "json", detectFormat("", []byte(`[{"a":1}]`)))
	assert.Equal(t, "json", detectFormat("", []byte(`{"a":1}`)))
	assert.Equal(t, "jsonl", detectFormat("", []byte("{\"a\":1}\n{\"a\":2}")))
	assert.Equal(t, "toml", detectFormat("", []byte("[[gdp]]\nyear = 1")))
	assert.Equal(t, "toml", detectFormat("application/toml", []byte(`{}`)))
	assert.Equal(t, "jsonl", detectFormat("application/jsonl", []byte(`{}`)))
}

package store

import (
	"context"
	"path/filepath"
	"testing"
)

func TestAuditEntriesFlow(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	s, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	defer func() { _ = s.Close() }()

	ctx := context.Background()

	if err := s.LogAction(ctx, "rep_1", "review_added", "tester", map[string]interface{}{"rating": 4}); err != nil {
		t.Fatalf("LogAction error: %v", err)
	}

	// Log a model query
	if err := s.LogModelQuery(ctx, "rep_1", "tester", "fact_check", "local_stub", 123, 0.246); err != nil {
		t.Fatalf("LogModelQuery error: %v", err)
	}

	if err := s.LogAction(ctx, "census", "ingest", "system", nil); err != nil {
		t.Fatalf("LogAction error: %v", err)
	}

	entries, err := s.GetAuditEntries(ctx, "rep_1", 10)
	if err != nil {
		t.Fatalf("GetAuditEntries error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(entries))
	}

	var found bool
	for _, e := range entries {
		if e.Action == "model_query" {
			found = true
			if e.Metadata["tokens"] != "123" {
				t.Fatalf("unexpected tokens metadata: %+v", e.Metadata)
			}
			if e.Metadata["cost"] != "0.2460" {
				t.Fatalf("unexpected cost metadata: %+v", e.Metadata)
			}
			if e.Details["task"] != "fact_check" {
				t.Fatalf("unexpected details: %+v", e.Details)
			}
		}
	}
	if !found {
		t.Fatalf("expected model_query audit entry")
	}

	all, err := s.GetAuditEntries(ctx, "", 0)
	if err != nil {
		t.Fatalf("GetAuditEntries error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 audit entries overall, got %d", len(all))
	}
	if all[0].Action != "ingest" {
		t.Fatalf("expected newest entry first, got %s", all[0].Action)
	}
}

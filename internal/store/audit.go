package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditEntry represents an audit log entry
type AuditEntry struct {
	ID        string                 `json:"id"`
	SubjectID string                 `json:"subject_id"` // representative ID or dataset name
	Action    string                 `json:"action"`     // "fact_check", "review_added", "economic_refresh", etc.
	Actor     string                 `json:"actor"`      // user or system identifier
	Details   map[string]interface{} `json:"details"`    // action-specific data
	Metadata  map[string]string      `json:"metadata"`   // tokens, cost, etc.
	Timestamp time.Time              `json:"timestamp"`
	CreatedAt time.Time              `json:"created_at"`
}

// AddAuditEntry adds an audit entry to the database
func (s *Store) AddAuditEntry(ctx context.Context, entry AuditEntry) error {
	if entry.ID == "" {
		entry.ID = "audit_" + uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	entry.CreatedAt = time.Now()
	if entry.Details == nil {
		entry.Details = map[string]interface{}{}
	}

	// Serialize details and metadata
	detailsJSON, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal audit details: %w", err)
	}

	var metadataJSON []byte
	if entry.Metadata != nil {
		metadataJSON, err = json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal audit metadata: %w", err)
		}
	}

	query := `INSERT INTO audit_entries (
		id, subject_id, action, actor, details, metadata, timestamp, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		entry.ID, entry.SubjectID, entry.Action, entry.Actor,
		string(detailsJSON), nullString(string(metadataJSON)), entry.Timestamp.Unix(), entry.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}

	return nil
}

// GetAuditEntries retrieves audit entries for a subject, newest first. An
// empty subjectID returns entries for every subject.
func (s *Store) GetAuditEntries(ctx context.Context, subjectID string, limit int) ([]AuditEntry, error) {
	query := `SELECT id, subject_id, action, actor, details, metadata, timestamp, created_at
		FROM audit_entries`
	args := []interface{}{}
	if subjectID != "" {
		query += ` WHERE subject_id = ?`
		args = append(args, subjectID)
	}
	query += ` ORDER BY timestamp DESC, rowid DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var entry AuditEntry
		var metadataJSON *string
		var detailsJSON string
		var timestamp, createdAt int64

		err := rows.Scan(&entry.ID, &entry.SubjectID, &entry.Action,
			&entry.Actor, &detailsJSON, &metadataJSON, &timestamp, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}

		entry.Timestamp = time.Unix(timestamp, 0)
		entry.CreatedAt = time.Unix(createdAt, 0)

		// Unmarshal details
		if err := json.Unmarshal([]byte(detailsJSON), &entry.Details); err != nil {
			// If unmarshaling fails, store as string
			entry.Details = map[string]interface{}{"raw": detailsJSON}
		}

		if metadataJSON != nil {
			if err := json.Unmarshal([]byte(*metadataJSON), &entry.Metadata); err != nil {
				entry.Metadata = map[string]string{"raw": *metadataJSON}
			}
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// LogAction records an action against a subject.
func (s *Store) LogAction(ctx context.Context, subjectID, action, actor string, details map[string]interface{}) error {
	return s.AddAuditEntry(ctx, AuditEntry{
		SubjectID: subjectID,
		Action:    action,
		Actor:     actor,
		Details:   details,
	})
}

// LogModelQuery records a generative model call with token and cost
// information.
func (s *Store) LogModelQuery(ctx context.Context, subjectID, actor, task, provider string, tokens int, cost float64) error {
	return s.AddAuditEntry(ctx, AuditEntry{
		SubjectID: subjectID,
		Action:    "model_query",
		Actor:     actor,
		Details: map[string]interface{}{
			"task":     task,
			"provider": provider,
		},
		Metadata: map[string]string{
			"tokens": fmt.Sprintf("%d", tokens),
			"cost":   fmt.Sprintf("%.4f", cost),
		},
	})
}

package bus

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Update actions
const (
	ActionUpserted = "upserted"
	ActionAdded    = "added"
	ActionReport   = "report"
)

// UpdateMessage announces that records of a dataset changed
type UpdateMessage struct {
	Dataset   string `json:"dataset"`
	SubjectID string `json:"subject_id,omitempty"`
	Action    string `json:"action"`
	Timestamp int64  `json:"timestamp"`
}

// JobKind names a background job.
type JobKind string

const (
	JobFactCheck        JobKind = "fact_check"
	JobIntegritySummary JobKind = "integrity_summary"
	JobSocialHighlights JobKind = "social_highlights"
	JobRefreshEconomic  JobKind = "refresh_economic_data"
)

// JobMessage is a unit of queued work
type JobMessage struct {
	JobID            string            `json:"job_id"`
	Kind             JobKind           `json:"kind"`
	RepresentativeID string            `json:"representative_id,omitempty"`
	Payload          map[string]string `json:"payload,omitempty"`
	Timestamp        int64             `json:"timestamp"`
}

func updateFields(msg UpdateMessage) map[string]interface{} {
	return map[string]interface{}{
		"dataset":    msg.Dataset,
		"subject_id": msg.SubjectID,
		"action":     msg.Action,
		"timestamp":  msg.Timestamp,
	}
}

func decodeUpdate(fields map[string]string) UpdateMessage {
	msg := UpdateMessage{
		Dataset:   fields["dataset"],
		SubjectID: fields["subject_id"],
		Action:    fields["action"],
	}
	if ts, err := parseTimestamp(fields["timestamp"]); err == nil {
		msg.Timestamp = ts
	}
	return msg
}

func jobFields(job JobMessage) (map[string]interface{}, error) {
	payload, err := json.Marshal(job.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job payload: %w", err)
	}
	return map[string]interface{}{
		"job_id":            job.JobID,
		"kind":              string(job.Kind),
		"representative_id": job.RepresentativeID,
		"payload":           string(payload),
		"timestamp":         job.Timestamp,
	}, nil
}

func decodeJob(fields map[string]string) JobMessage {
	job := JobMessage{
		JobID:            fields["job_id"],
		Kind:             JobKind(fields["kind"]),
		RepresentativeID: fields["representative_id"],
	}
	if payload := fields["payload"]; payload != "" && payload != "null" {
		var data map[string]string
		if err := json.Unmarshal([]byte(payload), &data); err == nil {
			job.Payload = data
		}
	}
	if ts, err := parseTimestamp(fields["timestamp"]); err == nil {
		job.Timestamp = ts
	}
	return job
}

// parseTimestamp parses a timestamp string to int64
func parseTimestamp(timestamp string) (int64, error) {
	if timestamp == "" {
		return time.Now().Unix(), nil
	}

	// Try numeric epoch (seconds or milliseconds)
	if n, err := strconv.ParseInt(timestamp, 10, 64); err == nil {
		// 13+ digits are milliseconds
		if n > 1_000_000_000_000 {
			return n / 1000, nil
		}
		return n, nil
	}

	if ts, err := time.Parse(time.RFC3339Nano, timestamp); err == nil {
		return ts.Unix(), nil
	}

	// Default to current time on failure
	return time.Now().Unix(), fmt.Errorf("unable to parse timestamp: %s", timestamp)
}

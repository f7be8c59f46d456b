package bus

import (
	"bytes"
	"context"
	"log"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringify(fields map[string]interface{}) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		switch x := v.(type) {
		case string:
			out[k] = x
		case int64:
			out[k] = strconv.FormatInt(x, 10)
		}
	}
	return out
}

func TestJobFieldsRoundTrip(t *testing.T) {
	job := JobMessage{
		JobID:            "job-1",
		Kind:             JobIntegritySummary,
		RepresentativeID: "3",
		Payload:          map[string]string{"news_summary": "Recent coverage of the MP."},
		Timestamp:        1700000000,
	}
	fields, err := jobFields(job)
	require.NoError(t, err)
	assert.Equal(t, job, decodeJob(stringify(fields)))
}

func TestDecodeJobWithoutPayload(t *testing.T) {
	fields, err := jobFields(JobMessage{JobID: "j", Kind: JobRefreshEconomic, Timestamp: 1})
	require.NoError(t, err)
	job := decodeJob(stringify(fields))
	assert.Nil(t, job.Payload)
	assert.Equal(t, JobRefreshEconomic, job.Kind)
}

func TestUpdateFieldsRoundTrip(t *testing.T) {
	msg := UpdateMessage{Dataset: "census", Action: ActionUpserted, Timestamp: 1700000000}
	assert.Equal(t, msg, decodeUpdate(stringify(updateFields(msg))))
}

func TestParseTimestamp(t *testing.T) {
	ts, err := parseTimestamp("1700000000123")
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), ts)

	ts, err = parseTimestamp("2023-11-14T22:13:20Z")
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), ts)

	_, err = parseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestNewBusWithoutURLIsNull(t *testing.T) {
	b := NewBus("", nil)
	assert.True(t, IsNull(b))
	require.NoError(t, b.HealthCheck(context.Background()))

	stats, err := b.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "null", stats["type"])
}

func TestNullBusLogsAndBlocks(t *testing.T) {
	var buf bytes.Buffer
	nb := NewNullBus(log.New(&buf, "", 0))
	ctx := context.Background()

	require.NoError(t, nb.PublishUpdate(ctx, UpdateMessage{Dataset: "gdp", Action: ActionUpserted}))
	require.NoError(t, nb.PublishJob(ctx, JobMessage{JobID: "j1", Kind: JobFactCheck}))
	assert.Contains(t, buf.String(), "Would publish upserted update for gdp")
	assert.Contains(t, buf.String(), "Would queue fact_check job j1")

	cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	err := nb.ReadJobsStream(cctx, "g", "c", func(context.Context, JobMessage) error {
		t.Fatal("handler must not be called")
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.NoError(t, nb.Close())
}

func TestNewRedisBusRejectsBadURL(t *testing.T) {
	_, err := NewRedisBus("not-a-url://", nil)
	assert.Error(t, err)
}

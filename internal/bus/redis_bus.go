package bus

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// Streams are capped at roughly this many entries on publish.
const maxStreamLen = 10000

// RedisBus provides Redis Streams-based messaging for background jobs and
// dataset updates
type RedisBus struct {
	client *redis.Client
	logger *log.Logger
}

// StreamMessage represents a message in a Redis Stream
type StreamMessage struct {
	ID     string            `json:"id"`
	Fields map[string]string `json:"fields"`
}

// StreamHandler is a function that processes stream messages
type StreamHandler func(ctx context.Context, message StreamMessage) error

// NewRedisBus creates a new Redis bus instance
func NewRedisBus(redisURL string, logger *log.Logger) (*RedisBus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if logger == nil {
		logger = log.New(log.Writer(), "[RedisBus] ", log.LstdFlags)
	}

	return &RedisBus{
		client: client,
		logger: logger,
	}, nil
}

// Close closes the Redis connection
func (rb *RedisBus) Close() error {
	return rb.client.Close()
}

func (rb *RedisBus) publish(ctx context.Context, stream string, fields map[string]interface{}) error {
	result := rb.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: fields,
	})
	return result.Err()
}

// PublishUpdate publishes a dataset update to the updates stream
func (rb *RedisBus) PublishUpdate(ctx context.Context, msg UpdateMessage) error {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().Unix()
	}
	if err := rb.publish(ctx, UpdatesStream, updateFields(msg)); err != nil {
		return fmt.Errorf("failed to publish update: %w", err)
	}

	rb.logger.Printf("Published %s update for %s", msg.Action, msg.Dataset)
	return nil
}

// PublishJob queues a job on the jobs stream
func (rb *RedisBus) PublishJob(ctx context.Context, job JobMessage) error {
	if job.Timestamp == 0 {
		job.Timestamp = time.Now().Unix()
	}
	fields, err := jobFields(job)
	if err != nil {
		return err
	}
	if err := rb.publish(ctx, JobsStream, fields); err != nil {
		return fmt.Errorf("failed to publish job: %w", err)
	}

	rb.logger.Printf("Queued %s job %s", job.Kind, job.JobID)
	return nil
}

// CreateConsumerGroup creates a consumer group for a stream if it doesn't exist
func (rb *RedisBus) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	// Try to create the consumer group, ignore error if it already exists
	result := rb.client.XGroupCreateMkStream(ctx, stream, group, "0")
	if err := result.Err(); err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group %s for stream %s: %w", group, stream, err)
	}

	rb.logger.Printf("Consumer group %s ready for stream %s", group, stream)
	return nil
}

// ReadStream reads messages from a stream using consumer groups
func (rb *RedisBus) ReadStream(ctx context.Context, stream, group, consumer string, handler StreamHandler) error {
	// Ensure consumer group exists
	if err := rb.CreateConsumerGroup(ctx, stream, group); err != nil {
		return err
	}

	rb.logger.Printf("Starting stream reader for %s (group: %s, consumer: %s)", stream, group, consumer)

	for {
		select {
		case <-ctx.Done():
			rb.logger.Printf("Stream reader for %s stopping due to context cancellation", stream)
			return ctx.Err()
		default:
		}

		result := rb.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: consumer,
			Streams:  []string{stream, ">"},
			Count:    10,
			Block:    1 * time.Second,
		})

		if err := result.Err(); err != nil {
			if errors.Is(err, redis.Nil) {
				// No messages available, continue
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			rb.logger.Printf("Error reading from stream %s: %v", stream, err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, xs := range result.Val() {
			for _, message := range xs.Messages {
				streamMsg := StreamMessage{
					ID:     message.ID,
					Fields: make(map[string]string),
				}

				// Convert fields to string map
				for key, value := range message.Values {
					if strValue, ok := value.(string); ok {
						streamMsg.Fields[key] = strValue
					}
				}

				// Failed messages stay pending for redelivery
				if err := handler(ctx, streamMsg); err != nil {
					rb.logger.Printf("Error processing message %s: %v", message.ID, err)
					continue
				}

				if err := rb.client.XAck(ctx, xs.Stream, group, message.ID).Err(); err != nil {
					rb.logger.Printf("Error acknowledging message %s: %v", message.ID, err)
				}
			}
		}
	}
}

// ReadJobsStream reads from the jobs stream
func (rb *RedisBus) ReadJobsStream(ctx context.Context, group, consumer string, handler func(ctx context.Context, job JobMessage) error) error {
	return rb.ReadStream(ctx, JobsStream, group, consumer, func(ctx context.Context, message StreamMessage) error {
		return handler(ctx, decodeJob(message.Fields))
	})
}

// ReadUpdatesStream reads from the updates stream
func (rb *RedisBus) ReadUpdatesStream(ctx context.Context, group, consumer string, handler func(ctx context.Context, msg UpdateMessage) error) error {
	return rb.ReadStream(ctx, UpdatesStream, group, consumer, func(ctx context.Context, message StreamMessage) error {
		return handler(ctx, decodeUpdate(message.Fields))
	})
}

// GetStreamInfo returns information about a stream
func (rb *RedisBus) GetStreamInfo(ctx context.Context, stream string) (*redis.XInfoStream, error) {
	result := rb.client.XInfoStream(ctx, stream)
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to get stream info for %s: %w", stream, err)
	}
	return result.Val(), nil
}

// GetConsumerGroupInfo returns information about consumer groups for a stream
func (rb *RedisBus) GetConsumerGroupInfo(ctx context.Context, stream string) ([]redis.XInfoGroup, error) {
	result := rb.client.XInfoGroups(ctx, stream)
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to get consumer group info for %s: %w", stream, err)
	}
	return result.Val(), nil
}

// CleanupOldMessages removes old messages from streams to prevent memory issues
func (rb *RedisBus) CleanupOldMessages(ctx context.Context, stream string, maxLen int64) error {
	result := rb.client.XTrimMaxLen(ctx, stream, maxLen)
	if err := result.Err(); err != nil {
		return fmt.Errorf("failed to trim stream %s: %w", stream, err)
	}

	rb.logger.Printf("Trimmed stream %s to max length %d", stream, maxLen)
	return nil
}

// HealthCheck performs a health check on the Redis connection
func (rb *RedisBus) HealthCheck(ctx context.Context) error {
	return rb.client.Ping(ctx).Err()
}

// GetStats returns basic statistics about the Redis streams
func (rb *RedisBus) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := map[string]interface{}{"type": "redis"}

	for _, stream := range []string{UpdatesStream, JobsStream} {
		if info, err := rb.GetStreamInfo(ctx, stream); err == nil {
			stats[stream+"_stream"] = map[string]interface{}{
				"length":         info.Length,
				"first_entry_id": info.FirstEntry.ID,
				"last_entry_id":  info.LastEntry.ID,
			}
		}
		if groups, err := rb.GetConsumerGroupInfo(ctx, stream); err == nil {
			stats[stream+"_consumer_groups"] = len(groups)
		}
	}

	return stats, nil
}

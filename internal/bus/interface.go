package bus

import (
	"context"
	"io"
	"log"
)

// Stream names
const (
	UpdatesStream = "updates"
	JobsStream    = "jobs"
)

// Bus defines the interface for event bus implementations
type Bus interface {
	// PublishUpdate announces a change to a dataset
	PublishUpdate(ctx context.Context, msg UpdateMessage) error

	// PublishJob queues background work
	PublishJob(ctx context.Context, job JobMessage) error

	// ReadJobsStream consumes queued jobs until ctx is cancelled
	ReadJobsStream(ctx context.Context, group, consumer string, handler func(ctx context.Context, job JobMessage) error) error

	// ReadUpdatesStream consumes dataset updates until ctx is cancelled
	ReadUpdatesStream(ctx context.Context, group, consumer string, handler func(ctx context.Context, msg UpdateMessage) error) error

	// GetStats returns basic statistics about the bus
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// HealthCheck performs a health check on the bus connection
	HealthCheck(ctx context.Context) error

	// Close closes the bus connection
	Close() error
}

// NewBus creates a new bus instance based on the Redis URL
// If redisURL is empty or invalid, returns a NullBus
func NewBus(redisURL string, logger *log.Logger) Bus {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	if redisURL == "" {
		return NewNullBus(logger)
	}

	// Try to create Redis bus
	redisBus, err := NewRedisBus(redisURL, logger)
	if err == nil {
		return redisBus
	}

	// Fall back to null bus if Redis fails
	logger.Printf("Redis unavailable (%v), using null bus", err)
	return NewNullBus(logger)
}

// IsNull reports whether b discards messages.
func IsNull(b Bus) bool {
	_, ok := b.(*NullBus)
	return ok
}

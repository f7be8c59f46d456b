package bus

import (
	"context"
	"log"
)

// NullBus is a no-op implementation of the bus interface for when Redis is disabled
type NullBus struct {
	logger *log.Logger
}

// NewNullBus creates a new null bus instance
func NewNullBus(logger *log.Logger) *NullBus {
	if logger == nil {
		logger = log.New(log.Writer(), "[NullBus] ", log.LstdFlags)
	}

	return &NullBus{
		logger: logger,
	}
}

// Close is a no-op for null bus
func (nb *NullBus) Close() error {
	return nil
}

// PublishUpdate logs the update but doesn't actually publish it
func (nb *NullBus) PublishUpdate(ctx context.Context, msg UpdateMessage) error {
	nb.logger.Printf("Would publish %s update for %s (Redis disabled)", msg.Action, msg.Dataset)
	return nil
}

// PublishJob logs the job but doesn't actually queue it
func (nb *NullBus) PublishJob(ctx context.Context, job JobMessage) error {
	nb.logger.Printf("Would queue %s job %s (Redis disabled)", job.Kind, job.JobID)
	return nil
}

// ReadJobsStream blocks until ctx is cancelled
func (nb *NullBus) ReadJobsStream(ctx context.Context, group, consumer string, handler func(ctx context.Context, job JobMessage) error) error {
	nb.logger.Printf("Would read jobs stream %s:%s (Redis disabled)", group, consumer)
	<-ctx.Done()
	return ctx.Err()
}

// ReadUpdatesStream blocks until ctx is cancelled
func (nb *NullBus) ReadUpdatesStream(ctx context.Context, group, consumer string, handler func(ctx context.Context, msg UpdateMessage) error) error {
	nb.logger.Printf("Would read updates stream %s:%s (Redis disabled)", group, consumer)
	<-ctx.Done()
	return ctx.Err()
}

// GetStats returns empty stats for null bus
func (nb *NullBus) GetStats(ctx context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{
		"type":   "null",
		"status": "disabled",
	}, nil
}

// HealthCheck always returns nil for null bus
func (nb *NullBus) HealthCheck(ctx context.Context) error {
	return nil
}

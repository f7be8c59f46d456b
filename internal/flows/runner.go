package flows

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Devcode940/kenyawatch/internal/bus"
)

// Job payload keys.
const (
	PayloadName          = "name"
	PayloadNewsSummary   = "newsSummary"
	PayloadTwitterHandle = "twitterHandle"
	PayloadActor         = "actor"
)

// Runner executes queued jobs against a Service.
type Runner struct {
	svc    *Service
	bus    bus.Bus
	logger *zap.Logger
}

// NewRunner binds a runner to svc and the bus jobs are read from.
func NewRunner(svc *Service, b bus.Bus, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if b == nil {
		b = svc.bus
	}
	return &Runner{svc: svc, bus: b, logger: logger}
}

// Enqueue queues a job and returns its ID.
func (r *Runner) Enqueue(ctx context.Context, kind bus.JobKind, representativeID string, payload map[string]string) (string, error) {
	job := bus.JobMessage{
		JobID:            uuid.NewString(),
		Kind:             kind,
		RepresentativeID: representativeID,
		Payload:          payload,
		Timestamp:        r.svc.now().Unix(),
	}
	if err := r.bus.PublishJob(ctx, job); err != nil {
		return "", fmt.Errorf("queue %s job: %w", kind, err)
	}
	return job.JobID, nil
}

// Run consumes the jobs stream until ctx is cancelled.
func (r *Runner) Run(ctx context.Context, group, consumer string) error {
	return r.bus.ReadJobsStream(ctx, group, consumer, r.HandleJob)
}

// HandleJob dispatches one queued job to its operation.
func (r *Runner) HandleJob(ctx context.Context, job bus.JobMessage) error {
	log := r.logger.With(
		zap.String("job_id", job.JobID),
		zap.String("kind", string(job.Kind)),
		zap.String("representative", job.RepresentativeID),
	)
	svc := r.svc.WithActor(job.Payload[PayloadActor])

	var err error
	switch job.Kind {
	case bus.JobFactCheck:
		var name string
		if name, err = r.name(ctx, job); err == nil {
			_, err = svc.FactCheck(ctx, FactCheckInput{Name: name, RepresentativeID: job.RepresentativeID})
		}
	case bus.JobIntegritySummary:
		var name string
		if name, err = r.name(ctx, job); err == nil {
			news := job.Payload[PayloadNewsSummary]
			if strings.TrimSpace(news) == "" && job.RepresentativeID != "" {
				if rep, gerr := r.svc.store.GetRepresentative(ctx, job.RepresentativeID); gerr == nil {
					news = rep.NewsSummaryForAI
				}
			}
			_, err = svc.SummarizeIntegrityReport(ctx, IntegrityReportInput{
				Name:             name,
				NewsSummary:      news,
				RepresentativeID: job.RepresentativeID,
			})
		}
	case bus.JobSocialHighlights:
		var name string
		if name, err = r.name(ctx, job); err == nil {
			handle := job.Payload[PayloadTwitterHandle]
			if handle == "" {
				if rep, gerr := r.svc.store.GetRepresentative(ctx, job.RepresentativeID); gerr == nil {
					handle = rep.ContactInfo.Twitter
				}
			}
			_, err = svc.GenerateSocialHighlights(ctx, SocialHighlightsInput{
				RepresentativeID:   job.RepresentativeID,
				RepresentativeName: name,
				TwitterHandle:      handle,
			})
		}
	case bus.JobRefreshEconomic:
		_, err = svc.FetchEconomicData(ctx)
	default:
		err = fmt.Errorf("unknown job kind %q", job.Kind)
	}

	if err != nil {
		log.Error("job failed", zap.Error(err))
		return err
	}
	log.Info("job completed")
	return nil
}

// name resolves the representative name from the payload or the store.
func (r *Runner) name(ctx context.Context, job bus.JobMessage) (string, error) {
	if n := strings.TrimSpace(job.Payload[PayloadName]); n != "" {
		return n, nil
	}
	if job.RepresentativeID == "" {
		return "", fmt.Errorf("%s job %s has no representative", job.Kind, job.JobID)
	}
	rep, err := r.svc.store.GetRepresentative(ctx, job.RepresentativeID)
	if err != nil {
		return "", fmt.Errorf("load representative %s: %w", job.RepresentativeID, err)
	}
	return rep.Name, nil
}

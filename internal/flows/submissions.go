package flows

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Devcode940/kenyawatch/internal/bus"
	"github.com/Devcode940/kenyawatch/internal/civic"
)

// AddReview validates and stores a citizen review. It returns the new
// review ID.
func (s *Service) AddReview(ctx context.Context, r civic.Review) (string, error) {
	r.Comment = strings.TrimSpace(r.Comment)
	if err := civic.ValidateReview(r); err != nil {
		return "", err
	}
	if r.UserName == "" {
		r.UserName = s.actor
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	id, err := s.store.AddReview(ctx, r)
	if err != nil {
		return "", fmt.Errorf("add review: %w", err)
	}
	s.record(ctx, r.RepresentativeID, "review_added", map[string]interface{}{
		"review_id": id,
		"rating":    r.Rating,
	}, DatasetLeaderboard, bus.ActionAdded)
	s.logger.Info("review added", zap.String("representative", r.RepresentativeID), zap.Int("rating", r.Rating))
	return id, nil
}

// AddPerformanceMetric validates and stores a metric. It returns the new
// metric ID.
func (s *Service) AddPerformanceMetric(ctx context.Context, m civic.PerformanceMetric) (string, error) {
	m.Name = strings.TrimSpace(m.Name)
	if err := civic.ValidatePerformanceMetric(m); err != nil {
		return "", err
	}
	id, err := s.store.AddPerformanceMetric(ctx, m)
	if err != nil {
		return "", fmt.Errorf("add performance metric: %w", err)
	}
	s.record(ctx, m.RepresentativeID, "metric_added", map[string]interface{}{
		"metric_id": id,
		"name":      m.Name,
		"value":     m.Value.String(),
	}, DatasetRepresentatives, bus.ActionAdded)
	s.logger.Info("performance metric added", zap.String("representative", m.RepresentativeID), zap.String("metric", m.Name))
	return id, nil
}

package store

import (
	"context"
	"fmt"

	"github.com/Devcode940/kenyawatch/internal/fixtures"
)

// IsEmpty reports whether no representatives are stored.
func (s *Store) IsEmpty(ctx context.Context) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM representatives`).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to count representatives: %w", err)
	}
	return n == 0, nil
}

// Seed writes a fixture set. Existing records with the same IDs are
// updated.
func (s *Store) Seed(ctx context.Context, set *fixtures.Set) error {
	if err := s.UpsertRepresentatives(ctx, set.Representatives); err != nil {
		return fmt.Errorf("seed representatives: %w", err)
	}
	for _, m := range set.Metrics {
		if _, err := s.AddPerformanceMetric(ctx, m); err != nil {
			return fmt.Errorf("seed metrics: %w", err)
		}
	}
	if err := s.SaveHighlights(ctx, set.Highlights); err != nil {
		return fmt.Errorf("seed highlights: %w", err)
	}
	for _, r := range set.Reviews {
		if _, err := s.AddReview(ctx, r); err != nil {
			return fmt.Errorf("seed reviews: %w", err)
		}
	}
	if err := s.UpsertEconomicData(ctx, set.GDP, set.Census); err != nil {
		return fmt.Errorf("seed economic data: %w", err)
	}
	if err := s.UpsertScoreCards(ctx, set.ScoreCards); err != nil {
		return fmt.Errorf("seed scorecards: %w", err)
	}
	return nil
}

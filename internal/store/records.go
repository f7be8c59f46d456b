package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Devcode940/kenyawatch/internal/civic"
)

// AddPerformanceMetric stores a metric and returns its ID.
func (s *Store) AddPerformanceMetric(ctx context.Context, m civic.PerformanceMetric) (string, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO performance_metrics (
		id, representative_id, name, value, unit, description, source, trend, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		value = excluded.value,
		unit = excluded.unit,
		description = excluded.description,
		source = excluded.source,
		trend = excluded.trend`,
		m.ID, m.RepresentativeID, m.Name, m.Value.String(), nullString(m.Unit),
		nullString(m.Description), nullString(m.Source), nullString(string(m.Trend)),
		time.Now().Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to save performance metric: %w", err)
	}
	return m.ID, nil
}

// ListPerformanceMetrics returns the metrics of a representative in the
// order they were added.
func (s *Store) ListPerformanceMetrics(ctx context.Context, representativeID string) ([]civic.PerformanceMetric, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, representative_id, name, value, unit, description, source, trend
		FROM performance_metrics WHERE representative_id = ? ORDER BY created_at, rowid`, representativeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query performance metrics: %w", err)
	}
	defer rows.Close()

	var metrics []civic.PerformanceMetric
	for rows.Next() {
		var m civic.PerformanceMetric
		var value string
		var unit, description, source, trend sql.NullString
		if err := rows.Scan(&m.ID, &m.RepresentativeID, &m.Name, &value, &unit, &description, &source, &trend); err != nil {
			return nil, fmt.Errorf("failed to scan performance metric: %w", err)
		}
		m.Value = civic.ParseMetricValue(value)
		m.Unit = unit.String
		m.Description = description.String
		m.Source = source.String
		m.Trend = civic.Trend(trend.String)
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

// SaveHighlights stores highlights in a single transaction.
func (s *Store) SaveHighlights(ctx context.Context, highlights []civic.Highlight) error {
	now := time.Now().Unix()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for i := range highlights {
			h := &highlights[i]
			if h.ID == "" {
				h.ID = uuid.NewString()
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO highlights (
				id, representative_id, title, date, description, category, source_url, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title = excluded.title,
				date = excluded.date,
				description = excluded.description,
				category = excluded.category,
				source_url = excluded.source_url`,
				h.ID, h.RepresentativeID, h.Title, h.Date, nullString(h.Description),
				string(h.Category), nullString(h.SourceURL), now,
			)
			if err != nil {
				return fmt.Errorf("failed to save highlight %q: %w", h.Title, err)
			}
		}
		return nil
	})
}

// ListHighlights returns the highlights of a representative, newest first.
func (s *Store) ListHighlights(ctx context.Context, representativeID string) ([]civic.Highlight, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, representative_id, title, date, description, category, source_url
		FROM highlights WHERE representative_id = ? ORDER BY date DESC, rowid DESC`, representativeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query highlights: %w", err)
	}
	defer rows.Close()

	var highlights []civic.Highlight
	for rows.Next() {
		var h civic.Highlight
		var category string
		var description, source sql.NullString
		if err := rows.Scan(&h.ID, &h.RepresentativeID, &h.Title, &h.Date, &description, &category, &source); err != nil {
			return nil, fmt.Errorf("failed to scan highlight: %w", err)
		}
		h.Description = description.String
		h.Category = civic.HighlightCategory(category)
		h.SourceURL = source.String
		highlights = append(highlights, h)
	}
	return highlights, rows.Err()
}

// AddReview stores a review and returns its ID. A zero CreatedAt is set
// to now.
func (s *Store) AddReview(ctx context.Context, r civic.Review) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO reviews (
		id, representative_id, rating, comment, user_id, user_name, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO NOTHING`,
		r.ID, r.RepresentativeID, r.Rating, r.Comment, nullString(r.UserID), nullString(r.UserName),
		r.CreatedAt.Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to save review: %w", err)
	}
	return r.ID, nil
}

// ListReviews returns the reviews of a representative, newest first. An
// empty representativeID lists every review.
func (s *Store) ListReviews(ctx context.Context, representativeID string) ([]civic.Review, error) {
	query := `SELECT id, representative_id, rating, comment, user_id, user_name, created_at FROM reviews`
	args := []interface{}{}
	if representativeID != "" {
		query += ` WHERE representative_id = ?`
		args = append(args, representativeID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []civic.Review
	for rows.Next() {
		var r civic.Review
		var userID, userName sql.NullString
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.RepresentativeID, &r.Rating, &r.Comment, &userID, &userName, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		r.UserID = userID.String
		r.UserName = userName.String
		r.CreatedAt = time.Unix(createdAt, 0)
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// SaveIntegrityReport stores a generated report and returns its ID.
func (s *Store) SaveIntegrityReport(ctx context.Context, r civic.IntegrityReport) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO integrity_reports (id, representative_id, kind, report, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.RepresentativeID, string(r.Kind), r.Report, r.CreatedAt.Unix())
	if err != nil {
		return "", fmt.Errorf("failed to save integrity report: %w", err)
	}
	return r.ID, nil
}

// LatestIntegrityReport returns the newest report for a representative or
// ErrNotFound.
func (s *Store) LatestIntegrityReport(ctx context.Context, representativeID string) (civic.IntegrityReport, error) {
	var r civic.IntegrityReport
	var kind string
	var createdAt int64
	err := s.db.QueryRowContext(ctx, `SELECT id, representative_id, kind, report, created_at
		FROM integrity_reports WHERE representative_id = ?
		ORDER BY created_at DESC, rowid DESC LIMIT 1`, representativeID).
		Scan(&r.ID, &r.RepresentativeID, &kind, &r.Report, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("integrity report for %q: %w", representativeID, ErrNotFound)
	}
	if err != nil {
		return r, fmt.Errorf("failed to query integrity report: %w", err)
	}
	r.Kind = civic.ReportKind(kind)
	r.CreatedAt = time.Unix(createdAt, 0)
	return r, nil
}

// UpsertScoreCards stores scorecards. Scores missing from a card keep
// their stored values.
func (s *Store) UpsertScoreCards(ctx context.Context, cards []civic.ScoreCard) error {
	now := time.Now().Unix()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, c := range cards {
			_, err := tx.ExecContext(ctx, `INSERT INTO scorecards (representative_id, performance_score, integrity_score, updated_at)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(representative_id) DO UPDATE SET
					performance_score = COALESCE(excluded.performance_score, scorecards.performance_score),
					integrity_score = COALESCE(excluded.integrity_score, scorecards.integrity_score),
					updated_at = excluded.updated_at`,
				c.RepresentativeID, nullFloat(c.PerformanceScore), nullFloat(c.IntegrityScore), now)
			if err != nil {
				return fmt.Errorf("failed to save scorecard for %s: %w", c.RepresentativeID, err)
			}
		}
		return nil
	})
}

// ListScoreCards returns every scorecard.
func (s *Store) ListScoreCards(ctx context.Context) ([]civic.ScoreCard, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT representative_id, performance_score, integrity_score
		FROM scorecards ORDER BY representative_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query scorecards: %w", err)
	}
	defer rows.Close()

	var cards []civic.ScoreCard
	for rows.Next() {
		var c civic.ScoreCard
		var perf, integrity sql.NullFloat64
		if err := rows.Scan(&c.RepresentativeID, &perf, &integrity); err != nil {
			return nil, fmt.Errorf("failed to scan scorecard: %w", err)
		}
		c.PerformanceScore = floatPtr(perf)
		c.IntegrityScore = floatPtr(integrity)
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// Leaderboard ranks every representative from the stored scorecards and
// reviews.
func (s *Store) Leaderboard(ctx context.Context) ([]civic.RankedRepresentative, error) {
	reps, err := s.ListRepresentatives(ctx)
	if err != nil {
		return nil, err
	}
	cards, err := s.ListScoreCards(ctx)
	if err != nil {
		return nil, err
	}
	reviews, err := s.ListReviews(ctx, "")
	if err != nil {
		return nil, err
	}
	return civic.Rank(reps, cards, reviews), nil
}

// Profile is everything known about one representative.
type Profile struct {
	Representative civic.Representative
	Metrics        []civic.PerformanceMetric
	Highlights     []civic.Highlight
	Reviews        []civic.Review
	// Report is the latest integrity report, nil when none exists.
	Report *civic.IntegrityReport
}

// Profile loads a representative with its records. ErrNotFound is
// returned when the representative is unknown.
func (s *Store) Profile(ctx context.Context, id string) (Profile, error) {
	var p Profile
	var err error
	if p.Representative, err = s.GetRepresentative(ctx, id); err != nil {
		return p, err
	}
	if p.Metrics, err = s.ListPerformanceMetrics(ctx, id); err != nil {
		return p, err
	}
	if p.Highlights, err = s.ListHighlights(ctx, id); err != nil {
		return p, err
	}
	if p.Reviews, err = s.ListReviews(ctx, id); err != nil {
		return p, err
	}
	report, err := s.LatestIntegrityReport(ctx, id)
	switch {
	case err == nil:
		p.Report = &report
	case !errors.Is(err, ErrNotFound):
		return p, err
	}
	return p, nil
}

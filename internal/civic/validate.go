package civic

import (
	"errors"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrValidation is wrapped by every validation failure.
var ErrValidation = errors.New("validation failed")

// ValidationError carries a user-facing message for one field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid returns a *ValidationError for field with a user-facing message.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// Review limits
const (
	MinRating        = 1
	MaxRating        = 5
	MinCommentLength = 10
	MaxCommentLength = 500
)

// ValidateReview checks a citizen review before it is stored.
func ValidateReview(r Review) error {
	if strings.TrimSpace(r.RepresentativeID) == "" {
		return Invalid("representativeId", "Representative is required.")
	}
	if r.Rating < MinRating {
		return Invalid("rating", "Rating is required")
	}
	if r.Rating > MaxRating {
		return Invalid("rating", "Rating must be between 1 and 5.")
	}
	n := utf8.RuneCountInString(strings.TrimSpace(r.Comment))
	if n < MinCommentLength {
		return Invalid("comment", "Comment must be at least 10 characters.")
	}
	if n > MaxCommentLength {
		return Invalid("comment", "Comment must not exceed 500 characters.")
	}
	return nil
}

// ValidatePerformanceMetric checks a submitted metric.
func ValidatePerformanceMetric(m PerformanceMetric) error {
	if strings.TrimSpace(m.RepresentativeID) == "" {
		return Invalid("representativeId", "Representative is required.")
	}
	if utf8.RuneCountInString(strings.TrimSpace(m.Name)) < 3 {
		return Invalid("name", "Metric name is required.")
	}
	if m.Value.IsZero() || strings.TrimSpace(m.Value.String()) == "" {
		return Invalid("value", "Metric value is required.")
	}
	switch m.Trend {
	case "", TrendUp, TrendDown, TrendStable:
	default:
		return Invalid("trend", "Trend must be up, down or stable.")
	}
	return nil
}

// ValidateHighlight checks a highlight. The date must already be
// normalised or parseable by NormalizeDate.
func ValidateHighlight(h Highlight) error {
	if strings.TrimSpace(h.Title) == "" {
		return Invalid("title", "Highlight title is required.")
	}
	if !h.Category.Valid() {
		return Invalid("category", "Highlight category is not recognised.")
	}
	if _, err := NormalizeDate(h.Date); err != nil {
		return Invalid("date", "Highlight date is not a valid date.")
	}
	if h.SourceURL != "" {
		u, err := url.Parse(h.SourceURL)
		if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return Invalid("sourceUrl", "Source URL must be an absolute http(s) URL.")
		}
	}
	return nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
}

// NormalizeDate parses s in one of the accepted layouts and returns it as
// an ISO-8601 UTC timestamp.
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC().Format(time.RFC3339), nil
		}
		lastErr = err
	}
	return "", lastErr
}

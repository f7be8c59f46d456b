package flows

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Devcode940/kenyawatch/internal/bus"
	"github.com/Devcode940/kenyawatch/internal/civic"
	"github.com/Devcode940/kenyawatch/internal/llm"
)

// MaxHighlights caps how many highlights one run stores.
const MaxHighlights = 5

// SocialHighlightsInput identifies the representative whose feed is read.
type SocialHighlightsInput struct {
	RepresentativeID   string `json:"representativeId"`
	RepresentativeName string `json:"representativeName"`
	TwitterHandle      string `json:"twitterHandle,omitempty"`
}

// SocialHighlightsOutput reports how many highlights were stored.
type SocialHighlightsOutput struct {
	HighlightsAdded int    `json:"highlightsAdded"`
	Summary         string `json:"summary"`
}

const noHighlightsSummary = "No new highlights were generated from the social media posts."

type generatedHighlight struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Category    string `json:"category"`
	SourceURL   string `json:"sourceUrl"`
}

// GenerateSocialHighlights extracts highlights from a representative's
// recent posts and stores the valid ones in a single transaction.
func (s *Service) GenerateSocialHighlights(ctx context.Context, in SocialHighlightsInput) (*SocialHighlightsOutput, error) {
	if strings.TrimSpace(in.RepresentativeID) == "" {
		return nil, civic.Invalid("representativeId", "Representative is required.")
	}
	name := strings.TrimSpace(in.RepresentativeName)
	if name == "" {
		return nil, civic.Invalid("representativeName", "Representative name is required.")
	}

	posts, err := s.social.Posts(ctx, in.TwitterHandle)
	if err != nil {
		return nil, fmt.Errorf("fetch posts for %s: %w", name, err)
	}

	var out struct {
		Highlights []generatedHighlight `json:"highlights"`
	}
	req := llm.Request{
		Task:      llm.TaskSocialHighlights,
		Prompt:    llm.SocialHighlightsPrompt(name, posts),
		JSON:      true,
		MaxTokens: 1200,
	}
	if err := s.generate(ctx, in.RepresentativeID, req, &out); err != nil {
		return nil, err
	}

	highlights := s.acceptHighlights(in.RepresentativeID, out.Highlights)
	if len(highlights) == 0 {
		return &SocialHighlightsOutput{HighlightsAdded: 0, Summary: noHighlightsSummary}, nil
	}
	if err := s.store.SaveHighlights(ctx, highlights); err != nil {
		return nil, fmt.Errorf("save highlights: %w", err)
	}

	s.record(ctx, in.RepresentativeID, "social_highlights", map[string]interface{}{
		"generated": len(out.Highlights),
		"saved":     len(highlights),
	}, DatasetRepresentatives, bus.ActionAdded)
	s.logger.Info("social highlights saved", zap.String("representative", in.RepresentativeID), zap.Int("count", len(highlights)))

	return &SocialHighlightsOutput{
		HighlightsAdded: len(highlights),
		Summary:         fmt.Sprintf("Successfully generated and saved %d new highlights for %s.", len(highlights), name),
	}, nil
}

// acceptHighlights normalises dates, drops invalid entries and keeps at
// most MaxHighlights.
func (s *Service) acceptHighlights(repID string, generated []generatedHighlight) []civic.Highlight {
	var kept []civic.Highlight
	for _, g := range generated {
		if len(kept) == MaxHighlights {
			break
		}
		h := civic.Highlight{
			RepresentativeID: repID,
			Title:            strings.TrimSpace(g.Title),
			Date:             strings.TrimSpace(g.Date),
			Description:      strings.TrimSpace(g.Description),
			Category:         civic.HighlightCategory(strings.TrimSpace(g.Category)),
			SourceURL:        strings.TrimSpace(g.SourceURL),
		}
		if err := civic.ValidateHighlight(h); err != nil {
			s.logger.Warn("dropping generated highlight", zap.String("title", h.Title), zap.Error(err))
			continue
		}
		h.Date, _ = civic.NormalizeDate(h.Date)
		kept = append(kept, h)
	}
	return kept
}

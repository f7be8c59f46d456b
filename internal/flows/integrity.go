package flows

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Devcode940/kenyawatch/internal/bus"
	"github.com/Devcode940/kenyawatch/internal/civic"
	"github.com/Devcode940/kenyawatch/internal/llm"
)

// News summary length limits for SummarizeIntegrityReport.
const (
	MinNewsSummaryLength = 50
	MaxNewsSummaryLength = 5000
)

// FactCheckInput names the representative to check. RepresentativeID is
// optional; when set the report is stored against that representative.
type FactCheckInput struct {
	Name             string `json:"name"`
	RepresentativeID string `json:"representativeId,omitempty"`
}

// FactCheckOutput carries the generated integrity report.
type FactCheckOutput struct {
	IntegrityReport string `json:"integrityReport"`
}

// IntegrityReportInput is a caller-supplied news digest to summarize.
type IntegrityReportInput struct {
	Name             string `json:"name"`
	NewsSummary      string `json:"newsSummary"`
	RepresentativeID string `json:"representativeId,omitempty"`
}

// IntegrityReportOutput carries the summarized integrity report.
type IntegrityReportOutput struct {
	IntegrityReport string `json:"integrityReport"`
}

// FactCheck searches the news for a representative and asks the model for
// a neutral integrity assessment.
func (s *Service) FactCheck(ctx context.Context, in FactCheckInput) (*FactCheckOutput, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, civic.Invalid("name", "Representative name is required.")
	}

	news, err := s.news.Search(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("search news for %s: %w", name, err)
	}

	var out FactCheckOutput
	req := llm.Request{
		Task:      llm.TaskFactCheck,
		Prompt:    llm.FactCheckPrompt(name, news),
		JSON:      true,
		MaxTokens: 700,
	}
	if err := s.generate(ctx, in.RepresentativeID, req, &out); err != nil {
		return nil, err
	}
	out.IntegrityReport = strings.TrimSpace(out.IntegrityReport)
	if out.IntegrityReport == "" {
		return nil, ErrNoOutput
	}

	if err := s.saveReport(ctx, in.RepresentativeID, civic.ReportFactCheck, out.IntegrityReport); err != nil {
		return nil, err
	}
	s.logger.Info("fact check completed", zap.String("name", name), zap.String("representative", in.RepresentativeID))
	return &out, nil
}

// SummarizeIntegrityReport condenses a news digest into an integrity report.
func (s *Service) SummarizeIntegrityReport(ctx context.Context, in IntegrityReportInput) (*IntegrityReportOutput, error) {
	name := strings.TrimSpace(in.Name)
	news := strings.TrimSpace(in.NewsSummary)
	if name == "" || news == "" {
		return nil, civic.Invalid("newsSummary", "Representative name and news summary are required.")
	}
	switch n := utf8.RuneCountInString(news); {
	case n < MinNewsSummaryLength:
		return nil, civic.Invalid("newsSummary", "News summary must be at least 50 characters.")
	case n > MaxNewsSummaryLength:
		return nil, civic.Invalid("newsSummary", "News summary must not exceed 5000 characters.")
	}

	var out IntegrityReportOutput
	req := llm.Request{
		Task:      llm.TaskIntegritySummary,
		Prompt:    llm.IntegritySummaryPrompt(name, news),
		JSON:      true,
		MaxTokens: 700,
	}
	if err := s.generate(ctx, in.RepresentativeID, req, &out); err != nil {
		return nil, err
	}
	out.IntegrityReport = strings.TrimSpace(out.IntegrityReport)
	if out.IntegrityReport == "" {
		return nil, ErrNoOutput
	}

	if err := s.saveReport(ctx, in.RepresentativeID, civic.ReportSummary, out.IntegrityReport); err != nil {
		return nil, err
	}
	s.logger.Info("integrity summary completed", zap.String("name", name), zap.String("representative", in.RepresentativeID))
	return &out, nil
}

func (s *Service) saveReport(ctx context.Context, repID string, kind civic.ReportKind, report string) error {
	details := map[string]interface{}{"kind": string(kind), "length": len(report)}
	if repID == "" {
		if err := s.store.LogAction(ctx, "", string(kind), s.actor, details); err != nil {
			s.logger.Warn("failed to write audit entry", zap.String("action", string(kind)), zap.Error(err))
		}
		return nil
	}
	id, err := s.store.SaveIntegrityReport(ctx, civic.IntegrityReport{
		RepresentativeID: repID,
		Kind:             kind,
		Report:           report,
		CreatedAt:        s.now(),
	})
	if err != nil {
		return fmt.Errorf("save integrity report: %w", err)
	}
	details["report_id"] = id
	s.record(ctx, repID, string(kind), details, DatasetRepresentatives, bus.ActionReport)
	return nil
}

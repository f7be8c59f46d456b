package flows

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Devcode940/kenyawatch/internal/bus"
	"github.com/Devcode940/kenyawatch/internal/civic"
)

// FetchEconomicDataOutput reports how many records were refreshed.
type FetchEconomicDataOutput struct {
	GDPCount    int    `json:"gdpCount"`
	CensusCount int    `json:"censusCount"`
	Summary     string `json:"summary"`
}

// FetchEconomicData pulls the latest GDP and census figures and
// merge-upserts them under deterministic county-year IDs.
func (s *Service) FetchEconomicData(ctx context.Context) (*FetchEconomicDataOutput, error) {
	gdp, census, err := fetchEconomic(ctx, s.economy)
	if err != nil {
		return nil, err
	}

	year := 0
	for i := range gdp {
		gdp[i].ID = civic.DatasetID(gdp[i].County, gdp[i].Year)
		if gdp[i].Year > year {
			year = gdp[i].Year
		}
	}
	for i := range census {
		census[i].ID = civic.DatasetID(census[i].County, census[i].Year)
		if census[i].Year > year {
			year = census[i].Year
		}
	}

	if err := s.store.UpsertEconomicData(ctx, gdp, census); err != nil {
		return nil, fmt.Errorf("store economic data: %w", err)
	}

	details := map[string]interface{}{"gdp": len(gdp), "census": len(census), "year": year}
	s.record(ctx, DatasetGDP, "economic_refresh", details, DatasetGDP, bus.ActionUpserted)
	if err := s.bus.PublishUpdate(ctx, bus.UpdateMessage{
		Dataset:   DatasetCensus,
		Action:    bus.ActionUpserted,
		Timestamp: s.now().Unix(),
	}); err != nil {
		s.logger.Warn("failed to publish update", zap.String("dataset", DatasetCensus), zap.Error(err))
	}
	s.logger.Info("economic data refreshed", zap.Int("gdp", len(gdp)), zap.Int("census", len(census)), zap.Int("year", year))

	return &FetchEconomicDataOutput{
		GDPCount:    len(gdp),
		CensusCount: len(census),
		Summary:     fmt.Sprintf("Successfully updated %d GDP records and %d census records for the year %d.", len(gdp), len(census), year),
	}, nil
}

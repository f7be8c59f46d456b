package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Devcode940/kenyawatch/internal/civic"
)

// UpsertEconomicData merges GDP and census records in one transaction.
// Records are keyed by ID (civic.DatasetID when empty); optional fields
// absent from a record keep their stored values.
func (s *Store) UpsertEconomicData(ctx context.Context, gdp []civic.CountyGDP, census []civic.CensusData) error {
	now := time.Now().Unix()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for i := range gdp {
			if err := upsertGDP(ctx, tx, &gdp[i], now); err != nil {
				return err
			}
		}
		for i := range census {
			if err := upsertCensus(ctx, tx, &census[i], now); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpsertGDP merges GDP records.
func (s *Store) UpsertGDP(ctx context.Context, gdp []civic.CountyGDP) error {
	return s.UpsertEconomicData(ctx, gdp, nil)
}

// UpsertCensus merges census records.
func (s *Store) UpsertCensus(ctx context.Context, census []civic.CensusData) error {
	return s.UpsertEconomicData(ctx, nil, census)
}

func upsertGDP(ctx context.Context, tx *sql.Tx, g *civic.CountyGDP, now int64) error {
	if g.ID == "" {
		g.ID = civic.DatasetID(g.County, g.Year)
	}
	var sectors sql.NullString
	if len(g.SectorBreakdown) > 0 {
		data, err := json.Marshal(g.SectorBreakdown)
		if err != nil {
			return fmt.Errorf("failed to marshal sector breakdown: %w", err)
		}
		sectors = sql.NullString{String: string(data), Valid: true}
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO county_gdp (
		id, county, gdp_millions_ksh, year, gdp_per_capita_ksh, sector_breakdown, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		county = excluded.county,
		gdp_millions_ksh = excluded.gdp_millions_ksh,
		year = excluded.year,
		gdp_per_capita_ksh = COALESCE(excluded.gdp_per_capita_ksh, county_gdp.gdp_per_capita_ksh),
		sector_breakdown = COALESCE(excluded.sector_breakdown, county_gdp.sector_breakdown),
		updated_at = excluded.updated_at`,
		g.ID, g.County, g.GDPMillionsKsh, g.Year, nullFloat(g.GDPPerCapitaKsh), sectors, now)
	if err != nil {
		return fmt.Errorf("failed to save GDP record %s: %w", g.ID, err)
	}
	return nil
}

func upsertCensus(ctx context.Context, tx *sql.Tx, c *civic.CensusData, now int64) error {
	if c.ID == "" {
		c.ID = civic.DatasetID(c.County, c.Year)
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO census_data (
		id, county, total_population, male_population, female_population, intersex_population,
		household_count, average_household_size, population_density, year, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		county = excluded.county,
		total_population = excluded.total_population,
		male_population = excluded.male_population,
		female_population = excluded.female_population,
		intersex_population = COALESCE(excluded.intersex_population, census_data.intersex_population),
		household_count = excluded.household_count,
		average_household_size = excluded.average_household_size,
		population_density = excluded.population_density,
		year = excluded.year,
		updated_at = excluded.updated_at`,
		c.ID, c.County, c.TotalPopulation, c.MalePopulation, c.FemalePopulation,
		nullInt(c.IntersexPopulation), c.HouseholdCount, c.AverageHouseholdSize,
		c.PopulationDensity, c.Year, now)
	if err != nil {
		return fmt.Errorf("failed to save census record %s: %w", c.ID, err)
	}
	return nil
}

// ListGDP returns every GDP record ordered by year then county.
func (s *Store) ListGDP(ctx context.Context) ([]civic.CountyGDP, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, county, gdp_millions_ksh, year, gdp_per_capita_ksh, sector_breakdown
		FROM county_gdp ORDER BY year, county`)
	if err != nil {
		return nil, fmt.Errorf("failed to query GDP: %w", err)
	}
	defer rows.Close()

	var out []civic.CountyGDP
	for rows.Next() {
		var g civic.CountyGDP
		var perCapita sql.NullFloat64
		var sectors sql.NullString
		if err := rows.Scan(&g.ID, &g.County, &g.GDPMillionsKsh, &g.Year, &perCapita, &sectors); err != nil {
			return nil, fmt.Errorf("failed to scan GDP: %w", err)
		}
		g.GDPPerCapitaKsh = floatPtr(perCapita)
		if sectors.Valid {
			if err := json.Unmarshal([]byte(sectors.String), &g.SectorBreakdown); err != nil {
				return nil, fmt.Errorf("failed to decode sector breakdown for %s: %w", g.ID, err)
			}
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// ListCensus returns every census record ordered by year then county.
func (s *Store) ListCensus(ctx context.Context) ([]civic.CensusData, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, county, total_population, male_population, female_population,
		intersex_population, household_count, average_household_size, population_density, year
		FROM census_data ORDER BY year, county`)
	if err != nil {
		return nil, fmt.Errorf("failed to query census: %w", err)
	}
	defer rows.Close()

	var out []civic.CensusData
	for rows.Next() {
		var c civic.CensusData
		var intersex sql.NullInt64
		if err := rows.Scan(&c.ID, &c.County, &c.TotalPopulation, &c.MalePopulation, &c.FemalePopulation,
			&intersex, &c.HouseholdCount, &c.AverageHouseholdSize, &c.PopulationDensity, &c.Year); err != nil {
			return nil, fmt.Errorf("failed to scan census: %w", err)
		}
		c.IntersexPopulation = intPtr(intersex)
		out = append(out, c)
	}
	return out, rows.Err()
}

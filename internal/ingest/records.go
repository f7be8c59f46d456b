package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Devcode940/kenyawatch/internal/civic"
	"github.com/Devcode940/kenyawatch/internal/datasets"
	"github.com/Devcode940/kenyawatch/internal/fixtures"
	"github.com/Devcode940/kenyawatch/internal/store"
)

// ErrUnknownDataset is returned when a record's dataset cannot be determined.
var ErrUnknownDataset = errors.New("unknown dataset")

// Record is one parsed ingest record. Exactly one of the typed fields is set.
type Record struct {
	Dataset        string
	Representative *civic.Representative
	GDP            *civic.CountyGDP
	Census         *civic.CensusData
}

// SubjectID returns the ID of the carried record.
func (r Record) SubjectID() string {
	switch {
	case r.Representative != nil:
		return r.Representative.ID
	case r.GDP != nil:
		return r.GDP.ID
	case r.Census != nil:
		return r.Census.ID
	}
	return ""
}

// Parser turns raw JSON records into typed civic records.
type Parser struct{}

// NewParser creates a new parser.
func NewParser() *Parser {
	return &Parser{}
}

// NormalizeDataset maps accepted aliases to a dataset name, or "" when s
// names none of the ingestible datasets.
func NormalizeDataset(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "representatives", "representative", "reps":
		return datasets.Representatives
	case "gdp", "county_gdp", "county-gdp":
		return datasets.GDP
	case "census", "census_data", "census-data":
		return datasets.Census
	}
	return ""
}

// DatasetFromFilename derives a dataset from a file-name prefix such as
// "gdp-2023.json" or "census_2019.jsonl".
func DatasetFromFilename(name string) string {
	base := strings.ToLower(filepath.Base(name))
	for _, prefix := range []string{"representatives", "county_gdp", "county-gdp", "census_data", "census", "gdp", "reps"} {
		if strings.HasPrefix(base, prefix) {
			return NormalizeDataset(prefix)
		}
	}
	return ""
}

// ParseRecord decodes one JSON object. The dataset comes from its
// "dataset" field, or fallback when the field is missing.
func (p *Parser) ParseRecord(raw []byte, fallback string) (Record, error) {
	raw = bytes.TrimSpace(raw)
	var probe struct {
		Dataset string `json:"dataset"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Record{}, fmt.Errorf("failed to parse JSON: %w", err)
	}
	ds := NormalizeDataset(probe.Dataset)
	if ds == "" {
		ds = NormalizeDataset(fallback)
	}
	if ds == "" {
		return Record{}, fmt.Errorf("%w: %q", ErrUnknownDataset, probe.Dataset)
	}

	rec := Record{Dataset: ds}
	switch ds {
	case datasets.Representatives:
		var r civic.Representative
		if err := json.Unmarshal(raw, &r); err != nil {
			return Record{}, fmt.Errorf("failed to parse representative: %w", err)
		}
		if strings.TrimSpace(r.Name) == "" {
			return Record{}, errors.New("representative name is required")
		}
		if r.Slug == "" {
			r.Slug = civic.Slugify(r.Name, r.Position)
		}
		rec.Representative = &r
	case datasets.GDP:
		var g civic.CountyGDP
		if err := json.Unmarshal(raw, &g); err != nil {
			return Record{}, fmt.Errorf("failed to parse gdp record: %w", err)
		}
		if err := checkCountyYear(g.County, g.Year); err != nil {
			return Record{}, err
		}
		if g.ID == "" {
			g.ID = civic.DatasetID(g.County, g.Year)
		}
		rec.GDP = &g
	case datasets.Census:
		var c civic.CensusData
		if err := json.Unmarshal(raw, &c); err != nil {
			return Record{}, fmt.Errorf("failed to parse census record: %w", err)
		}
		if err := checkCountyYear(c.County, c.Year); err != nil {
			return Record{}, err
		}
		if c.ID == "" {
			c.ID = civic.DatasetID(c.County, c.Year)
		}
		rec.Census = &c
	}
	return rec, nil
}

// ParseFixtures decodes a TOML document in the seed fixture format.
func (p *Parser) ParseFixtures(data []byte) (*fixtures.Set, error) {
	return fixtures.Parse(data)
}

func checkCountyYear(county string, year int) error {
	if strings.TrimSpace(county) == "" {
		return errors.New("county is required")
	}
	if year <= 0 {
		return errors.New("year is required")
	}
	return nil
}

// Batch groups parsed records by dataset.
type Batch struct {
	Representatives []civic.Representative
	GDP             []civic.CountyGDP
	Census          []civic.CensusData
}

// Add appends r to the slice for its dataset.
func (b *Batch) Add(r Record) {
	switch {
	case r.Representative != nil:
		b.Representatives = append(b.Representatives, *r.Representative)
	case r.GDP != nil:
		b.GDP = append(b.GDP, *r.GDP)
	case r.Census != nil:
		b.Census = append(b.Census, *r.Census)
	}
}

// Store upserts every non-empty slice.
func (b *Batch) Store(ctx context.Context, st *store.Store) error {
	if len(b.Representatives) > 0 {
		if err := st.UpsertRepresentatives(ctx, b.Representatives); err != nil {
			return fmt.Errorf("upsert representatives: %w", err)
		}
	}
	if len(b.GDP) > 0 {
		if err := st.UpsertGDP(ctx, b.GDP); err != nil {
			return fmt.Errorf("upsert gdp: %w", err)
		}
	}
	if len(b.Census) > 0 {
		if err := st.UpsertCensus(ctx, b.Census); err != nil {
			return fmt.Errorf("upsert census: %w", err)
		}
	}
	return nil
}

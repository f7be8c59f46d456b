// Package fixtures holds the embedded seed data.
package fixtures

import (
	_ "embed"
	"fmt"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/Devcode940/kenyawatch/internal/civic"
)

//go:embed fixtures.toml
var defaultData []byte

// Set is a complete seed data set.
type Set struct {
	Representatives []civic.Representative    `toml:"representatives"`
	Metrics         []civic.PerformanceMetric `toml:"metrics"`
	Highlights      []civic.Highlight         `toml:"highlights"`
	Reviews         []civic.Review            `toml:"reviews"`
	GDP             []civic.CountyGDP         `toml:"gdp"`
	Census          []civic.CensusData        `toml:"census"`
	ScoreCards      []civic.ScoreCard         `toml:"scorecards"`
}

// Default returns the embedded seed data.
func Default() (*Set, error) {
	return Parse(defaultData)
}

// Parse decodes a TOML fixture document. Representatives without a slug
// get one derived from name and position.
func Parse(data []byte) (*Set, error) {
	var set Set
	if err := toml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	for i := range set.Representatives {
		r := &set.Representatives[i]
		if r.Slug == "" {
			r.Slug = civic.Slugify(r.Name, r.Position)
		}
	}
	for i := range set.GDP {
		if set.GDP[i].ID == "" {
			set.GDP[i].ID = civic.DatasetID(set.GDP[i].County, set.GDP[i].Year)
		}
	}
	for i := range set.Census {
		if set.Census[i].ID == "" {
			set.Census[i].ID = civic.DatasetID(set.Census[i].County, set.Census[i].Year)
		}
	}
	return &set, nil
}

// Len is the total number of records in the set.
func (s *Set) Len() int {
	return len(s.Representatives) + len(s.Metrics) + len(s.Highlights) +
		len(s.Reviews) + len(s.GDP) + len(s.Census) + len(s.ScoreCards)
}

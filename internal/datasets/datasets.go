// Package datasets declares the tabular views KenyaWatch offers: their
// columns, search, filters and initial sort, and how their rows are loaded.
package datasets

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Devcode940/kenyawatch/internal/store"
	"github.com/Devcode940/kenyawatch/internal/table"
)

// Dataset names
const (
	Representatives = "representatives"
	Census          = "census"
	GDP             = "gdp"
	Leaderboard     = "leaderboard"
)

// Dataset is a named view configuration plus its loader. Schema receives
// the loaded rows so filter options can be derived from them.
type Dataset struct {
	Name        string
	Title       string
	Description string
	Schema      func(rows []table.Row) table.Schema
	Load        func(ctx context.Context, st *store.Store) ([]table.Row, error)
}

var registry = map[string]Dataset{
	Representatives: {
		Name:        Representatives,
		Title:       "Representatives",
		Description: "Elected officials across national and county government.",
		Schema:      representativesSchema,
		Load:        loadRepresentatives,
	},
	Census: {
		Name:        Census,
		Title:       "Kenyan Census Data",
		Description: "Demographic information from the latest national census.",
		Schema:      censusSchema,
		Load:        loadCensus,
	},
	GDP: {
		Name:        GDP,
		Title:       "County GDP",
		Description: "Gross county product by county and year.",
		Schema:      gdpSchema,
		Load:        loadGDP,
	},
	Leaderboard: {
		Name:        Leaderboard,
		Title:       "Representative Leaderboard",
		Description: "Ranking representatives based on various performance and integrity metrics.",
		Schema:      leaderboardSchema,
		Load:        loadLeaderboard,
	},
}

// order is the tab order of the views.
var order = []string{Representatives, Census, GDP, Leaderboard}

// Names returns the dataset names in display order.
func Names() []string {
	return append([]string(nil), order...)
}

// All returns the datasets in display order.
func All() []Dataset {
	out := make([]Dataset, 0, len(order))
	for _, n := range order {
		out = append(out, registry[n])
	}
	return out
}

// Lookup returns the dataset with the given name.
func Lookup(name string) (Dataset, bool) {
	d, ok := registry[name]
	return d, ok
}

// OptionsFrom builds the distinct, sorted filter options of path over rows.
func OptionsFrom(rows []table.Row, path string) []table.Option {
	return table.DistinctOptions(rows, table.ParsePath(path))
}

// Open loads a dataset and returns a view over its rows.
func Open(ctx context.Context, st *store.Store, name string, logger *zap.Logger) (*table.View, error) {
	d, ok := Lookup(name)
	if !ok {
		known := Names()
		sort.Strings(known)
		return nil, fmt.Errorf("unknown dataset %q (known: %v)", name, known)
	}
	rows, err := d.Load(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return table.NewView(d.Schema(rows), rows, logger.Named(name)), nil
}

// Reload refreshes a view's rows and filter options in place, keeping its
// search, filters and sort.
func Reload(ctx context.Context, st *store.Store, name string, v *table.View) error {
	d, ok := Lookup(name)
	if !ok {
		return fmt.Errorf("unknown dataset %q", name)
	}
	rows, err := d.Load(ctx, st)
	if err != nil {
		return fmt.Errorf("reload %s: %w", name, err)
	}
	v.SetSchema(d.Schema(rows))
	v.SetRows(rows)
	return nil
}

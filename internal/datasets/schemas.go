package datasets

import (
	"context"
	"fmt"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/Devcode940/kenyawatch/internal/civic"
	"github.com/Devcode940/kenyawatch/internal/store"
	"github.com/Devcode940/kenyawatch/internal/table"
)

// NotAvailable is rendered for optional figures that are missing.
const NotAvailable = "N/A"

// Crown marks the top-ranked representative.
const Crown = "★"

// thousands renders numbers with thousands separators.
func thousands(_ table.Row, v table.Value) string {
	n, ok := v.AsNumber()
	if !ok {
		return v.String()
	}
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return humanize.Comma(int64(n))
	}
	return humanize.CommafWithDigits(n, 2)
}

// optionalThousands is thousands with NotAvailable for absent values.
func optionalThousands(row table.Row, v table.Value) string {
	if v.IsAbsent() {
		return NotAvailable
	}
	return thousands(row, v)
}

// score renders a 0-100 score with one decimal.
func score(_ table.Row, v table.Value) string {
	n, ok := v.AsNumber()
	if !ok {
		return NotAvailable
	}
	return fmt.Sprintf("%.1f", n)
}

// rank renders "#N", crowning the first place.
func rank(_ table.Row, v table.Value) string {
	n, ok := v.AsNumber()
	if !ok {
		return ""
	}
	if n == 1 {
		return "#1 " + Crown
	}
	return fmt.Sprintf("#%d", int(n))
}

func col(path, header string, sortable bool, render table.CellRenderer) table.Column {
	return table.Column{
		Path:     table.ParsePath(path),
		Header:   header,
		Sortable: sortable,
		Render:   render,
	}
}

func positionOptions() []table.Option {
	positions := civic.Positions()
	values := make([]string, len(positions))
	for i, p := range positions {
		values[i] = string(p)
	}
	return table.StaticOptions(values...)
}

func representativesSchema(rows []table.Row) table.Schema {
	return table.Schema{
		Columns: []table.Column{
			col("name", "Name", true, nil),
			col("position", "Position", true, nil),
			col("county", "County", true, nil),
			col("constituencyOrWard", "Constituency/Ward", true, nil),
			col("party", "Party", true, nil),
			col("votesGarnered", "Votes", true, thousands),
		},
		Search:            table.ParsePath("name"),
		SearchPlaceholder: "Search by name...",
		Filters: []table.FilterOption{
			{Label: "Position", Path: table.ParsePath("position"), Options: positionOptions()},
			{Label: "County", Path: table.ParsePath("county"), Options: OptionsFrom(rows, "county")},
		},
		InitialSort:      table.ParsePath("name"),
		InitialDirection: table.Asc,
	}
}

func censusSchema([]table.Row) table.Schema {
	return table.Schema{
		Columns: []table.Column{
			col("county", "County", true, nil),
			col("totalPopulation", "Total Population", true, thousands),
			col("malePopulation", "Male Population", true, thousands),
			col("femalePopulation", "Female Population", true, thousands),
			col("householdCount", "Households", true, thousands),
			col("averageHouseholdSize", "Avg. Household Size", true, nil),
			col("populationDensity", "Density (per km²)", true, thousands),
			col("year", "Year", true, nil),
		},
		Search:            table.ParsePath("county"),
		SearchPlaceholder: "Search by county name...",
		InitialSort:       table.ParsePath("totalPopulation"),
		InitialDirection:  table.Desc,
	}
}

func gdpSchema([]table.Row) table.Schema {
	return table.Schema{
		Columns: []table.Column{
			col("county", "County", true, nil),
			col("gdpMillionsKsh", "GDP (Millions KSh)", true, thousands),
			col("gdpPerCapitaKsh", "GDP per Capita (KSh)", true, optionalThousands),
			col("year", "Year", true, nil),
		},
		Search:            table.ParsePath("county"),
		SearchPlaceholder: "Search by county name...",
		InitialSort:       table.ParsePath("gdpMillionsKsh"),
		InitialDirection:  table.Desc,
	}
}

func leaderboardSchema(rows []table.Row) table.Schema {
	return table.Schema{
		Columns: []table.Column{
			col("rank", "Rank", true, rank),
			col("name", "Name", true, nil),
			col("position", "Position", true, nil),
			col("county", "County", true, nil),
			col("party", "Party", true, nil),
			col("overallScore", "Overall Score", true, score),
			col("performanceScore", "Performance", true, score),
			col("integrityScore", "Integrity", true, score),
			col("publicSentimentScore", "Public Sentiment", true, score),
		},
		Search:            table.ParsePath("name"),
		SearchPlaceholder: "Search by name...",
		Filters: []table.FilterOption{
			{Label: "Position", Path: table.ParsePath("position"), Options: OptionsFrom(rows, "position")},
			{Label: "County", Path: table.ParsePath("county"), Options: OptionsFrom(rows, "county")},
		},
		InitialSort:      table.ParsePath("rank"),
		InitialDirection: table.Asc,
	}
}

func loadRepresentatives(ctx context.Context, st *store.Store) ([]table.Row, error) {
	reps, err := st.ListRepresentatives(ctx)
	if err != nil {
		return nil, err
	}
	return civic.ToRows(reps)
}

func loadCensus(ctx context.Context, st *store.Store) ([]table.Row, error) {
	census, err := st.ListCensus(ctx)
	if err != nil {
		return nil, err
	}
	return civic.ToRows(census)
}

func loadGDP(ctx context.Context, st *store.Store) ([]table.Row, error) {
	gdp, err := st.ListGDP(ctx)
	if err != nil {
		return nil, err
	}
	return civic.ToRows(gdp)
}

func loadLeaderboard(ctx context.Context, st *store.Store) ([]table.Row, error) {
	board, err := st.Leaderboard(ctx)
	if err != nil {
		return nil, err
	}
	return civic.ToRows(board)
}

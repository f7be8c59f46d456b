package table

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core), logs
}

func TestHeaderLabelIndicators(t *testing.T) {
	v := NewView(peopleSchema(), nil, nil)
	name, _ := v.Schema().Column(ParsePath("name"))
	county, _ := v.Schema().Column(ParsePath("county"))

	assert.Equal(t, "Name", v.HeaderLabel(name))

	v.RequestSort("name")
	assert.Equal(t, "Name ▲", v.HeaderLabel(name))
	assert.Equal(t, "County", v.HeaderLabel(county))

	v.RequestSort("name")
	assert.Equal(t, "Name ▼", v.HeaderLabel(name))

	v.RequestSort("county")
	assert.Equal(t, "Name", v.HeaderLabel(name))
	assert.Equal(t, "County ▲", v.HeaderLabel(county))
}

func TestHeaderFuncOverridesHeader(t *testing.T) {
	col := Column{
		Path:       ParsePath("gdp"),
		Header:     "GDP",
		HeaderFunc: func(c Column) string { return strings.ToUpper(c.Path.String()) + " (KSh M)" },
	}
	assert.Equal(t, "GDP (KSh M)", col.Title())
	assert.Equal(t, "plain", Column{Path: ParsePath("plain")}.Title())
}

func TestViewRequestSortIgnoresNonSortable(t *testing.T) {
	logger, logs := observed()
	v := NewView(peopleSchema(), nil, logger)

	v.RequestSort("party")
	assert.True(t, v.State().SortKey.IsZero())
	assert.Equal(t, 1, logs.FilterMessage("ignoring sort request on non-sortable column").Len())
}

func TestRenderCellDefaultsToString(t *testing.T) {
	v := NewView(peopleSchema(), nil, nil)
	col, _ := v.Schema().Column(ParsePath("v"))

	assert.Equal(t, "12.5", v.RenderCell(col, Row{"v": 12.5}))
	assert.Equal(t, "", v.RenderCell(col, Row{}))
}

func TestRenderCellUsesRenderer(t *testing.T) {
	col := Column{
		Path: ParsePath("gdpPerCapita"),
		Render: func(_ Row, v Value) string {
			if v.IsAbsent() {
				return "N/A"
			}
			return "KSh " + v.String()
		},
	}
	v := NewView(Schema{Columns: []Column{col}}, nil, nil)

	assert.Equal(t, "KSh 100", v.RenderCell(col, Row{"gdpPerCapita": 100}))
	assert.Equal(t, "N/A", v.RenderCell(col, Row{}))
}

func TestRenderCellRecoversFromPanic(t *testing.T) {
	logger, logs := observed()
	col := Column{
		Path:   ParsePath("name"),
		Render: func(Row, Value) string { panic("boom") },
	}
	v := NewView(Schema{Columns: []Column{col, {Path: ParsePath("county")}}}, []Row{
		{"name": "Ali", "county": "Nairobi"},
	}, logger)

	g := v.Render()
	require.Len(t, g.Rows, 1)
	assert.Equal(t, []string{"Ali", "Nairobi"}, g.Rows[0])
	assert.Equal(t, 1, logs.FilterMessage("cell renderer failed").Len())
}

func TestRenderGrid(t *testing.T) {
	rows := []Row{
		{"name": "Zed", "county": "Kisumu", "v": 2},
		{"name": "Ali", "county": "Nairobi", "v": 1},
	}
	v := NewView(peopleSchema(), rows, nil)
	v.RequestSort("v")

	g := v.Render()
	assert.False(t, g.Empty)
	assert.Equal(t, []string{"Name", "County", "Party", "V ▲"}, g.Headers)
	assert.Equal(t, [][]string{
		{"Ali", "Nairobi", "", "1"},
		{"Zed", "Kisumu", "", "2"},
	}, g.Rows)
	assert.Len(t, g.Projection, 2)

	v.SetSearchTerm("nobody")
	g = v.Render()
	assert.True(t, g.Empty)
	assert.Equal(t, EmptyMessage, g.EmptyMessage)
	assert.Nil(t, g.Rows)
}

func TestSetRowsKeepsState(t *testing.T) {
	v := NewView(peopleSchema(), []Row{{"name": "a", "county": "X"}}, nil)
	v.SetFilter("county", "Y")
	assert.Empty(t, v.Projection())

	v.SetRows([]Row{{"name": "b", "county": "Y"}})
	assert.Equal(t, "Y", v.State().Filter("county"))
	assert.Len(t, v.Projection(), 1)
}

func TestMalformedPathWarnsOnce(t *testing.T) {
	logger, logs := observed()
	bad := ParsePath("contact..email")
	schema := Schema{
		Columns: []Column{{Path: bad}},
		Search:  bad,
		Filters: []FilterOption{{Label: "Email", Path: bad}},
	}
	v := NewView(schema, []Row{{"contact": Row{"email": "x"}}}, logger)

	assert.Equal(t, 1, logs.FilterMessage("malformed field path resolves to absent").Len())
	assert.Equal(t, "", v.RenderCell(schema.Columns[0], v.Rows()[0]))
}

func TestFilterOptionHelpers(t *testing.T) {
	f := FilterOption{Label: "Position", Path: ParsePath("position")}
	assert.Equal(t, "All position", f.AllLabel())

	rows := []Row{
		{"position": "MP"},
		{"position": "Governor"},
		{"position": "MP"},
		{},
		{"position": ""},
	}
	assert.Equal(t, []Option{
		{Value: "Governor", Label: "Governor"},
		{Value: "MP", Label: "MP"},
	}, DistinctOptions(rows, f.Path))

	assert.Equal(t, []Option{{Value: "2022", Label: "2022"}}, StaticOptions("2022"))
}

func TestSetSchemaKeepsState(t *testing.T) {
	v := NewView(peopleSchema(), []Row{{"name": "a", "county": "X"}}, nil)
	v.SetSearchTerm("a")
	v.RequestSort("county")

	next := peopleSchema()
	next.Filters[0].Options = StaticOptions("X", "Y")
	v.SetSchema(next)

	assert.Equal(t, "a", v.State().SearchTerm)
	assert.Equal(t, "county", v.State().SortKey.String())
	assert.Equal(t, StaticOptions("X", "Y"), v.Schema().Filters[0].Options)
}

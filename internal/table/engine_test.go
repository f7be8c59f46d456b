package table

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func peopleSchema() Schema {
	return Schema{
		Columns: []Column{
			{Path: ParsePath("name"), Header: "Name", Sortable: true},
			{Path: ParsePath("county"), Header: "County", Sortable: true},
			{Path: ParsePath("party"), Header: "Party"},
			{Path: ParsePath("v"), Header: "V", Sortable: true},
		},
		Search: ParsePath("name"),
		Filters: []FilterOption{
			{Label: "County", Path: ParsePath("county")},
			{Label: "Party", Path: ParsePath("party")},
		},
	}
}

func names(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i], _ = r["name"].(string)
	}
	return out
}

func TestScenarioSearch(t *testing.T) {
	rows := []Row{{"name": "Ali", "county": "Nairobi"}, {"name": "Zed", "county": "Kisumu"}}
	state := NewState(peopleSchema()).WithSearchTerm("a")

	got := Derive(rows, peopleSchema(), state)
	assert.Equal(t, []string{"Ali"}, names(got))
}

func TestScenarioFilter(t *testing.T) {
	rows := []Row{{"name": "Ali", "county": "Nairobi"}, {"name": "Zed", "county": "Kisumu"}}
	state := NewState(peopleSchema()).WithFilter("county", "Kisumu")

	got := Derive(rows, peopleSchema(), state)
	assert.Equal(t, []string{"Zed"}, names(got))
}

func TestScenarioStableAscendingSort(t *testing.T) {
	rows := []Row{{"name": "three", "v": 3}, {"name": "first-one", "v": 1}, {"name": "second-one", "v": 1}}
	schema := peopleSchema()
	state := NewState(schema).RequestSort(schema, ParsePath("v"))

	got := Derive(rows, schema, state)
	assert.Equal(t, []string{"first-one", "second-one", "three"}, names(got))
}

func TestSortWithNaNKeepsOrder(t *testing.T) {
	rows := []Row{
		{"name": "a", "v": 3},
		{"name": "b", "v": math.NaN()},
		{"name": "c", "v": 1},
		{"name": "d", "v": 2},
		{"name": "e"},
	}
	schema := peopleSchema()
	state := NewState(schema).RequestSort(schema, ParsePath("v"))

	assert.Equal(t, []string{"e", "b", "c", "d", "a"}, names(Derive(rows, schema, state)))
}

func TestScenarioToggleDirection(t *testing.T) {
	rows := []Row{{"name": "one", "v": 1}, {"name": "two", "v": 2}}
	schema := peopleSchema()

	state := NewState(schema).RequestSort(schema, ParsePath("v"))
	assert.Equal(t, Asc, state.SortDir)
	assert.Equal(t, []string{"one", "two"}, names(Derive(rows, schema, state)))

	state = state.RequestSort(schema, ParsePath("v"))
	assert.Equal(t, Desc, state.SortDir)
	assert.Equal(t, []string{"two", "one"}, names(Derive(rows, schema, state)))

	state = state.RequestSort(schema, ParsePath("v"))
	assert.Equal(t, Asc, state.SortDir)
}

func TestScenarioEmpty(t *testing.T) {
	v := NewView(peopleSchema(), []Row{}, nil)
	assert.Empty(t, v.Projection())

	g := v.Render()
	assert.True(t, g.Empty)
	assert.Empty(t, g.Rows)
	assert.Equal(t, "No results found.", g.EmptyMessage)
	assert.Len(t, g.Headers, 4)
}

func TestNilRowsRenderNoResults(t *testing.T) {
	v := NewView(peopleSchema(), nil, nil)
	assert.NotNil(t, v.Projection())
	assert.True(t, v.Render().Empty)
}

func TestProjectionIsIdempotent(t *testing.T) {
	rows := []Row{
		{"name": "Cara", "county": "Nairobi", "v": 2},
		{"name": "Abel", "county": "Mombasa", "v": 1},
		{"name": "Bea", "county": "Nairobi", "v": 2},
	}
	v := NewView(peopleSchema(), rows, nil)
	v.RequestSort("v")
	v.SetFilter("county", "nairobi")

	first := v.Projection()
	second := v.Projection()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("projection changed between calls (-first +second):\n%s", diff)
	}
	// Fresh slice each call.
	first[0] = Row{"name": "mutated"}
	assert.Equal(t, "Cara", second[0]["name"])
}

func TestDeriveDoesNotMutateInput(t *testing.T) {
	rows := []Row{{"name": "b", "v": 2}, {"name": "a", "v": 1}}
	before := []Row{{"name": "b", "v": 2}, {"name": "a", "v": 1}}
	schema := peopleSchema()
	state := NewState(schema).RequestSort(schema, ParsePath("v")).WithSearchTerm("a")

	_ = Derive(rows, schema, state)
	if diff := cmp.Diff(before, rows); diff != "" {
		t.Fatalf("input rows mutated (-want +got):\n%s", diff)
	}
}

func TestFiltersCommute(t *testing.T) {
	rows := []Row{
		{"name": "a", "county": "Nairobi", "party": "Unity"},
		{"name": "b", "county": "Nairobi", "party": "Progress"},
		{"name": "c", "county": "Kisumu", "party": "Unity"},
		{"name": "d", "county": "NAIROBI", "party": "unity"},
	}
	schema := peopleSchema()

	ab := NewState(schema).WithFilter("county", "Nairobi").WithFilter("party", "Unity")
	ba := NewState(schema).WithFilter("party", "Unity").WithFilter("county", "Nairobi")

	got1 := Derive(rows, schema, ab)
	got2 := Derive(rows, schema, ba)
	assert.Equal(t, []string{"a", "d"}, names(got1))
	if diff := cmp.Diff(got1, got2); diff != "" {
		t.Fatalf("filter order changed the result:\n%s", diff)
	}
}

func TestAllSentinelClearsFilter(t *testing.T) {
	rows := []Row{{"name": "a", "county": "Nairobi"}, {"name": "b", "county": "Kisumu"}}
	schema := peopleSchema()

	state := NewState(schema).WithFilter("county", "Kisumu")
	assert.Equal(t, "Kisumu", state.Filter("county"))

	state = state.WithFilter("county", AllSentinel)
	assert.Equal(t, AllSentinel, state.Filter("county"))
	assert.Equal(t, []string{"a", "b"}, names(Derive(rows, schema, state)))
}

func TestSortStableInBothDirections(t *testing.T) {
	rows := []Row{
		{"name": "x1", "v": 5},
		{"name": "y1", "v": 3},
		{"name": "x2", "v": 5},
		{"name": "y2", "v": 3},
		{"name": "z", "v": 9},
		{"name": "x3", "v": 5},
	}
	schema := peopleSchema()
	asc := NewState(schema).RequestSort(schema, ParsePath("v"))
	desc := asc.RequestSort(schema, ParsePath("v"))

	assert.Equal(t, []string{"y1", "y2", "x1", "x2", "x3", "z"}, names(Derive(rows, schema, asc)))
	// Desc negates the comparison: groups swap, tie order does not.
	assert.Equal(t, []string{"z", "x1", "x2", "x3", "y1", "y2"}, names(Derive(rows, schema, desc)))
}

func TestDirectionSymmetry(t *testing.T) {
	rows := []Row{
		{"name": "b", "v": 2},
		{"name": "a1", "v": 1},
		{"name": "c", "v": 3},
		{"name": "a2", "v": 1},
	}
	schema := peopleSchema()
	asc := Derive(rows, schema, NewState(schema).RequestSort(schema, ParsePath("v")))
	desc := Derive(rows, schema, NewState(schema).RequestSort(schema, ParsePath("v")).RequestSort(schema, ParsePath("v")))

	pos := func(rs []Row) map[string]int {
		m := map[string]int{}
		for i, r := range rs {
			m[r["name"].(string)] = i
		}
		return m
	}
	pa, pd := pos(asc), pos(desc)
	for _, x := range rows {
		for _, y := range rows {
			nx, ny := x["name"].(string), y["name"].(string)
			if nx == ny {
				continue
			}
			c := Compare(ValueOf(x["v"]), ValueOf(y["v"]))
			switch {
			case c == 0:
				assert.Equal(t, pa[nx] < pa[ny], pd[nx] < pd[ny], "tied %s/%s keep relative order", nx, ny)
			default:
				assert.NotEqual(t, pa[nx] < pa[ny], pd[nx] < pd[ny], "non-tied %s/%s swap", nx, ny)
			}
		}
	}
}

func TestSearchContainment(t *testing.T) {
	rows := []Row{
		{"name": "Mary Wambui"},
		{"name": "ALI OMAR"},
		{"name": "Jane Smith"},
		{"county": "no name"},
		{"name": 42},
	}
	schema := peopleSchema()
	for _, term := range []string{"a", "AM", "smith", "4", "zzz"} {
		got := Derive(rows, schema, NewState(schema).WithSearchTerm(term))
		kept := map[int]bool{}
		for _, r := range got {
			v := schema.Search.Resolve(r)
			require.False(t, v.IsAbsent())
			assert.Contains(t, strings.ToLower(v.String()), strings.ToLower(term))
		}
		for i, r := range rows {
			for _, g := range got {
				if cmp.Equal(r, g) {
					kept[i] = true
				}
			}
			v := schema.Search.Resolve(r)
			if !v.IsAbsent() && strings.Contains(strings.ToLower(v.String()), strings.ToLower(term)) {
				assert.True(t, kept[i], "row %d should match %q", i, term)
			}
		}
	}
}

func TestEmptySearchTermKeepsAll(t *testing.T) {
	rows := []Row{{"name": "a"}, {"county": "x"}}
	got := Derive(rows, peopleSchema(), NewState(peopleSchema()).WithSearchTerm(""))
	assert.Len(t, got, 2)
}

func TestSearchWithoutSearchFieldIsIgnored(t *testing.T) {
	schema := peopleSchema()
	schema.Search = FieldPath{}
	rows := []Row{{"name": "a"}, {"name": "b"}}
	assert.Len(t, Derive(rows, schema, NewState(schema).WithSearchTerm("zzz")), 2)
}

func TestAbsentNeverMatchesAndSortsLowest(t *testing.T) {
	rows := []Row{
		{"name": "has", "county": "Nairobi", "v": 1},
		{"name": "missing"},
	}
	schema := peopleSchema()

	filtered := Derive(rows, schema, NewState(schema).WithFilter("county", "Nairobi"))
	assert.Equal(t, []string{"has"}, names(filtered))

	asc := Derive(rows, schema, NewState(schema).RequestSort(schema, ParsePath("v")))
	assert.Equal(t, []string{"missing", "has"}, names(asc))

	desc := Derive(rows, schema, NewState(schema).RequestSort(schema, ParsePath("v")).RequestSort(schema, ParsePath("v")))
	assert.Equal(t, []string{"has", "missing"}, names(desc))
}

func TestRequestSortNonSortableIsNoop(t *testing.T) {
	schema := peopleSchema()
	state := NewState(schema).RequestSort(schema, ParsePath("name"))

	next := state.RequestSort(schema, ParsePath("party"))
	assert.Equal(t, state, next)

	unknown := state.RequestSort(schema, ParsePath("nope"))
	assert.Equal(t, state, unknown)
}

func TestRequestSortNewKeyResetsToAsc(t *testing.T) {
	schema := peopleSchema()
	state := NewState(schema).RequestSort(schema, ParsePath("name")).RequestSort(schema, ParsePath("name"))
	require.Equal(t, Desc, state.SortDir)

	state = state.RequestSort(schema, ParsePath("county"))
	assert.Equal(t, "county", state.SortKey.String())
	assert.Equal(t, Asc, state.SortDir)
}

func TestInitialSortFromSchema(t *testing.T) {
	schema := peopleSchema()
	schema.InitialSort = ParsePath("v")
	schema.InitialDirection = Desc
	rows := []Row{{"name": "a", "v": 1}, {"name": "b", "v": 3}, {"name": "c", "v": 2}}

	assert.Equal(t, []string{"b", "c", "a"}, names(NewView(schema, rows, nil).Projection()))
}

func TestStateMethodsDoNotShareFilters(t *testing.T) {
	base := State{}.WithFilter("county", "Nairobi")
	derived := base.WithFilter("party", "Unity")

	assert.Len(t, base.Filters, 1)
	assert.Len(t, derived.Filters, 2)

	cleared := derived.WithFilter("county", "")
	assert.Equal(t, "Nairobi", derived.Filter("county"))
	assert.Equal(t, AllSentinel, cleared.Filter("county"))
}

func TestParseDirection(t *testing.T) {
	assert.Equal(t, Desc, ParseDirection("DESC"))
	assert.Equal(t, Asc, ParseDirection("asc"))
	assert.Equal(t, Asc, ParseDirection("sideways"))
	assert.Equal(t, "desc", Desc.String())
}

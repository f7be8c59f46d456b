package table

import "strings"

// AllSentinel clears a categorical filter.
const AllSentinel = "all"

// Direction is the sort direction.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// ParseDirection accepts "asc"/"desc" in any case; anything else is Asc.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), "desc") {
		return Desc
	}
	return Asc
}

// State is the interactive state of a view. Methods return new values and
// never modify the receiver.
type State struct {
	SearchTerm string
	Filters    map[string]string
	SortKey    FieldPath
	SortDir    Direction
}

// NewState returns the initial state for schema: no search, no filters and
// the schema's initial sort.
func NewState(schema Schema) State {
	return State{
		SortKey: schema.InitialSort,
		SortDir: schema.InitialDirection,
	}
}

// WithSearchTerm replaces the search term. "" removes the constraint.
func (s State) WithSearchTerm(term string) State {
	s.Filters = s.cloneFilters()
	s.SearchTerm = term
	return s
}

// WithFilter sets one filter. AllSentinel or "" clears it.
func (s State) WithFilter(path, value string) State {
	filters := s.cloneFilters()
	if value == "" || value == AllSentinel {
		delete(filters, path)
	} else {
		if filters == nil {
			filters = make(map[string]string)
		}
		filters[path] = value
	}
	s.Filters = filters
	return s
}

// Filter returns the selected value for path, or AllSentinel.
func (s State) Filter(path string) string {
	if v, ok := s.Filters[path]; ok {
		return v
	}
	return AllSentinel
}

// RequestSort toggles the direction when path is already the sort key and
// otherwise sorts ascending by path. Paths that are not sortable columns of
// schema leave the state unchanged.
func (s State) RequestSort(schema Schema, path FieldPath) State {
	if !schema.Sortable(path) {
		return s
	}
	s.Filters = s.cloneFilters()
	if s.SortKey.Equal(path) {
		if s.SortDir == Asc {
			s.SortDir = Desc
		} else {
			s.SortDir = Asc
		}
		return s
	}
	s.SortKey = path
	s.SortDir = Asc
	return s
}

func (s State) cloneFilters() map[string]string {
	if s.Filters == nil {
		return nil
	}
	out := make(map[string]string, len(s.Filters))
	for k, v := range s.Filters {
		out[k] = v
	}
	return out
}


package table

import "strings"

// CellRenderer formats one cell. value is the resolved value of the
// column's path for row.
type CellRenderer func(row Row, value Value) string

// Column describes one displayed column.
type Column struct {
	Path       FieldPath
	Header     string
	HeaderFunc func(Column) string
	Sortable   bool
	Render     CellRenderer
}

// Title returns the header text without any sort indicator.
func (c Column) Title() string {
	if c.HeaderFunc != nil {
		return c.HeaderFunc(c)
	}
	if c.Header != "" {
		return c.Header
	}
	return c.Path.String()
}

// Option is one selectable value of a FilterOption.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FilterOption is an independently controlled categorical filter.
type FilterOption struct {
	Label   string
	Path    FieldPath
	Options []Option
}

// AllLabel is the label of the unset state, e.g. "All position".
func (f FilterOption) AllLabel() string {
	return "All " + strings.ToLower(f.Label)
}

// Schema is the static configuration of a view.
type Schema struct {
	Columns           []Column
	Search            FieldPath
	SearchPlaceholder string
	Filters           []FilterOption
	InitialSort       FieldPath
	InitialDirection  Direction
}

// Column returns the column addressed by path.
func (s Schema) Column(path FieldPath) (Column, bool) {
	for _, c := range s.Columns {
		if c.Path.Equal(path) {
			return c, true
		}
	}
	return Column{}, false
}

// Sortable reports whether path names a sortable column.
func (s Schema) Sortable(path FieldPath) bool {
	c, ok := s.Column(path)
	return ok && c.Sortable
}

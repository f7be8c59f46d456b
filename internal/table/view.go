package table

import (
	"fmt"

	"go.uber.org/zap"
)

// EmptyMessage is shown in place of rows when a projection is empty.
const EmptyMessage = "No results found."

// Sort indicators appended to the header of the sort column.
const (
	AscIndicator  = "▲"
	DescIndicator = "▼"
)

// Grid is a rendered view: header labels and the cell text of every row.
type Grid struct {
	Headers      []string
	Rows         [][]string
	Projection   []Row
	Empty        bool
	EmptyMessage string
}

// View owns the state of one table for the lifetime of a screen. It is not
// safe for concurrent use; callers drive it from a single UI goroutine.
type View struct {
	schema Schema
	rows   []Row
	state  State
	logger *zap.Logger

	warned map[string]bool
}

// NewView creates a view over rows. A nil logger discards diagnostics.
func NewView(schema Schema, rows []Row, logger *zap.Logger) *View {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := &View{
		schema: schema,
		rows:   rows,
		state:  NewState(schema),
		logger: logger,
		warned: make(map[string]bool),
	}
	v.checkPaths()
	return v
}

// Schema returns the view's schema.
func (v *View) Schema() Schema { return v.schema }

// State returns the current state.
func (v *View) State() State { return v.state }

// SetState replaces the whole state.
func (v *View) SetState(s State) { v.state = s }

// Rows returns the input rows.
func (v *View) Rows() []Row { return v.rows }

// SetRows replaces the input rows and keeps the current state.
func (v *View) SetRows(rows []Row) { v.rows = rows }

// SetSchema replaces the schema, e.g. after filter options were rebuilt,
// and keeps the current state.
func (v *View) SetSchema(schema Schema) {
	v.schema = schema
	v.checkPaths()
}

// SetSearchTerm replaces the search term.
func (v *View) SetSearchTerm(term string) { v.state = v.state.WithSearchTerm(term) }

// SetFilter sets or clears (AllSentinel) one categorical filter.
func (v *View) SetFilter(path, value string) { v.state = v.state.WithFilter(path, value) }

// RequestSort toggles or moves the sort key. Non-sortable paths are ignored.
func (v *View) RequestSort(path string) {
	p := ParsePath(path)
	if !v.schema.Sortable(p) {
		v.logger.Debug("ignoring sort request on non-sortable column", zap.String("path", path))
		return
	}
	v.state = v.state.RequestSort(v.schema, p)
}

// Projection derives the rows eligible for display.
func (v *View) Projection() []Row {
	return Derive(v.rows, v.schema, v.state)
}

// HeaderLabel returns the column title plus a sort indicator when col is
// the current sort key.
func (v *View) HeaderLabel(col Column) string {
	title := col.Title()
	if !v.state.SortKey.IsZero() && v.state.SortKey.Equal(col.Path) {
		if v.state.SortDir == Desc {
			return title + " " + DescIndicator
		}
		return title + " " + AscIndicator
	}
	return title
}

// RenderCell formats the value of col for row. Custom renderers win; a
// panicking renderer falls back to the plain string form for that cell.
func (v *View) RenderCell(col Column, row Row) (out string) {
	value := col.Path.Resolve(row)
	if col.Render == nil {
		return value.String()
	}
	defer func() {
		if r := recover(); r != nil {
			v.logger.Warn("cell renderer failed",
				zap.String("column", col.Path.String()),
				zap.String("panic", fmt.Sprint(r)))
			out = value.String()
		}
	}()
	return col.Render(row, value)
}

// Render derives the projection and formats every cell.
func (v *View) Render() Grid {
	g := Grid{Headers: make([]string, len(v.schema.Columns))}
	for i, c := range v.schema.Columns {
		g.Headers[i] = v.HeaderLabel(c)
	}

	g.Projection = v.Projection()
	if len(g.Projection) == 0 {
		g.Empty = true
		g.EmptyMessage = EmptyMessage
		return g
	}

	g.Rows = make([][]string, len(g.Projection))
	for i, row := range g.Projection {
		cells := make([]string, len(v.schema.Columns))
		for j, c := range v.schema.Columns {
			cells[j] = v.RenderCell(c, row)
		}
		g.Rows[i] = cells
	}
	return g
}

func (v *View) checkPaths() {
	check := func(p FieldPath) {
		if p.IsZero() || p.Valid() || v.warned[p.String()] {
			return
		}
		v.warned[p.String()] = true
		v.logger.Warn("malformed field path resolves to absent", zap.String("path", p.String()))
	}
	for _, c := range v.schema.Columns {
		check(c.Path)
	}
	for _, f := range v.schema.Filters {
		check(f.Path)
	}
	check(v.schema.Search)
	check(v.schema.InitialSort)
}

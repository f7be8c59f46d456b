package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/Devcode940/kenyawatch/internal/datasets"
	"github.com/Devcode940/kenyawatch/internal/table"
)

// TableView draws a table.View: a search input and filter bar above a
// tview.Table with a bold header row.
type TableView struct {
	dataset datasets.Dataset
	view    *table.View
	theme   Theme

	root    *tview.Flex
	search  *tview.InputField
	filters *tview.TextView
	table   *tview.Table

	grid         table.Grid
	filterCursor int

	// header cursor while choosing a sort column
	sortMode   bool
	sortCursor int
}

func newTableView(ds datasets.Dataset, v *table.View, theme Theme) *TableView {
	tv := &TableView{dataset: ds, view: v, theme: theme}

	tv.search = tview.NewInputField().SetLabel(" / ")
	if ph := v.Schema().SearchPlaceholder; ph != "" {
		tv.search.SetPlaceholder(ph)
	}
	tv.search.SetChangedFunc(func(text string) {
		tv.view.SetSearchTerm(text)
		tv.Refresh()
	})

	tv.filters = tview.NewTextView().SetDynamicColors(true)

	tv.table = tview.NewTable()
	tv.table.SetBorder(true)
	tv.table.SetTitle(" " + ds.Title + " ")
	tv.table.SetTitleAlign(tview.AlignLeft)
	tv.table.SetSelectable(true, false)
	// Pin header row so it stays visible when scrolling.
	tv.table.SetFixed(1, 0)

	top := tview.NewFlex().
		AddItem(tv.search, 0, 1, false).
		AddItem(tv.filters, 0, 2, false)
	tv.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(top, 1, 0, false).
		AddItem(tv.table, 0, 1, true)

	tv.SetTheme(theme)
	return tv
}

// Name is the dataset name of the view.
func (tv *TableView) Name() string { return tv.dataset.Name }

// SetTheme recolors the widgets and redraws the rows.
func (tv *TableView) SetTheme(theme Theme) {
	tv.theme = theme
	tv.search.SetFieldBackgroundColor(theme.SelectionBg)
	tv.search.SetFieldTextColor(theme.TextPrimary)
	tv.search.SetLabelColor(theme.TextMuted)
	tv.search.SetPlaceholderTextColor(theme.TextMuted)
	tv.search.SetBackgroundColor(theme.Surface)
	tv.filters.SetBackgroundColor(theme.Surface)
	tv.filters.SetTextColor(theme.TextPrimary)
	tv.table.SetBackgroundColor(theme.Surface)
	tv.table.SetBorderColor(theme.Border)
	tv.table.SetSelectedStyle(tcell.StyleDefault.Background(theme.SelectionBg).Foreground(theme.SelectionFg))
	tv.Refresh()
}

// Refresh re-derives the grid and redraws the table, keeping the selected
// row index where possible.
func (tv *TableView) Refresh() {
	tv.grid = tv.view.Render()
	selected, _ := tv.table.GetSelection()

	tv.table.Clear()
	for c, h := range tv.grid.Headers {
		attrs := tcell.AttrBold
		if tv.sortMode && c == tv.sortCursor {
			attrs |= tcell.AttrReverse
		}
		tv.table.SetCell(0, c, tview.NewTableCell(h).
			SetTextColor(tv.theme.TableHeader).
			SetBackgroundColor(tv.theme.TableHeaderBg).
			SetAttributes(attrs).
			SetSelectable(false).
			SetExpansion(1))
	}

	if tv.grid.Empty {
		tv.table.SetCell(1, 0, tview.NewTableCell(tv.grid.EmptyMessage).
			SetTextColor(tv.theme.TableRowMuted).
			SetSelectable(false))
		tv.renderFilters()
		return
	}

	for r, cells := range tv.grid.Rows {
		bg := tv.theme.TableZebra1
		if r%2 == 1 {
			bg = tv.theme.TableZebra2
		}
		for c, text := range cells {
			tv.table.SetCell(r+1, c, tview.NewTableCell(tview.Escape(text)).
				SetTextColor(tv.theme.TableRow).
				SetBackgroundColor(bg).
				SetExpansion(1))
		}
	}

	if selected < 1 {
		selected = 1
	}
	if selected > len(tv.grid.Rows) {
		selected = len(tv.grid.Rows)
	}
	tv.table.Select(selected, 0)
	tv.renderFilters()
}

// Grid returns the last rendered grid.
func (tv *TableView) Grid() table.Grid { return tv.grid }

// Selected returns the row under the cursor.
func (tv *TableView) Selected() (table.Row, bool) {
	if tv.grid.Empty {
		return nil, false
	}
	row, _ := tv.table.GetSelection()
	if row < 1 || row > len(tv.grid.Projection) {
		return nil, false
	}
	return tv.grid.Projection[row-1], true
}

// SetSearch replaces the search text.
func (tv *TableView) SetSearch(text string) {
	tv.search.SetText(text)
	tv.view.SetSearchTerm(text)
	tv.Refresh()
}

// NextFilter moves the filter cursor to the next categorical filter.
func (tv *TableView) NextFilter() (string, bool) {
	filters := tv.view.Schema().Filters
	if len(filters) == 0 {
		return "", false
	}
	tv.filterCursor = (tv.filterCursor + 1) % len(filters)
	tv.renderFilters()
	return tv.filterLabel(tv.filterCursor), true
}

// CycleFilter advances the focused filter to its next option, wrapping
// through the unset state.
func (tv *TableView) CycleFilter() (string, bool) {
	filters := tv.view.Schema().Filters
	if len(filters) == 0 {
		return "", false
	}
	i := tv.filterCursor % len(filters)
	f := filters[i]

	values := make([]string, 0, len(f.Options)+1)
	values = append(values, table.AllSentinel)
	for _, o := range f.Options {
		values = append(values, o.Value)
	}
	current := tv.view.State().Filter(f.Path.String())
	next := values[0]
	for j, v := range values {
		if strings.EqualFold(v, current) {
			next = values[(j+1)%len(values)]
			break
		}
	}

	tv.view.SetFilter(f.Path.String(), next)
	tv.Refresh()
	return tv.filterLabel(i), true
}

func (tv *TableView) filterLabel(i int) string {
	f := tv.view.Schema().Filters[i]
	value := tv.view.State().Filter(f.Path.String())
	if value == "" || value == table.AllSentinel {
		return f.AllLabel()
	}
	for _, o := range f.Options {
		if o.Value == value {
			return f.Label + ": " + o.Label
		}
	}
	return f.Label + ": " + value
}

func (tv *TableView) renderFilters() {
	filters := tv.view.Schema().Filters
	parts := make([]string, len(filters))
	for i := range filters {
		label := tview.Escape(tv.filterLabel(i))
		if i == tv.filterCursor%len(filters) {
			parts[i] = fmt.Sprintf("[%s::b]%s[-::-]", tv.theme.TagAccent, label)
		} else {
			parts[i] = fmt.Sprintf("[%s]%s[-]", tv.theme.TagMuted, label)
		}
	}
	tv.filters.SetText(" " + strings.Join(parts, "  "))
}

// SortBy requests a sort on the column at index i. Non-sortable columns are
// ignored.
func (tv *TableView) SortBy(i int) bool {
	cols := tv.view.Schema().Columns
	if i < 0 || i >= len(cols) || !cols[i].Sortable {
		return false
	}
	tv.view.RequestSort(cols[i].Path.String())
	tv.sortMode = false
	tv.Refresh()
	return true
}

// BeginSort shows the header cursor, starting on the current sort column.
func (tv *TableView) BeginSort() {
	tv.sortMode = true
	tv.sortCursor = 0
	key := tv.view.State().SortKey
	for i, c := range tv.view.Schema().Columns {
		if c.Path.Equal(key) {
			tv.sortCursor = i
		}
	}
	tv.Refresh()
}

// Sorting reports whether the header cursor is shown.
func (tv *TableView) Sorting() bool { return tv.sortMode }

// MoveSortCursor moves the header cursor by delta columns, wrapping.
func (tv *TableView) MoveSortCursor(delta int) {
	n := len(tv.view.Schema().Columns)
	if n == 0 {
		return
	}
	tv.sortCursor = ((tv.sortCursor+delta)%n + n) % n
	tv.Refresh()
}

// CommitSort sorts by the column under the header cursor.
func (tv *TableView) CommitSort() bool {
	ok := tv.SortBy(tv.sortCursor)
	tv.CancelSort()
	return ok
}

// CancelSort hides the header cursor.
func (tv *TableView) CancelSort() {
	if !tv.sortMode {
		return
	}
	tv.sortMode = false
	tv.Refresh()
}

// Primitive returns the root widget.
func (tv *TableView) Primitive() tview.Primitive { return tv.root }

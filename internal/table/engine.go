// Package table derives filtered, sorted projections of in-memory rows for
// tabular views and dispatches per-cell rendering.
package table

import (
	"sort"
	"strings"
)

// Derive applies search, then every active filter, then a stable sort to
// rows. The input slice and its rows are never modified; a new slice is
// returned on every call.
func Derive(rows []Row, schema Schema, state State) []Row {
	out := make([]Row, 0, len(rows))

	term := strings.ToLower(state.SearchTerm)
	searching := term != "" && !schema.Search.IsZero()

	filters := activeFilters(state)

	for _, row := range rows {
		if searching && !containsFold(schema.Search.Resolve(row), term) {
			continue
		}
		if !matchesAll(row, filters) {
			continue
		}
		out = append(out, row)
	}

	if state.SortKey.IsZero() {
		return out
	}

	// Keys are resolved once. Ties fall back to input position.
	keys := make([]Value, len(out))
	for i, row := range out {
		keys[i] = state.SortKey.Resolve(row)
	}
	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sign := 1
	if state.SortDir == Desc {
		sign = -1
	}
	sort.SliceStable(idx, func(i, j int) bool {
		c := sign * Compare(keys[idx[i]], keys[idx[j]])
		if c != 0 {
			return c < 0
		}
		return idx[i] < idx[j]
	})

	sorted := make([]Row, len(out))
	for i, k := range idx {
		sorted[i] = out[k]
	}
	return sorted
}

type filter struct {
	path  FieldPath
	value string
}

func activeFilters(state State) []filter {
	if len(state.Filters) == 0 {
		return nil
	}
	out := make([]filter, 0, len(state.Filters))
	for p, v := range state.Filters {
		if v == "" || v == AllSentinel {
			continue
		}
		out = append(out, filter{path: ParsePath(p), value: v})
	}
	return out
}

func matchesAll(row Row, filters []filter) bool {
	for _, f := range filters {
		v := f.path.Resolve(row)
		if v.IsAbsent() || !strings.EqualFold(v.String(), f.value) {
			return false
		}
	}
	return true
}

func containsFold(v Value, lowerTerm string) bool {
	if v.IsAbsent() {
		return false
	}
	return strings.Contains(strings.ToLower(v.String()), lowerTerm)
}

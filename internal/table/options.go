package table

import "sort"

// DistinctOptions lists the distinct present values of path across rows,
// sorted by display form, as filter options.
func DistinctOptions(rows []Row, path FieldPath) []Option {
	seen := make(map[string]bool)
	var out []Option
	for _, row := range rows {
		v := path.Resolve(row)
		if v.IsAbsent() {
			continue
		}
		s := v.String()
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, Option{Value: s, Label: s})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}

// StaticOptions builds options whose value and label are the same string.
func StaticOptions(values ...string) []Option {
	out := make([]Option, len(values))
	for i, v := range values {
		out[i] = Option{Value: v, Label: v}
	}
	return out
}

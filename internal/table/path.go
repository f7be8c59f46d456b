package table

import (
	"reflect"
	"strings"
)

// Row is one record handed to the engine. Nested records are nested maps.
type Row map[string]any

// FieldPath locates a value inside a Row. The zero FieldPath means "none".
type FieldPath struct {
	segments []string
	raw      string
	valid    bool
}

// ParsePath splits a dotted path such as "contactInfo.email". Paths with
// empty segments ("a..b", ".a") are kept but marked invalid; they resolve to
// Absent for every row.
func ParsePath(p string) FieldPath {
	p = strings.TrimSpace(p)
	if p == "" {
		return FieldPath{}
	}
	segs := strings.Split(p, ".")
	valid := true
	for _, s := range segs {
		if s == "" {
			valid = false
			break
		}
	}
	return FieldPath{segments: segs, raw: p, valid: valid}
}

// Path builds a FieldPath from explicit segments.
func Path(segments ...string) FieldPath {
	return ParsePath(strings.Join(segments, "."))
}

// IsZero reports whether no path is set.
func (p FieldPath) IsZero() bool { return p.raw == "" }

// Valid reports whether every segment is non-empty.
func (p FieldPath) Valid() bool { return p.valid }

// Segments returns a copy of the path segments.
func (p FieldPath) Segments() []string {
	return append([]string(nil), p.segments...)
}

// String returns the dotted form, used as the key for filters and sorting.
func (p FieldPath) String() string { return p.raw }

// Equal compares two paths by their dotted form.
func (p FieldPath) Equal(o FieldPath) bool { return p.raw == o.raw }

// Resolve walks the path through row. Any missing or non-record
// intermediate yields Absent.
func (p FieldPath) Resolve(row Row) Value {
	if !p.valid || row == nil {
		return Value{}
	}
	var cur any = map[string]any(row)
	for _, seg := range p.segments {
		next, ok := lookup(cur, seg)
		if !ok {
			return Value{}
		}
		cur = next
	}
	return ValueOf(cur)
}

func lookup(container any, key string) (any, bool) {
	switch m := container.(type) {
	case map[string]any:
		v, ok := m[key]
		return v, ok
	case Row:
		v, ok := m[key]
		return v, ok
	case map[string]string:
		v, ok := m[key]
		return v, ok
	case nil:
		return nil, false
	}

	rv := reflect.ValueOf(container)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	v := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
	if !v.IsValid() {
		return nil, false
	}
	return v.Interface(), true
}

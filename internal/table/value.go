package table

import (
	"cmp"
	"reflect"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	Absent Kind = iota
	String
	Number
	Boolean
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Number:
		return "number"
	case Boolean:
		return "boolean"
	default:
		return "absent"
	}
}

// Value is a resolved cell value. The zero Value is Absent.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
}

// Str, Num and Bool construct present values.
func Str(s string) Value { return Value{kind: String, str: s} }

func Num(n float64) Value { return Value{kind: Number, num: n} }

func Bool(b bool) Value { return Value{kind: Boolean, b: b} }

// AbsentValue returns the missing value.
func AbsentValue() Value { return Value{} }

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether the value is missing.
func (v Value) IsAbsent() bool { return v.kind == Absent }

// AsString returns the string payload and whether v is a String.
func (v Value) AsString() (string, bool) { return v.str, v.kind == String }

// AsNumber returns the numeric payload and whether v is a Number.
func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == Number }

// AsBool returns the boolean payload and whether v is a Boolean.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == Boolean }

// String returns the display form of v; Absent renders as "".
func (v Value) String() string {
	switch v.kind {
	case String:
		return v.str
	case Number:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case Boolean:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// ValueOf converts a raw row value. Scalars map onto their variant; nil,
// nil pointers and composite values (maps, slices, structs) are Absent.
func ValueOf(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return Value{}
	case Value:
		return x
	case string:
		return Str(x)
	case bool:
		return Bool(x)
	case float64:
		return Num(x)
	case int:
		return Num(float64(x))
	case int64:
		return Num(float64(x))
	}

	rv := reflect.ValueOf(raw)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return Value{}
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.String:
		return Str(rv.String())
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Num(float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Num(float64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return Num(rv.Float())
	default:
		return Value{}
	}
}

// Compare orders two values: Absent sorts below every present value,
// numbers compare numerically, strings lexicographically, false < true.
// Values of different present kinds fall back to their string forms.
func Compare(a, b Value) int {
	switch {
	case a.kind == Absent && b.kind == Absent:
		return 0
	case a.kind == Absent:
		return -1
	case b.kind == Absent:
		return 1
	}

	if a.kind != b.kind {
		return strings.Compare(a.String(), b.String())
	}

	switch a.kind {
	case Number:
		// NaN sorts below every other number.
		return cmp.Compare(a.num, b.num)
	case Boolean:
		switch {
		case a.b == b.b:
			return 0
		case !a.b:
			return -1
		}
		return 1
	default:
		return strings.Compare(a.str, b.str)
	}
}

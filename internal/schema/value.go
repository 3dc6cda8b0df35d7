package schema

import (
	"math"
	"strconv"
)

// Value is a tagged union holding one setting value
type Value struct {
	typ Type
	i   int
	b   bool
	s   string
	f   float64
}

// IntValue wraps an int
func IntValue(v int) Value { return Value{typ: Int, i: v} }

// BoolValue wraps a bool
func BoolValue(v bool) Value { return Value{typ: Bool, b: v} }

// StringValue wraps a string
func StringValue(v string) Value { return Value{typ: String, s: v} }

// FloatValue wraps a float64
func FloatValue(v float64) Value { return Value{typ: Float, f: v} }

// Type returns the tag of the union
func (v Value) Type() Type { return v.typ }

// AsInt returns the value as an int. Bools map to 0/1 and floats truncate.
func (v Value) AsInt() int {
	switch v.typ {
	case Int:
		return v.i
	case Bool:
		if v.b {
			return 1
		}
		return 0
	case Float:
		return int(v.f)
	default:
		return 0
	}
}

// AsBool returns the value as a bool. Numbers are true when non-zero.
func (v Value) AsBool() bool {
	switch v.typ {
	case Bool:
		return v.b
	case Int:
		return v.i != 0
	case Float:
		return v.f != 0
	default:
		return false
	}
}

// AsFloat returns the value as a float64, widening ints and bools
func (v Value) AsFloat() float64 {
	switch v.typ {
	case Float:
		return v.f
	case Int, Bool:
		return float64(v.AsInt())
	default:
		return 0
	}
}

// AsString returns the string payload; non-string values return their INI text
func (v Value) AsString() string {
	if v.typ == String {
		return v.s
	}
	return v.String()
}

// String formats the value the way it is written to the INI file:
// bools as 0/1 and floats with two decimals.
func (v Value) String() string {
	switch v.typ {
	case Int:
		return strconv.Itoa(v.i)
	case Bool:
		if v.b {
			return "1"
		}
		return "0"
	case Float:
		return strconv.FormatFloat(v.f, 'f', 2, 64)
	default:
		return v.s
	}
}

// Equal reports whether two values have the same type and payload
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case Int:
		return v.i == o.i
	case Bool:
		return v.b == o.b
	case Float:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	default:
		return v.s == o.s
	}
}

// Setting pairs a descriptor with its current value
type Setting struct {
	Desc  *Descriptor
	Value Value
}

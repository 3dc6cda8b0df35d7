package schema

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cast"

	"github.com/muurk/camcfg/internal/cfgerr"
)

// Descriptor is the static definition of one setting
type Descriptor struct {
	Index     int       // Position in the table, stable for the process lifetime
	Section   SectionID // Owning section
	Key       string    // Lower-case key, unique within the section
	Type      Type      // Storage type
	Min       float64   // Lower bound for Int, Bool and Float
	Max       float64   // Upper bound for Int, Bool and Float
	MaxLength int       // Buffer size for String; usable length is MaxLength-1
	Default   string    // Default in INI text form
	Required  bool      // Must be present in a complete file
}

// Name returns "section.key"
func (d *Descriptor) Name() string {
	return d.Section.String() + "." + d.Key
}

// IsPort reports whether the setting holds a TCP/UDP port number
func (d *Descriptor) IsPort() bool {
	return d.Type == Int && strings.HasSuffix(d.Key, "_port")
}

// DefaultValue parses Default into a Value of the descriptor's type. A
// default that does not parse yields the zero value of the type.
func (d *Descriptor) DefaultValue() Value {
	v, err := d.Parse(d.Default)
	if err != nil {
		return d.zero()
	}
	if d.Type == Bool {
		return BoolValue(v.AsBool())
	}
	return v
}

func (d *Descriptor) zero() Value {
	switch d.Type {
	case Bool:
		return BoolValue(false)
	case String:
		return StringValue("")
	case Float:
		return FloatValue(0)
	default:
		return IntValue(0)
	}
}

// Parse converts INI text into a Value of the descriptor's type without
// applying bounds. Integers are parsed in base 10 so leading zeros are kept
// decimal.
func (d *Descriptor) Parse(raw string) (Value, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" && d.Type != String {
		return Value{}, d.errorf(cfgerr.InvalidParameter, "parse", raw, nil)
	}
	switch d.Type {
	case Int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Value{}, d.errorf(cfgerr.InvalidParameter, "parse", raw, err)
		}
		return IntValue(n), nil
	case Bool:
		if n, err := strconv.Atoi(raw); err == nil {
			return IntValue(n), nil
		}
		b, err := cast.ToBoolE(raw)
		if err != nil {
			return Value{}, d.errorf(cfgerr.InvalidParameter, "parse", raw, err)
		}
		return BoolValue(b), nil
	case Float:
		f, err := cast.ToFloat64E(raw)
		if err != nil {
			return Value{}, d.errorf(cfgerr.InvalidParameter, "parse", raw, err)
		}
		return FloatValue(f), nil
	default:
		return StringValue(raw), nil
	}
}

// Accept validates v against the strict contract and converts it to the
// descriptor's storage type. Bool and Int are interchangeable, an integral
// Float is accepted for an Int field, and an Int widens to Float.
// Out-of-range numbers and over-long strings are rejected, never adjusted.
func (d *Descriptor) Accept(op string, v Value) (Value, error) {
	switch d.Type {
	case Int, Bool:
		var n int
		switch v.Type() {
		case Int, Bool:
			n = v.AsInt()
		case Float:
			f := v.AsFloat()
			if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
				return Value{}, d.mismatch(op, v)
			}
			if f < d.Min || f > d.Max {
				return Value{}, d.outOfRange(op, v)
			}
			n = int(f)
		default:
			return Value{}, d.mismatch(op, v)
		}
		if float64(n) < d.Min || float64(n) > d.Max {
			return Value{}, d.outOfRange(op, v)
		}
		if d.Type == Bool {
			return BoolValue(n != 0), nil
		}
		return IntValue(n), nil

	case Float:
		if v.Type() != Float && v.Type() != Int {
			return Value{}, d.mismatch(op, v)
		}
		f := v.AsFloat()
		if math.IsNaN(f) || math.IsInf(f, 0) || f < d.Min || f > d.Max {
			return Value{}, d.outOfRange(op, v)
		}
		return FloatValue(f), nil

	case String:
		if v.Type() != String {
			return Value{}, d.mismatch(op, v)
		}
		s := v.AsString()
		if len(s) > d.MaxLength-1 {
			return Value{}, &cfgerr.Error{
				Kind: cfgerr.TooLong, Op: op,
				Section: d.Section.String(), Key: d.Key,
				Value: s, MaxLength: d.MaxLength,
			}
		}
		if reason := unstorable(s); reason != "" {
			return Value{}, &cfgerr.Error{
				Kind: cfgerr.InvalidParameter, Op: op,
				Section: d.Section.String(), Key: d.Key,
				Value: s, Message: reason,
			}
		}
		return v, nil
	}
	return Value{}, d.mismatch(op, v)
}

// Adjustment describes what Clamp had to change
type Adjustment int

const (
	Unchanged Adjustment = iota
	Clamped
	Truncated
)

// Clamp applies the tolerant contract: numbers are pulled into [Min, Max]
// and strings are cut to MaxLength-1 bytes on a rune boundary. v must
// already have the descriptor's type (or Int for a Bool field).
func (d *Descriptor) Clamp(v Value) (Value, Adjustment) {
	switch d.Type {
	case Int:
		n := v.AsInt()
		switch {
		case float64(n) < d.Min:
			return IntValue(int(d.Min)), Clamped
		case float64(n) > d.Max:
			return IntValue(int(d.Max)), Clamped
		}
		return IntValue(n), Unchanged
	case Bool:
		return BoolValue(v.AsBool()), Unchanged
	case Float:
		f := v.AsFloat()
		switch {
		case math.IsNaN(f):
			return d.DefaultValue(), Clamped
		case f < d.Min:
			return FloatValue(d.Min), Clamped
		case f > d.Max:
			return FloatValue(d.Max), Clamped
		}
		return FloatValue(f), Unchanged
	default:
		s := v.AsString()
		limit := d.MaxLength - 1
		if len(s) <= limit {
			return StringValue(s), Unchanged
		}
		cut := limit
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		return StringValue(s[:cut]), Truncated
	}
}

// unstorable returns a reason when s would not survive a save/load cycle
func unstorable(s string) string {
	if strings.ContainsAny(s, "\r\n\x00") {
		return "control characters are not allowed"
	}
	if s != strings.TrimSpace(s) {
		return "leading or trailing whitespace is not allowed"
	}
	if CommentStart(s) != len(s) {
		return "comment marker after whitespace is not allowed"
	}
	return ""
}

// CommentStart returns the offset of an inline comment in an INI value: a
// ';' or '#' at the start of the value or preceded by whitespace. It
// returns len(v) when there is none.
func CommentStart(v string) int {
	for i := 0; i < len(v); i++ {
		if v[i] != ';' && v[i] != '#' {
			continue
		}
		if i == 0 || v[i-1] == ' ' || v[i-1] == '\t' {
			return i
		}
	}
	return len(v)
}

func (d *Descriptor) mismatch(op string, v Value) error {
	return &cfgerr.Error{
		Kind: cfgerr.InvalidParameter, Op: op,
		Section: d.Section.String(), Key: d.Key, Value: v.String(),
		Message: "type mismatch: setting is " + d.Type.String() + ", got " + v.Type().String(),
	}
}

func (d *Descriptor) outOfRange(op string, v Value) error {
	return &cfgerr.Error{
		Kind: cfgerr.OutOfRange, Op: op,
		Section: d.Section.String(), Key: d.Key, Value: v.String(),
		Min: d.Min, Max: d.Max,
	}
}

func (d *Descriptor) errorf(kind cfgerr.Kind, op, raw string, err error) error {
	return &cfgerr.Error{
		Kind: kind, Op: op,
		Section: d.Section.String(), Key: d.Key, Value: raw,
		Message: "expected " + d.Type.String(), Err: err,
	}
}

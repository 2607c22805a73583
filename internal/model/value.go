// Package model defines the core entities: records, notes, and the typed
// field values they carry.
//
// Field values are deliberately narrow: every scalar is a string, an integer,
// or a float. The kind travels with the value so the index can store one row
// per scalar in the matching typed column and queries can compare numerics
// numerically.
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the scalar type of a field value.
type Kind string

const (
	KindString  Kind = "string"
	KindInteger Kind = "integer"
	KindFloat   Kind = "float"
)

// ValidKind reports whether s names a supported scalar kind.
func ValidKind(s string) bool {
	switch Kind(s) {
	case KindString, KindInteger, KindFloat:
		return true
	}
	return false
}

// Value is a single typed scalar.
type Value struct {
	kind Kind
	str  string
	num  int64
	real float64
}

// String creates a string value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Integer creates an integer value.
func Integer(i int64) Value {
	return Value{kind: KindInteger, num: i}
}

// Float creates a float value.
func Float(f float64) Value {
	return Value{kind: KindFloat, real: f}
}

// Kind returns the scalar kind.
func (v Value) Kind() Kind { return v.kind }

// AsString returns the string content if the value is a string.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsInteger returns the integer content if the value is an integer.
func (v Value) AsInteger() (int64, bool) {
	if v.kind != KindInteger {
		return 0, false
	}
	return v.num, true
}

// AsFloat returns the float content if the value is a float.
func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return v.real, true
}

// Numeric reports whether the value is an integer or a float, and returns
// its float64 rendering when it is.
func (v Value) Numeric() (float64, bool) {
	switch v.kind {
	case KindInteger:
		return float64(v.num), true
	case KindFloat:
		return v.real, true
	}
	return 0, false
}

// Raw returns the underlying Go value (string, int64, or float64), suitable
// for YAML or JSON encoding.
func (v Value) Raw() any {
	switch v.kind {
	case KindInteger:
		return v.num
	case KindFloat:
		return v.real
	default:
		return v.str
	}
}

// Render returns the display/comparison string for the value. Accepted-value
// checks and equality filters compare against this rendering.
func (v Value) Render() string {
	switch v.kind {
	case KindInteger:
		return strconv.FormatInt(v.num, 10)
	case KindFloat:
		return strconv.FormatFloat(v.real, 'g', -1, 64)
	default:
		return v.str
	}
}

// IsEmpty reports whether a string value holds only whitespace. Numeric
// values are never empty.
func (v Value) IsEmpty() bool {
	return v.kind == KindString && strings.TrimSpace(v.str) == ""
}

// Coerce converts a raw scalar (as produced by YAML decoding or CLI input)
// into a value of the requested kind.
func Coerce(raw any, kind Kind) (Value, error) {
	switch kind {
	case KindString:
		return String(renderRaw(raw)), nil

	case KindInteger:
		switch n := raw.(type) {
		case int:
			return Integer(int64(n)), nil
		case int64:
			return Integer(n), nil
		case uint64:
			return Integer(int64(n)), nil
		case float64:
			if n == float64(int64(n)) {
				return Integer(int64(n)), nil
			}
			return Value{}, fmt.Errorf("value %v is not an integer", n)
		case string:
			i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
			if err != nil {
				return Value{}, fmt.Errorf("value %q is not an integer", n)
			}
			return Integer(i), nil
		}
		return Value{}, fmt.Errorf("value %v is not an integer", raw)

	case KindFloat:
		switch n := raw.(type) {
		case int:
			return Float(float64(n)), nil
		case int64:
			return Float(float64(n)), nil
		case uint64:
			return Float(float64(n)), nil
		case float64:
			return Float(n), nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
			if err != nil {
				return Value{}, fmt.Errorf("value %q is not a number", n)
			}
			return Float(f), nil
		}
		return Value{}, fmt.Errorf("value %v is not a number", raw)
	}
	return Value{}, fmt.Errorf("unknown value kind %q", kind)
}

func renderRaw(raw any) string {
	switch s := raw.(type) {
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case float64:
		return strconv.FormatFloat(s, 'g', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", raw)
	}
}

// Compare orders two values: numerics compare numerically (integers and
// floats mix), everything else compares by string rendering.
func Compare(a, b Value) int {
	an, aok := a.Numeric()
	bn, bok := b.Numeric()
	if aok && bok {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a.Render(), b.Render())
}

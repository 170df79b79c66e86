package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the active variant of a Value.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindNumber
	KindText
	KindBoolean
	KindDate
	KindError
	KindArray
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBoolean:
		return "boolean"
	case KindDate:
		return "date"
	case KindError:
		return "error"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// ErrNotNumeric is wrapped by ToNumber when a value has no numeric reading.
var ErrNotNumeric = errors.New("value is not numeric")

// Value is the runtime datum of the formula language.
//
// Exactly one variant is active at a time. The zero Value is Empty.
// Values are immutable; Array items are copied on construction and
// never nest.
type Value struct {
	kind  Kind
	num   float64
	str   string
	b     bool
	t     time.Time
	err   ErrorType
	items []Value
}

// Empty returns the "no value" sentinel.
func Empty() Value { return Value{} }

// NewNumber returns a Number value.
func NewNumber(f float64) Value { return Value{kind: KindNumber, num: f} }

// NewText returns a Text value.
func NewText(s string) Value { return Value{kind: KindText, str: s} }

// NewBoolean returns a Boolean value.
func NewBoolean(b bool) Value { return Value{kind: KindBoolean, b: b} }

// NewDate returns a Date value.
func NewDate(t time.Time) Value { return Value{kind: KindDate, t: t} }

// NewError returns an Error value carrying e.
func NewError(e ErrorType) Value { return Value{kind: KindError, err: e} }

// NewArray returns an Array value. Array arguments are spliced in place
// so the result never contains nested arrays.
func NewArray(items ...Value) Value {
	out := make([]Value, 0, len(items))
	for _, it := range items {
		if it.kind == KindArray {
			out = append(out, it.items...)
			continue
		}
		out = append(out, it)
	}
	return Value{kind: KindArray, items: out}
}

func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsEmpty() bool   { return v.kind == KindEmpty }
func (v Value) IsNumber() bool  { return v.kind == KindNumber }
func (v Value) IsText() bool    { return v.kind == KindText }
func (v Value) IsBoolean() bool { return v.kind == KindBoolean }
func (v Value) IsDate() bool    { return v.kind == KindDate }
func (v Value) IsError() bool   { return v.kind == KindError }
func (v Value) IsArray() bool   { return v.kind == KindArray }

// Num returns the Number payload, or 0 for other variants.
func (v Value) Num() float64 { return v.num }

// Str returns the Text payload, or "" for other variants.
func (v Value) Str() string { return v.str }

// Bool returns the Boolean payload, or false for other variants.
func (v Value) Bool() bool { return v.b }

// Time returns the Date payload, or the zero time for other variants.
func (v Value) Time() time.Time { return v.t }

// Err returns the ErrorType payload, or ErrNone for other variants.
func (v Value) Err() ErrorType {
	if v.kind != KindError {
		return ErrNone
	}
	return v.err
}

// Items returns the Array elements. The slice must not be modified.
func (v Value) Items() []Value { return v.items }

// Len returns the number of Array elements, 1 for scalars and 0 for Empty.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.items)
	case KindEmpty:
		return 0
	default:
		return 1
	}
}

// CanConvertToNumber reports whether ToNumber succeeds.
func (v Value) CanConvertToNumber() bool {
	switch v.kind {
	case KindNumber, KindBoolean:
		return true
	case KindText:
		_, ok := ParseNumber(v.str)
		return ok
	default:
		return false
	}
}

// ToNumber returns the numeric reading of v. Booleans read as 1 and 0,
// Text must parse fully as a decimal number.
func (v Value) ToNumber() (float64, error) {
	switch v.kind {
	case KindNumber:
		return v.num, nil
	case KindBoolean:
		if v.b {
			return 1, nil
		}
		return 0, nil
	case KindText:
		if f, ok := ParseNumber(v.str); ok {
			return f, nil
		}
		return 0, fmt.Errorf("text %q: %w", v.str, ErrNotNumeric)
	default:
		return 0, fmt.Errorf("%s: %w", v.kind, ErrNotNumeric)
	}
}

// ParseNumber parses s as an optionally signed decimal number with an
// optional exponent. Surrounding ASCII whitespace is ignored; Unicode
// spaces such as U+00A0 are not. Special forms accepted by strconv (inf,
// nan, hex, underscores) are rejected.
func ParseNumber(s string) (float64, bool) {
	s = strings.Trim(s, asciiSpace)
	if !isDecimalLiteral(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func isDecimalLiteral(s string) bool {
	i, n := 0, len(s)
	if i < n && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < n && isASCIIDigit(s[i]) {
		i++
		digits++
	}
	if i < n && s[i] == '.' {
		i++
		for i < n && isASCIIDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < n && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < n && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for i < n && isASCIIDigit(s[i]) {
			i++
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == n
}

const asciiSpace = " \t\n\v\f\r"

func isASCIIDigit(c byte) bool { return c >= '0' && c <= '9' }

// String renders v as text, the way the & operator sees it.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return FormatNumber(v.num)
	case KindText:
		return v.str
	case KindBoolean:
		if v.b {
			return "TRUE"
		}
		return "FALSE"
	case KindDate:
		return formatDate(v.t)
	case KindError:
		return v.err.String()
	case KindArray:
		parts := make([]string, len(v.items))
		for i, it := range v.items {
			parts[i] = it.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return ""
	}
}

// FormatNumber renders f in its shortest round-trippable decimal form.
// Fixed notation is used for magnitudes in [1e-6, 1e21).
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs < 1e-6 || abs >= 1e21 {
		s := strconv.FormatFloat(f, 'g', -1, 64)
		s = strings.Replace(s, "e-0", "e-", 1)
		return strings.Replace(s, "e+0", "e+", 1)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatDate(t time.Time) string {
	h, m, s := t.Clock()
	if h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02T15:04:05")
}

// GoString makes %#v output readable in test failures.
func (v Value) GoString() string {
	if v.kind == KindText {
		return fmt.Sprintf("Text(%q)", v.str)
	}
	return fmt.Sprintf("%s(%s)", strings.ToUpper(v.kind.String()[:1])+v.kind.String()[1:], v.String())
}

// MarshalJSON encodes the value using its closest JSON form. Dates and
// errors are encoded as their text rendering.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindEmpty:
		return []byte("null"), nil
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return json.Marshal(FormatNumber(v.num))
		}
		return json.Marshal(v.num)
	case KindBoolean:
		return json.Marshal(v.b)
	case KindArray:
		return json.Marshal(v.items)
	default:
		return json.Marshal(v.String())
	}
}

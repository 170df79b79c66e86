package functions

import (
	"math"

	"github.com/sandrolain/xlformula/pkg/types"
)

// FirstError returns the first Error among args, looking one level into
// Arrays.
func FirstError(args []types.Value) (types.Value, bool) {
	for _, a := range args {
		if a.IsError() {
			return a, true
		}
		if a.IsArray() {
			for _, it := range a.Items() {
				if it.IsError() {
					return it, true
				}
			}
		}
	}
	return types.Value{}, false
}

// Flatten expands Array arguments in place, preserving order.
func Flatten(args []types.Value) []types.Value {
	n := 0
	for _, a := range args {
		n += max(a.Len(), 1)
	}
	out := make([]types.Value, 0, n)
	for _, a := range args {
		if a.IsArray() {
			out = append(out, a.Items()...)
			continue
		}
		out = append(out, a)
	}
	return out
}

// Truthy is the condition reading used by IF, AND, OR and NOT: Booleans
// as themselves, numeric values as non-zero, other Text as non-empty,
// everything else false.
func Truthy(v types.Value) bool {
	switch {
	case v.IsBoolean():
		return v.Bool()
	case v.CanConvertToNumber():
		n, _ := v.ToNumber()
		return n != 0
	case v.IsText():
		return v.Str() != ""
	default:
		return false
	}
}

// NumberArg coerces a scalar argument to a number. Empty reads as 0.
// On failure the second result is the Error to return: the argument
// itself when it is an Error, #VALUE! otherwise.
func NumberArg(v types.Value) (float64, types.Value) {
	switch {
	case v.IsEmpty():
		return 0, types.Value{}
	case v.IsError():
		return 0, v
	}
	n, err := v.ToNumber()
	if err != nil {
		return 0, types.NewError(types.ErrValue)
	}
	return n, types.Value{}
}

// IntArg is NumberArg truncated toward zero. Magnitudes beyond the
// 32-bit range yield #NUM!.
func IntArg(v types.Value) (int, types.Value) {
	n, e := NumberArg(v)
	if e.IsError() {
		return 0, e
	}
	if math.Abs(n) > math.MaxInt32 {
		return 0, types.NewError(types.ErrNum)
	}
	return int(n), types.Value{}
}

// Numbers collects the values an aggregate such as SUM sees: Numbers
// anywhere, plus direct scalar arguments that convert (Booleans and
// numeric Text). Text and Booleans inside Arrays are skipped, as are
// Empty and non-numeric Text.
func Numbers(args []types.Value) []float64 {
	var out []float64
	for _, a := range args {
		switch {
		case a.IsArray():
			for _, it := range a.Items() {
				if it.IsNumber() {
					out = append(out, it.Num())
				}
			}
		case a.CanConvertToNumber():
			n, _ := a.ToNumber()
			out = append(out, n)
		}
	}
	return out
}

// TextArg renders a scalar argument as text. An Error argument is
// returned as the second result.
func TextArg(v types.Value) (string, types.Value) {
	if v.IsError() {
		return "", v
	}
	return v.String(), types.Value{}
}

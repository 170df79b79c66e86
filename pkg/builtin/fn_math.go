package builtin

import (
	"math"

	"github.com/cockroachdb/apd/v3"

	"github.com/sandrolain/xlformula/pkg/functions"
	"github.com/sandrolain/xlformula/pkg/types"
)

func (c *config) math() []functions.Def {
	return []functions.Def{
		def("SUM", CategoryMath, 0, -1, fnSum),
		def("PRODUCT", CategoryMath, 1, -1, fnProduct),
		def("SUMSQ", CategoryMath, 1, -1, fnSumSq),
		def("SUMPRODUCT", CategoryMath, 1, -1, fnSumProduct),
		def("ABS", CategoryMath, 1, 1, math1(math.Abs)),
		def("SIGN", CategoryMath, 1, 1, math1(sign)),
		def("INT", CategoryMath, 1, 1, math1(math.Floor)),
		def("TRUNC", CategoryMath, 1, 2, rounding(apd.RoundDown, true)),
		def("ROUND", CategoryMath, 2, 2, rounding(apd.RoundHalfUp, false)),
		def("ROUNDUP", CategoryMath, 2, 2, rounding(apd.RoundUp, false)),
		def("ROUNDDOWN", CategoryMath, 2, 2, rounding(apd.RoundDown, false)),
		def("CEILING", CategoryMath, 1, 2, fnCeiling),
		def("FLOOR", CategoryMath, 1, 2, fnFloor),
		def("MOD", CategoryMath, 2, 2, fnMod),
		def("QUOTIENT", CategoryMath, 2, 2, fnQuotient),
		def("POWER", CategoryMath, 2, 2, fnPower),
		def("SQRT", CategoryMath, 1, 1, mathDomain(math.Sqrt, func(x float64) bool { return x >= 0 })),
		def("EXP", CategoryMath, 1, 1, math1(math.Exp)),
		def("LN", CategoryMath, 1, 1, mathDomain(math.Log, positive)),
		def("LOG10", CategoryMath, 1, 1, mathDomain(math.Log10, positive)),
		def("LOG", CategoryMath, 1, 2, fnLog),
		def("PI", CategoryMath, 0, 0, constant(types.NewNumber(math.Pi))),
		def("SUMIF", CategoryMath, 2, 3, c.fnSumIf),
		def("SUMIFS", CategoryMath, 3, -1, c.fnSumIfs),
	}
}

// number wraps a result, mapping NaN and infinities to #NUM!.
func number(f float64) types.Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return types.NewError(types.ErrNum)
	}
	return types.NewNumber(f)
}

func positive(x float64) bool { return x > 0 }

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// snap absorbs binary representation noise in quotients, so that
// 2.1/0.1 counts as the whole number 21.
func snap(q float64) float64 {
	r := math.Round(q)
	if math.Abs(q-r) <= 1e-9*math.Max(1, math.Abs(q)) {
		return r
	}
	return q
}

func math1(fn func(float64) float64) functions.Func {
	return mathDomain(fn, nil)
}

// mathDomain applies fn to one numeric argument; inputs outside the
// domain yield #NUM!.
func mathDomain(fn func(float64) float64, domain func(float64) bool) functions.Func {
	return func(args []types.Value, _ *types.Context) types.Value {
		x, e := functions.NumberArg(args[0])
		if e.IsError() {
			return e
		}
		if domain != nil && !domain(x) {
			return types.NewError(types.ErrNum)
		}
		return number(fn(x))
	}
}

// numbers2 reads two numeric arguments.
func numbers2(args []types.Value) (float64, float64, types.Value) {
	a, e := functions.NumberArg(args[0])
	if e.IsError() {
		return 0, 0, e
	}
	b, e := functions.NumberArg(args[1])
	if e.IsError() {
		return 0, 0, e
	}
	return a, b, types.Value{}
}

func fnSum(args []types.Value, _ *types.Context) types.Value {
	total := 0.0
	for _, n := range functions.Numbers(args) {
		total += n
	}
	return number(total)
}

func fnProduct(args []types.Value, _ *types.Context) types.Value {
	ns := functions.Numbers(args)
	if len(ns) == 0 {
		return types.NewNumber(0)
	}
	p := 1.0
	for _, n := range ns {
		p *= n
	}
	return number(p)
}

func fnSumSq(args []types.Value, _ *types.Context) types.Value {
	total := 0.0
	for _, n := range functions.Numbers(args) {
		total += n * n
	}
	return number(total)
}

// SUMPRODUCT multiplies same-index items of equally sized arrays and sums
// the products. Items that are not Numbers count as 0.
func fnSumProduct(args []types.Value, _ *types.Context) types.Value {
	size := args[0].Len()
	for _, a := range args[1:] {
		if a.Len() != size {
			return types.NewError(types.ErrValue)
		}
	}
	total := 0.0
	for i := 0; i < size; i++ {
		p := 1.0
		for _, a := range args {
			it := itemAt(a, i)
			if !it.IsNumber() {
				p = 0
				break
			}
			p *= it.Num()
		}
		total += p
	}
	return number(total)
}

// itemAt indexes an Array, treating a scalar as a one-item array.
func itemAt(v types.Value, i int) types.Value {
	if v.IsArray() {
		return v.Items()[i]
	}
	return v
}

// rounding builds ROUND and friends on decimal arithmetic, so that
// ROUND(1.005, 2) sees the decimal 1.005 rather than its binary neighbour.
func rounding(mode apd.Rounder, digitsOptional bool) functions.Func {
	return func(args []types.Value, _ *types.Context) types.Value {
		x, e := functions.NumberArg(args[0])
		if e.IsError() {
			return e
		}
		digits := 0
		if len(args) > 1 || !digitsOptional {
			digits, e = functions.IntArg(args[1])
			if e.IsError() {
				return e
			}
		}
		r, ok := roundDecimal(x, digits, mode)
		if !ok {
			return types.NewError(types.ErrNum)
		}
		return number(r)
	}
}

// roundPrecision is enough digits for any float64 quantized to a
// handful of decimals.
const roundPrecision = 400

func roundDecimal(x float64, digits int, mode apd.Rounder) (float64, bool) {
	var d apd.Decimal
	if _, err := d.SetFloat64(x); err != nil {
		return 0, false
	}
	ctx := apd.BaseContext.WithPrecision(roundPrecision)
	ctx.Rounding = mode

	var out apd.Decimal
	if _, err := ctx.Quantize(&out, &d, int32(-digits)); err != nil {
		// More decimals than the value can carry: nothing to round.
		if digits > 0 {
			return x, true
		}
		return 0, false
	}
	f, err := out.Float64()
	if err != nil {
		return 0, false
	}
	return f, true
}

// significance reads the optional second argument of CEILING and FLOOR.
func significance(args []types.Value) (float64, float64, types.Value) {
	x, e := functions.NumberArg(args[0])
	if e.IsError() {
		return 0, 0, e
	}
	sig := 1.0
	if len(args) == 2 {
		if sig, e = functions.NumberArg(args[1]); e.IsError() {
			return 0, 0, e
		}
	}
	if x > 0 && sig < 0 {
		return 0, 0, types.NewError(types.ErrNum)
	}
	return x, sig, types.Value{}
}

func fnCeiling(args []types.Value, _ *types.Context) types.Value {
	x, sig, e := significance(args)
	if e.IsError() {
		return e
	}
	if sig == 0 {
		return types.NewNumber(0)
	}
	return number(math.Ceil(snap(x/sig)) * sig)
}

func fnFloor(args []types.Value, _ *types.Context) types.Value {
	x, sig, e := significance(args)
	if e.IsError() {
		return e
	}
	if sig == 0 {
		return types.NewError(types.ErrDivZero)
	}
	return number(math.Floor(snap(x/sig)) * sig)
}

// MOD takes the sign of the divisor.
func fnMod(args []types.Value, _ *types.Context) types.Value {
	n, d, e := numbers2(args)
	if e.IsError() {
		return e
	}
	if d == 0 {
		return types.NewError(types.ErrDivZero)
	}
	return number(n - d*math.Floor(snap(n/d)))
}

func fnQuotient(args []types.Value, _ *types.Context) types.Value {
	n, d, e := numbers2(args)
	if e.IsError() {
		return e
	}
	if d == 0 {
		return types.NewError(types.ErrDivZero)
	}
	return number(math.Trunc(snap(n / d)))
}

// POWER follows the ^ operator.
func fnPower(args []types.Value, _ *types.Context) types.Value {
	base, exp, e := numbers2(args)
	if e.IsError() {
		return e
	}
	return number(math.Pow(base, exp))
}

// LOG(x, [base]) with base 10 by default.
func fnLog(args []types.Value, _ *types.Context) types.Value {
	x, e := functions.NumberArg(args[0])
	if e.IsError() {
		return e
	}
	base := 10.0
	if len(args) == 2 {
		if base, e = functions.NumberArg(args[1]); e.IsError() {
			return e
		}
	}
	if x <= 0 || base <= 0 {
		return types.NewError(types.ErrNum)
	}
	if base == 1 {
		return types.NewError(types.ErrDivZero)
	}
	return number(math.Log(x) / math.Log(base))
}

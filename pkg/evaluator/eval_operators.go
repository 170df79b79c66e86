package evaluator

import (
	"math"

	"github.com/sandrolain/xlformula/pkg/types"
)

// operand reads v as a number for arithmetic. Empty counts as 0.
// The second result is false when v has no numeric reading.
func operand(v types.Value) (float64, bool) {
	if v.IsEmpty() {
		return 0, true
	}
	n, err := v.ToNumber()
	return n, err == nil
}

// unary applies a prefix operator.
func unary(op types.Operator, v types.Value) types.Value {
	if v.IsError() {
		return v
	}
	n, ok := operand(v)
	if !ok {
		return types.NewError(types.ErrValue)
	}
	if op == types.OpNeg {
		n = -n
	}
	return types.NewNumber(n)
}

// binary applies an infix operator to already evaluated operands. The
// left Error wins over the right one.
func binary(op types.Operator, lhs, rhs types.Value) types.Value {
	if lhs.IsError() {
		return lhs
	}
	if rhs.IsError() {
		return rhs
	}

	switch op {
	case types.OpConcat:
		return types.NewText(lhs.String() + rhs.String())
	case types.OpEq:
		return types.NewBoolean(lhs.Equal(rhs))
	case types.OpNe:
		return types.NewBoolean(!lhs.Equal(rhs))
	case types.OpLt:
		return types.NewBoolean(lhs.Compare(rhs) < 0)
	case types.OpLe:
		return types.NewBoolean(lhs.Compare(rhs) <= 0)
	case types.OpGt:
		return types.NewBoolean(lhs.Compare(rhs) > 0)
	case types.OpGe:
		return types.NewBoolean(lhs.Compare(rhs) >= 0)
	}
	return arithmetic(op, lhs, rhs)
}

func arithmetic(op types.Operator, lhs, rhs types.Value) types.Value {
	l, ok := operand(lhs)
	if !ok {
		return types.NewError(types.ErrValue)
	}
	r, ok := operand(rhs)
	if !ok {
		return types.NewError(types.ErrValue)
	}

	var n float64
	switch op {
	case types.OpAdd:
		n = l + r
	case types.OpSub:
		n = l - r
	case types.OpMul:
		n = l * r
	case types.OpDiv:
		if r == 0 {
			return types.NewError(types.ErrDivZero)
		}
		n = l / r
	case types.OpPow:
		n = math.Pow(l, r)
	default:
		return types.NewError(types.ErrValue)
	}

	// Overflow, zero to a negative power and negative bases with
	// fractional exponents.
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return types.NewError(types.ErrNum)
	}
	return types.NewNumber(n)
}

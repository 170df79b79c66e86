// Package xlformula parses and evaluates spreadsheet formulas with Excel
// semantics.
//
// A formula such as SUM(A1, A2) * 2 is parsed into an expression tree
// and evaluated against named variables ("cells") to a typed Value:
// a Number, Text, Boolean, Date, Array, Empty, or an Error such as
// #DIV/0!.
//
// # Quick Start
//
//	ctx := types.NewContext()
//	ctx.Set("A1", types.NewNumber(1))
//	ctx.Set("A2", types.NewNumber(2))
//
//	res := xlformula.Evaluate("SUM(A1, A2) * 2", ctx)
//	fmt.Println(res.Value) // 6
//
//	// Parse once, keep variables and functions together
//	eng := xlformula.New(xlformula.WithCaching(512))
//	eng.SetVariable("Price", types.NewNumber(10))
//	res = eng.Evaluate(`IF(Price > 5, "high", "low")`)
//
// # More Information
//
//   - Parser: github.com/sandrolain/xlformula/pkg/parser
//   - Evaluator: github.com/sandrolain/xlformula/pkg/evaluator
//   - Functions: github.com/sandrolain/xlformula/pkg/functions
//   - Built-ins: github.com/sandrolain/xlformula/pkg/builtin
//   - Types: github.com/sandrolain/xlformula/pkg/types
package xlformula

import (
	"errors"
	"sync"

	"github.com/sandrolain/xlformula/pkg/builtin"
	"github.com/sandrolain/xlformula/pkg/evaluator"
	"github.com/sandrolain/xlformula/pkg/functions"
	"github.com/sandrolain/xlformula/pkg/parser"
	"github.com/sandrolain/xlformula/pkg/types"
)

// Version returns the current version of xlformula.
func Version() string {
	return "v0.1.0-dev"
}

// ParseResult holds either a parsed expression or the reasons it could
// not be parsed, never both.
type ParseResult struct {
	AST    *types.Expression
	Errors types.ParseErrors
}

// OK reports whether parsing succeeded.
func (r ParseResult) OK() bool {
	return r.AST != nil && len(r.Errors) == 0
}

// Err returns the parse failure as an error, or nil.
func (r ParseResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return r.Errors
}

// EvaluationResult is the outcome of evaluating formula text. A formula
// that does not parse evaluates to #PARSE! and carries the parse errors.
type EvaluationResult struct {
	Value       types.Value
	ParseErrors types.ParseErrors
}

// OK reports whether the result is not an Error value.
func (r EvaluationResult) OK() bool {
	return !r.Value.IsError()
}

// Parse parses formula text.
func Parse(formula string, opts ...parser.CompileOption) ParseResult {
	expr, err := parser.Parse(formula, opts...)
	return newParseResult(expr, err)
}

// Evaluate parses and evaluates formula against ctx using the built-in
// function library. A nil ctx evaluates with no variables.
func Evaluate(formula string, ctx *types.Context) EvaluationResult {
	res := Parse(formula)
	if !res.OK() {
		return parseFailure(res)
	}
	return EvaluationResult{Value: defaultEvaluator().Eval(res.AST, ctx)}
}

// defaultEvaluator is shared by Evaluate. Its registry is never mutated,
// so concurrent use is safe.
var defaultEvaluator = sync.OnceValue(func() *evaluator.Evaluator {
	return evaluator.New(builtin.NewRegistry())
})

// DefaultRegistry returns a new registry holding the built-in functions.
func DefaultRegistry(opts ...builtin.Option) *functions.Registry {
	return builtin.NewRegistry(opts...)
}

func newParseResult(expr *types.Expression, err error) ParseResult {
	if err == nil {
		return ParseResult{AST: expr}
	}
	var perrs types.ParseErrors
	if errors.As(err, &perrs) && len(perrs) > 0 {
		return ParseResult{Errors: perrs}
	}
	return ParseResult{Errors: types.ParseErrors{
		types.NewParseError(types.ErrUnexpectedToken, err.Error(), -1),
	}}
}

func parseFailure(res ParseResult) EvaluationResult {
	return EvaluationResult{
		Value:       types.NewError(types.ErrParse),
		ParseErrors: res.Errors,
	}
}

// Package parser implements the formula lexer and parser.
//
// The parser is a hand-written Pratt ("top down operator precedence")
// parser. It never panics on malformed input; failures are returned as
// [types.ParseErrors] with byte positions.
//
// # Grammar
//
// From lowest to highest precedence:
//   - comparisons = <> != < <= > >= (left-associative)
//   - & text concatenation
//   - + - (binary)
//   - * /
//   - ^ (right-associative)
//   - prefix + - (bind tighter than ^, so -2^2 is 4)
//   - literals, identifiers, calls NAME(args...), parentheses
//
// # Example
//
//	expr, err := parser.Parse("SUM(A1, A2) * 2")
//	if err != nil {
//	    var perrs types.ParseErrors
//	    errors.As(err, &perrs)
//	    fmt.Println(perrs[0].Position)
//	}
//	root := expr.AST()
package parser

import (
	"github.com/sandrolain/xlformula/pkg/types"
)

// DefaultMaxDepth bounds expression nesting during parsing.
const DefaultMaxDepth = 256

// Parse parses a formula and returns the compiled Expression.
//
// On failure the returned error is a non-empty [types.ParseErrors] and
// the expression is nil.
func Parse(formula string, opts ...CompileOption) (*types.Expression, error) {
	p := NewParser(formula, opts...)
	return p.Parse()
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level initialisation of constant formulas.
func MustParse(formula string) *types.Expression {
	expr, err := Parse(formula)
	if err != nil {
		panic(err)
	}
	return expr
}

// CompileOption configures parsing behavior.
type CompileOption func(*CompileOptions)

// CompileOptions holds parser configuration.
type CompileOptions struct {
	// MaxDepth limits nesting of parentheses, calls and unary operators.
	MaxDepth int
}

// WithMaxDepth sets the maximum parsing depth. Values <= 0 restore the default.
func WithMaxDepth(depth int) CompileOption {
	return func(opts *CompileOptions) {
		opts.MaxDepth = depth
	}
}

// Package criteria compiles the small predicate language used by
// conditional aggregates such as COUNTIF and SUMIF.
//
// A Text criterion that starts with one of >=, <=, <>, >, < or = is a
// relational test against the literal that follows. When that literal is
// numeric only Number candidates can match; otherwise only Text
// candidates can, compared byte-wise. Any other criterion matches by
// typed equality, so Number 5 never matches Text "5".
//
//	p := criteria.Compile(types.NewText(">5"))
//	p.Matches(types.NewNumber(10)) // true
package criteria

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/sandrolain/xlformula/pkg/types"
)

type mode uint8

const (
	modeEqual mode = iota
	modeNumeric
	modeText
	modePattern
)

// Predicate is a compiled criterion. The zero Predicate matches Empty only.
type Predicate struct {
	mode      mode
	op        types.Operator
	criterion types.Value
	num       float64
	text      string
	pattern   []rune
}

// Option configures Compile.
type Option func(*options)

type options struct {
	wildcards bool
}

// WithWildcards makes plain Text criteria containing * or ? match Text
// candidates as case-insensitive patterns. A ~ escapes the next rune.
func WithWildcards() Option {
	return func(o *options) { o.wildcards = true }
}

var prefixes = []struct {
	text string
	op   types.Operator
}{
	{">=", types.OpGe},
	{"<=", types.OpLe},
	{"<>", types.OpNe},
	{">", types.OpGt},
	{"<", types.OpLt},
	{"=", types.OpEq},
}

// fold case-folds s. Casers are stateful, so each call gets its own.
func fold(s string) string { return cases.Fold().String(s) }

// Compile turns a criterion value into a Predicate. It never fails: a
// criterion that is not relational falls back to equality.
func Compile(criterion types.Value, opts ...Option) Predicate {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if !criterion.IsText() {
		return Predicate{mode: modeEqual, criterion: criterion}
	}
	s := criterion.Str()
	for _, p := range prefixes {
		rest, ok := strings.CutPrefix(s, p.text)
		if !ok {
			continue
		}
		if n, ok := types.ParseNumber(rest); ok {
			return Predicate{mode: modeNumeric, op: p.op, criterion: criterion, num: n}
		}
		return Predicate{mode: modeText, op: p.op, criterion: criterion, text: rest}
	}

	if o.wildcards && strings.ContainsAny(s, "*?") {
		return Predicate{mode: modePattern, criterion: criterion, pattern: []rune(fold(s))}
	}
	return Predicate{mode: modeEqual, criterion: criterion}
}

// Matches reports whether candidate satisfies the criterion.
func (p Predicate) Matches(candidate types.Value) bool {
	switch p.mode {
	case modeNumeric:
		if !candidate.IsNumber() {
			return false
		}
		return holds(p.op, compareFloat(candidate.Num(), p.num))
	case modeText:
		if !candidate.IsText() {
			return false
		}
		return holds(p.op, strings.Compare(candidate.Str(), p.text))
	case modePattern:
		if !candidate.IsText() {
			return false
		}
		return match(p.pattern, []rune(fold(candidate.Str())))
	default:
		return p.criterion.Equal(candidate)
	}
}

// Criterion returns the value the predicate was compiled from.
func (p Predicate) Criterion() types.Value { return p.criterion }

// IsRelational reports whether the criterion carried an operator prefix.
func (p Predicate) IsRelational() bool {
	return p.mode == modeNumeric || p.mode == modeText
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func holds(op types.Operator, c int) bool {
	switch op {
	case types.OpEq:
		return c == 0
	case types.OpNe:
		return c != 0
	case types.OpLt:
		return c < 0
	case types.OpLe:
		return c <= 0
	case types.OpGt:
		return c > 0
	case types.OpGe:
		return c >= 0
	}
	return false
}

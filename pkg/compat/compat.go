// Package compat scans formula text copied from a spreadsheet for
// constructs this language does not support.
//
// The scan runs the text through an Excel tokenizer, so it understands
// formulas that the xlformula parser would reject outright: cell ranges,
// sheet references, percent postfix, array constants. Each finding names
// the offending token and, for unknown functions, the closest registered
// names.
//
//	for _, f := range compat.Lint("=SUM(A1:A3)", builtin.NewRegistry()) {
//	    fmt.Println(f)
//	}
package compat

import (
	"fmt"
	"strings"

	"github.com/xuri/efp"

	"github.com/sandrolain/xlformula/pkg/functions"
)

// Kind classifies a Finding.
type Kind string

const (
	KindLeadingEquals   Kind = "leading-equals"
	KindReference       Kind = "reference"
	KindUnknownFunction Kind = "unknown-function"
	KindOperator        Kind = "operator"
	KindArrayConstant   Kind = "array-constant"
	KindUnknownToken    Kind = "unknown-token"
)

// maxSuggestions bounds Finding.Suggestions.
const maxSuggestions = 3

// Finding is one construct that will not parse or evaluate as in Excel.
type Finding struct {
	Kind        Kind
	Token       string
	Message     string
	Suggestions []string
}

func (f Finding) String() string {
	s := fmt.Sprintf("%s: %s", f.Kind, f.Message)
	if len(f.Suggestions) > 0 {
		s += " (did you mean " + strings.Join(f.Suggestions, ", ") + "?)"
	}
	return s
}

// Lint scans formula and returns its findings in source order. Unknown
// functions are only reported when reg is non-nil.
func Lint(formula string, reg *functions.Registry) []Finding {
	var out []Finding
	src := strings.TrimSpace(formula)
	if body, ok := strings.CutPrefix(src, "="); ok {
		out = append(out, Finding{
			Kind:    KindLeadingEquals,
			Token:   "=",
			Message: "formulas are written without a leading '='",
		})
		src = body
	}
	if src == "" {
		return out
	}

	parser := efp.ExcelParser()
	for _, tok := range parser.Parse(src) {
		if f, ok := check(tok, reg); ok {
			out = append(out, f)
		}
	}
	return out
}

func check(tok efp.Token, reg *functions.Registry) (Finding, bool) {
	switch tok.TType {
	case efp.TokenTypeOperand:
		if tok.TSubType == efp.TokenSubTypeRange && isReference(tok.TValue) {
			return Finding{
				Kind:    KindReference,
				Token:   tok.TValue,
				Message: fmt.Sprintf("cell reference %q is not supported; bind the values to a variable", tok.TValue),
			}, true
		}
	case efp.TokenTypeFunction:
		if tok.TSubType != efp.TokenSubTypeStart {
			return Finding{}, false
		}
		if tok.TValue == "ARRAY" || tok.TValue == "ARRAYROW" {
			return Finding{
				Kind:    KindArrayConstant,
				Token:   "{",
				Message: "array constants are not supported; bind the array to a variable",
			}, true
		}
		if reg != nil && !reg.Has(tok.TValue) {
			return Finding{
				Kind:        KindUnknownFunction,
				Token:       tok.TValue,
				Message:     fmt.Sprintf("unknown function %s", tok.TValue),
				Suggestions: reg.Suggest(tok.TValue, maxSuggestions),
			}, true
		}
	case efp.TokenTypeOperatorPostfix:
		return Finding{
			Kind:    KindOperator,
			Token:   tok.TValue,
			Message: fmt.Sprintf("postfix operator %s is not supported", tok.TValue),
		}, true
	case efp.TokenTypeOperatorInfix:
		if tok.TSubType == efp.TokenSubTypeIntersection || tok.TSubType == efp.TokenSubTypeUnion {
			return Finding{
				Kind:    KindOperator,
				Token:   tok.TValue,
				Message: "range union and intersection are not supported",
			}, true
		}
	case efp.TokenTypeUnknown:
		return Finding{
			Kind:    KindUnknownToken,
			Token:   tok.TValue,
			Message: fmt.Sprintf("unrecognised token %q", tok.TValue),
		}, true
	}
	return Finding{}, false
}

// isReference reports whether an operand names cells rather than a
// variable: ranges, sheet-qualified and absolute references.
func isReference(s string) bool {
	return strings.ContainsAny(s, ":!$")
}

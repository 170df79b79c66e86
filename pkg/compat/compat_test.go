package compat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/xlformula/pkg/compat"
	"github.com/sandrolain/xlformula/pkg/functions"
	"github.com/sandrolain/xlformula/pkg/types"
)

func registry() *functions.Registry {
	r := functions.NewRegistry()
	for _, name := range []string{"SUM", "IF", "AVERAGE"} {
		r.Register(name, func([]types.Value, *types.Context) types.Value { return types.Empty() })
	}
	return r
}

func kinds(fs []compat.Finding) []compat.Kind {
	out := make([]compat.Kind, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Kind)
	}
	return out
}

func TestLint(t *testing.T) {
	tests := []struct {
		formula string
		want    []compat.Kind
	}{
		{"1+2", []compat.Kind{}},
		{"SUM(Price, Tax) * 2", []compat.Kind{}},
		{`IF(A1 > 0, "yes", "no")`, []compat.Kind{}},
		{"=1+2", []compat.Kind{compat.KindLeadingEquals}},
		{"=SUM(A1:A3)", []compat.Kind{compat.KindLeadingEquals, compat.KindReference}},
		{"Sheet1!B2*2", []compat.Kind{compat.KindReference}},
		{"$A$1+1", []compat.Kind{compat.KindReference}},
		{"SUMM(1, 2)", []compat.Kind{compat.KindUnknownFunction}},
		{"10%", []compat.Kind{compat.KindOperator}},
		{"=", []compat.Kind{compat.KindLeadingEquals}},
		{"", []compat.Kind{}},
	}
	reg := registry()
	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			assert.Equal(t, tt.want, kinds(compat.Lint(tt.formula, reg)))
		})
	}
}

func TestLintArrayConstant(t *testing.T) {
	assert.Contains(t, kinds(compat.Lint("SUM({1,2,3})", registry())), compat.KindArrayConstant)
}

func TestLintSuggestsFunctions(t *testing.T) {
	fs := compat.Lint("SUMM(1)", registry())
	require.Len(t, fs, 1)
	assert.Equal(t, "SUMM", fs[0].Token)
	assert.Equal(t, []string{"SUM"}, fs[0].Suggestions)
	assert.Equal(t, "unknown-function: unknown function SUMM (did you mean SUM?)", fs[0].String())
}

func TestLintWithoutRegistry(t *testing.T) {
	assert.Empty(t, compat.Lint("ANYTHING(1)", nil))
}

func TestFindingString(t *testing.T) {
	fs := compat.Lint("=1", nil)
	require.Len(t, fs, 1)
	assert.Equal(t, "leading-equals: formulas are written without a leading '='", fs[0].String())
}

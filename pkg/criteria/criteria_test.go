package criteria_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sandrolain/xlformula/pkg/criteria"
	"github.com/sandrolain/xlformula/pkg/types"
)

var (
	num  = types.NewNumber
	text = types.NewText
)

func TestCompileRelational(t *testing.T) {
	tests := []struct {
		criterion string
		candidate types.Value
		want      bool
	}{
		{">5", num(10), true},
		{">5", num(3), false},
		{">5", num(5), false},
		{">=5", num(5), true},
		{"<=3", num(3), true},
		{"<=3", num(3.5), false},
		{"<3", num(-1), true},
		{"<>5", num(5), false},
		{"<>5", num(4), true},
		{"=7", num(7), true},
		{"= 7 ", num(7), true},
		{">1e2", num(101), true},

		// Numeric criteria only see Numbers.
		{">5", text("10"), false},
		{">0", types.NewBoolean(true), false},
		{"<>5", types.Empty(), false},

		// Textual criteria only see Text, compared byte-wise.
		{">banana", text("cherry"), true},
		{">banana", text("apple"), false},
		{"<cherry", text("banana"), true},
		{"<>apple", text("pear"), true},
		{"<>apple", num(1), false},
		{"=apple", text("apple"), true},
		{"=apple", text("Apple"), false},
		{"=", text(""), true},
	}
	for _, tt := range tests {
		t.Run(tt.criterion+"/"+tt.candidate.String(), func(t *testing.T) {
			p := criteria.Compile(text(tt.criterion))
			assert.True(t, p.IsRelational())
			assert.Equal(t, tt.want, p.Matches(tt.candidate))
		})
	}
}

func TestCompileEquality(t *testing.T) {
	p := criteria.Compile(num(5))
	assert.False(t, p.IsRelational())
	assert.True(t, p.Matches(num(5)))
	assert.False(t, p.Matches(text("5")))

	p = criteria.Compile(text("apple"))
	assert.True(t, p.Matches(text("apple")))
	assert.False(t, p.Matches(text("APPLE")))

	p = criteria.Compile(types.NewBoolean(true))
	assert.True(t, p.Matches(types.NewBoolean(true)))
	assert.False(t, p.Matches(num(1)))

	p = criteria.Compile(text(""))
	assert.True(t, p.Matches(text("")))
	assert.False(t, p.Matches(types.Empty()))

	var zero criteria.Predicate
	assert.True(t, zero.Matches(types.Empty()))
	assert.False(t, zero.Matches(num(0)))
}

func TestWildcards(t *testing.T) {
	tests := []struct {
		pattern   string
		candidate string
		want      bool
	}{
		{"app*", "apple", true},
		{"app*", "application", true},
		{"app*", "banana", false},
		{"APP*", "apple", true},
		{"ca?", "cat", true},
		{"ca?", "cart", false},
		{"*an*", "banana", true},
		{"b*a", "banana", true},
		{"b*n", "banana", false},
		{"*", "", true},
		{"?", "", false},
		{"what~?", "what?", true},
		{"what~?", "whats", false},
		{"~*star", "*star", true},
		{"??", "日本", true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.candidate, func(t *testing.T) {
			p := criteria.Compile(text(tt.pattern), criteria.WithWildcards())
			assert.Equal(t, tt.want, p.Matches(text(tt.candidate)))
		})
	}

	p := criteria.Compile(text("1*"), criteria.WithWildcards())
	assert.False(t, p.Matches(num(10)), "patterns only match Text")
}

func TestWildcardsAreOptIn(t *testing.T) {
	p := criteria.Compile(text("app*"))
	assert.False(t, p.Matches(text("apple")))
	assert.True(t, p.Matches(text("app*")))
}

func TestCriterionAccessor(t *testing.T) {
	c := text(">=10")
	assert.True(t, criteria.Compile(c).Criterion().Equal(c))
}

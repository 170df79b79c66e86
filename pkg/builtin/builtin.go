// Package builtin provides the standard spreadsheet function library.
//
// Functions are grouped by category, each group available on its own:
//   - Logical:     IF, IFS, IFERROR, IFNA, AND, OR, XOR, NOT, SWITCH, CHOOSE, …
//   - Information: ISNUMBER, ISTEXT, ISBLANK, ISERROR, ISNA, NA, …
//   - Math:        SUM, PRODUCT, ROUND, MOD, POWER, SQRT, SUMIF, SUMIFS, …
//   - Statistical: AVERAGE, COUNT, COUNTIF, MAX, MIN, MEDIAN, STDEV, …
//   - Text:        CONCATENATE, LEN, LEFT, MID, UPPER, SUBSTITUTE, FIND, …
//   - DateTime:    DATE, YEAR, WEEKDAY, EDATE, EOMONTH, TODAY, NOW, …
//
// # Integration – all functions at once
//
//	reg := builtin.NewRegistry()
//	ev := evaluator.New(reg)
//
// # Integration – into an existing registry
//
//	reg := functions.NewRegistry()
//	builtin.Register(reg, builtin.WithClock(fixedClock))
//
// # Integration – by category
//
//	for _, def := range builtin.Text() {
//	    reg.RegisterDef(def)
//	}
package builtin

import (
	"time"

	"github.com/sandrolain/xlformula/pkg/criteria"
	"github.com/sandrolain/xlformula/pkg/functions"
)

// Category names used in Def.Category.
const (
	CategoryLogical     = "logical"
	CategoryInformation = "information"
	CategoryMath        = "math"
	CategoryStatistical = "statistical"
	CategoryText        = "text"
	CategoryDateTime    = "datetime"
)

// Option configures the library.
type Option func(*config)

type config struct {
	clock     func() time.Time
	date1904  bool
	wildcards bool
}

// WithClock sets the time source of TODAY and NOW.
func WithClock(clock func() time.Time) Option {
	return func(c *config) {
		c.clock = clock
	}
}

// With1904Dates switches serial date numbers to the 1904 date system.
func With1904Dates() Option {
	return func(c *config) {
		c.date1904 = true
	}
}

// WithWildcards enables * and ? patterns in the criteria of COUNTIF,
// SUMIF and the other conditional aggregates.
func WithWildcards() Option {
	return func(c *config) {
		c.wildcards = true
	}
}

func newConfig(opts []Option) *config {
	c := &config{clock: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	if c.clock == nil {
		c.clock = time.Now
	}
	return c
}

func (c *config) criteriaOptions() []criteria.Option {
	if c.wildcards {
		return []criteria.Option{criteria.WithWildcards()}
	}
	return nil
}

// All returns every built-in definition.
func All(opts ...Option) []functions.Def {
	c := newConfig(opts)
	var all []functions.Def
	all = append(all, logical()...)
	all = append(all, c.information()...)
	all = append(all, c.math()...)
	all = append(all, c.statistical()...)
	all = append(all, text()...)
	all = append(all, c.dateTime()...)
	return all
}

// Logical returns the logical function definitions.
func Logical() []functions.Def { return logical() }

// Information returns the IS* inspectors, NA and N.
func Information(opts ...Option) []functions.Def { return newConfig(opts).information() }

// Math returns the math function definitions, including SUMIF and SUMIFS.
func Math(opts ...Option) []functions.Def { return newConfig(opts).math() }

// Statistical returns the statistical function definitions.
func Statistical(opts ...Option) []functions.Def { return newConfig(opts).statistical() }

// Text returns the text function definitions.
func Text() []functions.Def { return text() }

// DateTime returns the date and time function definitions.
func DateTime(opts ...Option) []functions.Def { return newConfig(opts).dateTime() }

// Register adds every built-in to r, replacing functions of the same name.
func Register(r *functions.Registry, opts ...Option) {
	for _, def := range All(opts...) {
		r.RegisterDef(def)
	}
}

// NewRegistry returns a registry pre-populated with the built-ins.
func NewRegistry(opts ...Option) *functions.Registry {
	r := functions.NewRegistry()
	Register(r, opts...)
	return r
}

// def is shorthand for a Def with fixed bounds.
func def(name, category string, minArgs, maxArgs int, fn functions.Func) functions.Def {
	return functions.Def{
		Name:     name,
		MinArgs:  minArgs,
		MaxArgs:  maxArgs,
		Category: category,
		Fn:       fn,
	}
}

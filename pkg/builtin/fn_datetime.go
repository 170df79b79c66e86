package builtin

import (
	"math"
	"time"

	"github.com/sandrolain/xlformula/pkg/functions"
	"github.com/sandrolain/xlformula/pkg/types"
)

func (c *config) dateTime() []functions.Def {
	return []functions.Def{
		def("DATE", CategoryDateTime, 3, 3, c.fnDate),
		def("DATEVALUE", CategoryDateTime, 1, 1, fnDateValue),
		def("YEAR", CategoryDateTime, 1, 1, c.part(func(t time.Time) int { return t.Year() })),
		def("MONTH", CategoryDateTime, 1, 1, c.part(func(t time.Time) int { return int(t.Month()) })),
		def("DAY", CategoryDateTime, 1, 1, c.part(time.Time.Day)),
		def("HOUR", CategoryDateTime, 1, 1, c.part(time.Time.Hour)),
		def("MINUTE", CategoryDateTime, 1, 1, c.part(time.Time.Minute)),
		def("SECOND", CategoryDateTime, 1, 1, c.part(time.Time.Second)),
		def("WEEKDAY", CategoryDateTime, 1, 2, c.fnWeekday),
		def("TODAY", CategoryDateTime, 0, 0, c.fnToday),
		def("NOW", CategoryDateTime, 0, 0, c.fnNow),
		def("EDATE", CategoryDateTime, 2, 2, c.fnEDate),
		def("EOMONTH", CategoryDateTime, 2, 2, c.fnEOMonth),
		def("DAYS", CategoryDateTime, 2, 2, c.fnDays),
	}
}

// DATE(year, month, day). Years below 1900 are offsets from 1900;
// months and days outside their range roll over.
func (c *config) fnDate(args []types.Value, _ *types.Context) types.Value {
	var parts [3]int
	for i := range parts {
		n, e := functions.IntArg(args[i])
		if e.IsError() {
			return e
		}
		parts[i] = n
	}
	year := parts[0]
	if year >= 0 && year < 1900 {
		year += 1900
	}
	if year < 0 || year > 9999 {
		return types.NewError(types.ErrNum)
	}
	t := time.Date(year, time.Month(parts[1]), parts[2], 0, 0, 0, 0, time.UTC)
	if t.Year() < 1900 || t.Year() > 9999 {
		return types.NewError(types.ErrNum)
	}
	return types.NewDate(t)
}

func fnDateValue(args []types.Value, _ *types.Context) types.Value {
	v := args[0]
	if !v.IsText() {
		return types.NewError(types.ErrValue)
	}
	t, ok := parseDate(v.Str())
	if !ok {
		return types.NewError(types.ErrValue)
	}
	return types.NewDate(t)
}

// part builds the YEAR, MONTH, ... extractors.
func (c *config) part(get func(time.Time) int) functions.Func {
	return func(args []types.Value, _ *types.Context) types.Value {
		t, e := c.dateArg(args[0])
		if e.IsError() {
			return e
		}
		return types.NewNumber(float64(get(t)))
	}
}

// WEEKDAY(date, [type]). Type 1 numbers Sunday..Saturday as 1..7,
// type 2 Monday..Sunday as 1..7, type 3 Monday..Sunday as 0..6.
func (c *config) fnWeekday(args []types.Value, _ *types.Context) types.Value {
	t, e := c.dateArg(args[0])
	if e.IsError() {
		return e
	}
	kind := 1
	if len(args) == 2 {
		if kind, e = functions.IntArg(args[1]); e.IsError() {
			return e
		}
	}
	wd := int(t.Weekday()) // Sunday = 0
	switch kind {
	case 1:
		return types.NewNumber(float64(wd + 1))
	case 2:
		return types.NewNumber(float64((wd+6)%7 + 1))
	case 3:
		return types.NewNumber(float64((wd + 6) % 7))
	}
	return types.NewError(types.ErrNum)
}

func (c *config) fnToday(_ []types.Value, _ *types.Context) types.Value {
	now := c.clock()
	return types.NewDate(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()))
}

func (c *config) fnNow(_ []types.Value, _ *types.Context) types.Value {
	return types.NewDate(c.clock())
}

// addMonths moves t by n months, clamping the day to the target month.
func addMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1).Day()
	return first.AddDate(0, 0, min(t.Day(), last)-1)
}

// EDATE(start, months) returns the same day n months away.
func (c *config) fnEDate(args []types.Value, _ *types.Context) types.Value {
	t, e := c.dateArg(args[0])
	if e.IsError() {
		return e
	}
	n, e := functions.IntArg(args[1])
	if e.IsError() {
		return e
	}
	return types.NewDate(addMonths(t, n))
}

// EOMONTH(start, months) returns the last day of the month n months away.
func (c *config) fnEOMonth(args []types.Value, _ *types.Context) types.Value {
	t, e := c.dateArg(args[0])
	if e.IsError() {
		return e
	}
	n, e := functions.IntArg(args[1])
	if e.IsError() {
		return e
	}
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	return types.NewDate(first.AddDate(0, 1, -1))
}

// DAYS(end, start) counts whole days between two dates.
func (c *config) fnDays(args []types.Value, _ *types.Context) types.Value {
	end, e := c.dateArg(args[0])
	if e.IsError() {
		return e
	}
	start, e := c.dateArg(args[1])
	if e.IsError() {
		return e
	}
	return types.NewNumber(math.Trunc(c.toSerial(end)) - math.Trunc(c.toSerial(start)))
}

package builtin

import (
	"math"
	"slices"

	"github.com/sandrolain/xlformula/pkg/functions"
	"github.com/sandrolain/xlformula/pkg/types"
)

func (c *config) statistical() []functions.Def {
	return []functions.Def{
		def("AVERAGE", CategoryStatistical, 1, -1, fnAverage),
		def("AVERAGEIF", CategoryStatistical, 2, 3, c.fnAverageIf),
		def("AVERAGEIFS", CategoryStatistical, 3, -1, c.fnAverageIfs),
		def("COUNT", CategoryStatistical, 0, -1, fnCount),
		def("COUNTA", CategoryStatistical, 0, -1, fnCountA),
		def("COUNTBLANK", CategoryStatistical, 1, -1, fnCountBlank),
		def("COUNTIF", CategoryStatistical, 2, -1, c.fnCountIf),
		def("COUNTIFS", CategoryStatistical, 2, -1, c.fnCountIfs),
		def("MAX", CategoryStatistical, 1, -1, extreme(1)),
		def("MIN", CategoryStatistical, 1, -1, extreme(-1)),
		def("MEDIAN", CategoryStatistical, 1, -1, fnMedian),
		def("MODE", CategoryStatistical, 1, -1, fnMode),
		def("LARGE", CategoryStatistical, 2, 2, kth(true)),
		def("SMALL", CategoryStatistical, 2, 2, kth(false)),
		def("STDEV", CategoryStatistical, 1, -1, fnStdev),
		def("VAR", CategoryStatistical, 1, -1, fnVar),
	}
}

func fnAverage(args []types.Value, _ *types.Context) types.Value {
	ns := functions.Numbers(args)
	sum := 0.0
	for _, n := range ns {
		sum += n
	}
	return mean(sum, len(ns))
}

// COUNT counts numbers and dates. Direct scalar arguments that read as
// numbers count as well.
func fnCount(args []types.Value, _ *types.Context) types.Value {
	n := 0
	for _, a := range args {
		if a.IsArray() {
			for _, it := range a.Items() {
				if it.IsNumber() || it.IsDate() {
					n++
				}
			}
			continue
		}
		if a.IsDate() || a.CanConvertToNumber() {
			n++
		}
	}
	return types.NewNumber(float64(n))
}

func fnCountA(args []types.Value, _ *types.Context) types.Value {
	n := 0
	for _, v := range functions.Flatten(args) {
		if !v.IsEmpty() {
			n++
		}
	}
	return types.NewNumber(float64(n))
}

// COUNTBLANK counts Empty values and empty Text.
func fnCountBlank(args []types.Value, _ *types.Context) types.Value {
	n := 0
	for _, v := range functions.Flatten(args) {
		if v.IsEmpty() || (v.IsText() && v.Str() == "") {
			n++
		}
	}
	return types.NewNumber(float64(n))
}

// extreme builds MAX (dir 1) and MIN (dir -1) as a scan for the extreme
// value under the total order of Values. Empty is skipped; no value at
// all gives 0.
func extreme(dir int) functions.Func {
	return func(args []types.Value, _ *types.Context) types.Value {
		var best types.Value
		found := false
		for _, v := range functions.Flatten(args) {
			if v.IsEmpty() {
				continue
			}
			if !found || v.Compare(best)*dir > 0 {
				best = v
				found = true
			}
		}
		if !found {
			return types.NewNumber(0)
		}
		return best
	}
}

func fnMedian(args []types.Value, _ *types.Context) types.Value {
	ns := functions.Numbers(args)
	if len(ns) == 0 {
		return types.NewError(types.ErrNum)
	}
	slices.Sort(ns)
	mid := len(ns) / 2
	if len(ns)%2 == 1 {
		return types.NewNumber(ns[mid])
	}
	return number((ns[mid-1] + ns[mid]) / 2)
}

// MODE returns the most frequent number, the earliest one on ties.
// Without any repeated number the result is #N/A.
func fnMode(args []types.Value, _ *types.Context) types.Value {
	ns := functions.Numbers(args)
	counts := make(map[float64]int, len(ns))
	top := 1
	for _, n := range ns {
		counts[n]++
		top = max(top, counts[n])
	}
	if top < 2 {
		return types.NewError(types.ErrNA)
	}
	for _, n := range ns {
		if counts[n] == top {
			return types.NewNumber(n)
		}
	}
	return types.NewError(types.ErrNA)
}

// kth builds LARGE and SMALL: the k-th largest or smallest number.
func kth(largest bool) functions.Func {
	return func(args []types.Value, _ *types.Context) types.Value {
		ns := functions.Numbers(args[:1])
		k, e := functions.IntArg(args[1])
		if e.IsError() {
			return e
		}
		if k < 1 || k > len(ns) {
			return types.NewError(types.ErrNum)
		}
		slices.Sort(ns)
		if largest {
			return types.NewNumber(ns[len(ns)-k])
		}
		return types.NewNumber(ns[k-1])
	}
}

// variance is the sample variance. Fewer than two numbers is #DIV/0!.
func variance(args []types.Value) (float64, types.Value) {
	ns := functions.Numbers(args)
	if len(ns) < 2 {
		return 0, types.NewError(types.ErrDivZero)
	}
	avg := 0.0
	for _, n := range ns {
		avg += n
	}
	avg /= float64(len(ns))
	ss := 0.0
	for _, n := range ns {
		ss += (n - avg) * (n - avg)
	}
	return ss / float64(len(ns)-1), types.Value{}
}

func fnVar(args []types.Value, _ *types.Context) types.Value {
	v, e := variance(args)
	if e.IsError() {
		return e
	}
	return number(v)
}

func fnStdev(args []types.Value, _ *types.Context) types.Value {
	v, e := variance(args)
	if e.IsError() {
		return e
	}
	return number(math.Sqrt(v))
}

package builtin

import (
	"github.com/sandrolain/xlformula/pkg/criteria"
	"github.com/sandrolain/xlformula/pkg/types"
)

// cells returns the items of a range argument. A scalar is a one-cell range.
func cells(v types.Value) []types.Value {
	if v.IsArray() {
		return v.Items()
	}
	return []types.Value{v}
}

// mask evaluates (range, criterion) pairs and reports, per cell index,
// whether every pair matched. All ranges must share the size of the
// first one.
func (c *config) mask(pairs []types.Value, size int) ([]bool, types.Value) {
	if len(pairs) == 0 || len(pairs)%2 != 0 {
		return nil, types.NewError(types.ErrValue)
	}
	if size < 0 {
		size = len(cells(pairs[0]))
	}
	out := make([]bool, size)
	for i := range out {
		out[i] = true
	}
	for i := 0; i < len(pairs); i += 2 {
		rng := cells(pairs[i])
		if len(rng) != size {
			return nil, types.NewError(types.ErrValue)
		}
		p := criteria.Compile(pairs[i+1], c.criteriaOptions()...)
		for j, cell := range rng {
			if out[j] && !p.Matches(cell) {
				out[j] = false
			}
		}
	}
	return out, types.Value{}
}

// aggregate sums the Numbers of target whose mask entry is set.
func aggregate(target []types.Value, mask []bool) (sum float64, count int) {
	for i, cell := range target {
		if mask[i] && cell.IsNumber() {
			sum += cell.Num()
			count++
		}
	}
	return sum, count
}

// COUNTIF(range, criterion). Extra leading arguments are treated as
// further cells of the range.
func (c *config) fnCountIf(args []types.Value, _ *types.Context) types.Value {
	last := len(args) - 1
	p := criteria.Compile(args[last], c.criteriaOptions()...)
	n := 0
	for _, a := range args[:last] {
		for _, cell := range cells(a) {
			if p.Matches(cell) {
				n++
			}
		}
	}
	return types.NewNumber(float64(n))
}

// COUNTIFS(range1, criterion1, [range2, criterion2], ...).
func (c *config) fnCountIfs(args []types.Value, _ *types.Context) types.Value {
	m, e := c.mask(args, -1)
	if e.IsError() {
		return e
	}
	n := 0
	for _, ok := range m {
		if ok {
			n++
		}
	}
	return types.NewNumber(float64(n))
}

// rangeAndTarget splits the (range, criterion, [target]) form of SUMIF
// and AVERAGEIF.
func (c *config) rangeAndTarget(args []types.Value) ([]types.Value, []bool, types.Value) {
	target := cells(args[0])
	if len(args) == 3 {
		target = cells(args[2])
	}
	m, e := c.mask(args[:2], len(target))
	return target, m, e
}

// SUMIF(range, criterion, [sum_range]).
func (c *config) fnSumIf(args []types.Value, _ *types.Context) types.Value {
	target, m, e := c.rangeAndTarget(args)
	if e.IsError() {
		return e
	}
	sum, _ := aggregate(target, m)
	return number(sum)
}

// SUMIFS(sum_range, range1, criterion1, ...).
func (c *config) fnSumIfs(args []types.Value, _ *types.Context) types.Value {
	target := cells(args[0])
	m, e := c.mask(args[1:], len(target))
	if e.IsError() {
		return e
	}
	sum, _ := aggregate(target, m)
	return number(sum)
}

// AVERAGEIF(range, criterion, [average_range]).
func (c *config) fnAverageIf(args []types.Value, _ *types.Context) types.Value {
	target, m, e := c.rangeAndTarget(args)
	if e.IsError() {
		return e
	}
	return mean(aggregate(target, m))
}

// AVERAGEIFS(average_range, range1, criterion1, ...).
func (c *config) fnAverageIfs(args []types.Value, _ *types.Context) types.Value {
	target := cells(args[0])
	m, e := c.mask(args[1:], len(target))
	if e.IsError() {
		return e
	}
	return mean(aggregate(target, m))
}

func mean(sum float64, count int) types.Value {
	if count == 0 {
		return types.NewError(types.ErrDivZero)
	}
	return number(sum / float64(count))
}

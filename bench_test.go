// Benchmarks for parsing and evaluation.
//
//	go test -bench=. -benchmem .
//	go test -bench=BenchmarkEngine -benchmem .
package xlformula_test

import (
	"fmt"
	"testing"

	"github.com/sandrolain/xlformula"
	"github.com/sandrolain/xlformula/pkg/builtin"
	"github.com/sandrolain/xlformula/pkg/evaluator"
	"github.com/sandrolain/xlformula/pkg/parser"
	"github.com/sandrolain/xlformula/pkg/types"
)

var benchFormulas = map[string]string{
	"literal":     "42",
	"arithmetic":  "(A + B) * C / 2 - 1",
	"nested_if":   `IF(A > 10, "big", IF(A > 5, "medium", "small"))`,
	"aggregate":   "SUM(Values) / COUNT(Values)",
	"conditional": `SUMIF(Values, ">50") + COUNTIF(Values, "<10")`,
	"text":        `UPPER(LEFT(Name, 3)) & "-" & TEXT_ID`,
}

func benchContext() *types.Context {
	ctx := types.NewContext()
	ctx.Set("A", types.NewNumber(7))
	ctx.Set("B", types.NewNumber(3))
	ctx.Set("C", types.NewNumber(2))
	ctx.Set("Name", types.NewText("benchmark"))
	ctx.Set("TEXT_ID", types.NewText("0042"))
	items := make([]types.Value, 1000)
	for i := range items {
		items[i] = types.NewNumber(float64(i % 100))
	}
	ctx.Set("Values", types.NewArray(items...))
	return ctx
}

func BenchmarkParse(b *testing.B) {
	for name, src := range benchFormulas {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				if _, err := parser.Parse(src); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkEval(b *testing.B) {
	ev := evaluator.New(builtin.NewRegistry())
	ctx := benchContext()
	for name, src := range benchFormulas {
		expr := parser.MustParse(src)
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				ev.Eval(expr, ctx)
			}
		})
	}
}

func BenchmarkEngine(b *testing.B) {
	for _, cached := range []bool{false, true} {
		opts := []xlformula.Option{xlformula.WithContext(benchContext())}
		if cached {
			opts = append(opts, xlformula.WithCaching(64))
		}
		eng := xlformula.New(opts...)
		b.Run(fmt.Sprintf("cached=%v", cached), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				eng.Evaluate(benchFormulas["conditional"])
			}
		})
	}
}

package evaluator_test

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/xlformula/pkg/evaluator"
	"github.com/sandrolain/xlformula/pkg/functions"
	"github.com/sandrolain/xlformula/pkg/metrics"
	"github.com/sandrolain/xlformula/pkg/parser"
	"github.com/sandrolain/xlformula/pkg/types"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testRegistry holds just enough functions to exercise call dispatch.
func testRegistry() *functions.Registry {
	r := functions.NewRegistry()
	r.RegisterDef(functions.Def{
		Name: "IF", MinArgs: 2, MaxArgs: 3,
		Fn: func(args []types.Value, _ *types.Context) types.Value {
			if functions.Truthy(args[0]) {
				return args[1]
			}
			if len(args) == 3 {
				return args[2]
			}
			return types.NewBoolean(false)
		},
	})
	r.RegisterDef(functions.Def{
		Name: "NA", MaxArgs: 0,
		Fn: func([]types.Value, *types.Context) types.Value { return types.NewError(types.ErrNA) },
	})
	r.RegisterDef(functions.Def{
		Name: "IFERROR", MinArgs: 2, MaxArgs: 2, PassErrors: true,
		Fn: func(args []types.Value, _ *types.Context) types.Value {
			if args[0].IsError() {
				return args[1]
			}
			return args[0]
		},
	})
	r.Register("SUM", func(args []types.Value, _ *types.Context) types.Value {
		total := 0.0
		for _, n := range functions.Numbers(args) {
			total += n
		}
		return types.NewNumber(total)
	})
	r.Register("BOOM", func([]types.Value, *types.Context) types.Value {
		panic("boom")
	})
	r.Register("GET", func(args []types.Value, ctx *types.Context) types.Value {
		return ctx.Get(args[0].Str())
	})
	return r
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return tm
}

func eval(t *testing.T, formula string, ctx *types.Context, opts ...evaluator.EvalOption) types.Value {
	t.Helper()
	expr, err := parser.Parse(formula)
	require.NoError(t, err, formula)
	opts = append([]evaluator.EvalOption{evaluator.WithLogger(quietLogger())}, opts...)
	return evaluator.New(testRegistry(), opts...).Eval(expr, ctx)
}

func TestEvalNumbers(t *testing.T) {
	ctx := types.NewContext()
	ctx.Set("A1", types.NewNumber(2))
	ctx.Set("T", types.NewText("3"))
	ctx.Set("B", types.NewBoolean(true))

	tests := []struct {
		formula string
		want    float64
	}{
		{"1+2*3", 7},
		{"(1+2)*3", 9},
		{"2^3^2", 512},
		{"(2^3)^2", 64},
		{"-2^2", 4},
		{"10-4-3", 3},
		{"8/2/2", 2},
		{"1 ++ 2", 3},
		{"--3", 3},
		{"0^0", 1},
		{"UNKNOWN_VAR + 1", 1},
		{"-UNKNOWN_VAR", 0},
		{"A1 * A1", 4},
		{"T + 1", 4},
		{"B + 1", 2},
		{`"  5 " * 2`, 10},
		{"TRUE + TRUE", 2},
		{"SUM(1, A1, T)", 6},
		{"IF(A1 > 1, 10, 20)", 10},
		{"IFERROR(1/0, 7)", 7},
	}
	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			got := eval(t, tt.formula, ctx)
			require.True(t, got.IsNumber(), "got %#v", got)
			assert.InDelta(t, tt.want, got.Num(), 1e-12)
		})
	}
}

func TestEvalErrors(t *testing.T) {
	tests := []struct {
		formula string
		want    types.ErrorType
	}{
		{"5/0", types.ErrDivZero},
		{"5/EMPTY", types.ErrDivZero},
		{"0^-1", types.ErrNum},
		{"(-8)^(1/3)", types.ErrNum},
		{"10^400", types.ErrNum},
		{"1e308 * 10", types.ErrNum},
		{`"a" + 1`, types.ErrValue},
		{`-"x"`, types.ErrValue},
		{"NOPE(1)", types.ErrName},
		{"NOPE(1/0)", types.ErrName},
		{"NOPE(NA())", types.ErrName},
		{"IF(TRUE, 1, 1/0)", types.ErrDivZero},
		{"IF(TRUE)", types.ErrValue},
		{"BOOM()", types.ErrValue},

		// Left to right, first error wins and keeps its type.
		{"NA() + 1/0", types.ErrNA},
		{"1/0 + NA()", types.ErrDivZero},
		{`NA() & "x"`, types.ErrNA},
		{"NA() = 1", types.ErrNA},
		{"1 < NA()", types.ErrNA},
		{"-NA()", types.ErrNA},
		{"SUM(1, NA(), 1/0)", types.ErrNA},
		{"IFERROR(NA(), 1/0)", types.ErrDivZero},
	}
	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			got := eval(t, tt.formula, nil)
			require.True(t, got.IsError(), "got %#v", got)
			assert.Equal(t, tt.want, got.Err())
		})
	}
}

func TestEvalTextAndComparison(t *testing.T) {
	ctx := types.NewContext()
	ctx.Set("D", types.NewDate(mustDate(t, "2024-03-01")))

	tests := []struct {
		formula string
		want    types.Value
	}{
		{`"a" & "b"`, types.NewText("ab")},
		{`1 & 2`, types.NewText("12")},
		{`1.5 & ""`, types.NewText("1.5")},
		{`TRUE & MISSING`, types.NewText("TRUE")},
		{`"day " & D`, types.NewText("day 2024-03-01")},
		{`1 = 1`, types.NewBoolean(true)},
		{`1 = "1"`, types.NewBoolean(false)},
		{`1 <> "1"`, types.NewBoolean(true)},
		{`"A" = "a"`, types.NewBoolean(false)},
		{`"b" > "a"`, types.NewBoolean(true)},
		{`"B" < "a"`, types.NewBoolean(true)},
		{`1 < "a"`, types.NewBoolean(true)},
		{`TRUE > 1`, types.NewBoolean(true)},
		{`FALSE < TRUE`, types.NewBoolean(true)},
		{`2 >= 2`, types.NewBoolean(true)},
		{`3 <= 2`, types.NewBoolean(false)},
		{`MISSING = MISSING`, types.NewBoolean(true)},
		{`1 + 1 = 2`, types.NewBoolean(true)},
		{`1 & 1 + 1`, types.NewText("12")},
	}
	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			got := eval(t, tt.formula, ctx)
			assert.True(t, tt.want.Equal(got), "want %#v, got %#v", tt.want, got)
		})
	}
}

func TestEvalIsIdempotentAndLeavesContextAlone(t *testing.T) {
	ctx := types.NewContext()
	ctx.Set("X", types.NewNumber(5))
	expr := parser.MustParse("X / 0 + GET(\"X\")")
	ev := evaluator.New(testRegistry(), evaluator.WithLogger(quietLogger()))

	first := ev.Eval(expr, ctx)
	second := ev.Eval(expr, ctx)
	assert.Equal(t, types.ErrDivZero, first.Err())
	assert.True(t, first.Equal(second))
	assert.Equal(t, []string{"X"}, ctx.Names())
	assert.Equal(t, 5.0, ctx.Get("X").Num())
}

func TestEvalMaxDepth(t *testing.T) {
	got := eval(t, "1+(2+(3+4))", nil, evaluator.WithMaxDepth(3))
	assert.Equal(t, types.ErrValue, got.Err())

	got = eval(t, "1+(2+(3+4))", nil, evaluator.WithMaxDepth(4))
	assert.Equal(t, 10.0, got.Num())

	got = eval(t, "1+(2+(3+4))", nil, evaluator.WithMaxDepth(0))
	assert.Equal(t, 10.0, got.Num())
}

func TestEvalFlatChains(t *testing.T) {
	sum := "1" + strings.Repeat("+1", 1999)
	got := eval(t, sum, nil)
	require.True(t, got.IsNumber(), "got %#v", got)
	assert.Equal(t, 2000.0, got.Num())

	concat := "1" + strings.Repeat(`&"x"`, 1999)
	got = eval(t, concat, nil)
	require.True(t, got.IsText(), "got %#v", got)
	assert.Len(t, got.Str(), 2000)

	// A flat chain stays flat under a tight limit; right nesting does not.
	got = eval(t, "1+2+3+4+5", nil, evaluator.WithMaxDepth(2))
	assert.Equal(t, 15.0, got.Num())
	got = eval(t, "1+(2+(3+4))", nil, evaluator.WithMaxDepth(2))
	assert.Equal(t, types.ErrValue, got.Err())
}

func TestUnknownFunctionEvaluatesArguments(t *testing.T) {
	reg := prometheus.NewRegistry()
	ev := evaluator.New(testRegistry(),
		evaluator.WithLogger(quietLogger()),
		evaluator.WithMetrics(metrics.New(reg)))

	v, tr := ev.EvalWithTrace(parser.MustParse("NOPE(SUM(1, 2), 1/0)"), nil)
	assert.Equal(t, types.ErrName, v.Err())
	require.NotNil(t, tr)
	require.Len(t, tr.Children, 2)
	assert.True(t, tr.Children[0].Value.Equal(types.NewNumber(3)))
	assert.Equal(t, types.ErrDivZero, tr.Children[1].Value.Err())

	out := tr.String()
	assert.True(t, strings.HasPrefix(out, "#1 call NOPE() => #NAME?\n"), out)
	assert.Contains(t, out, "  #2 call SUM() => 3\n")

	expected := `
# HELP xlformula_function_calls_total Function invocations, by function and status (ok, error, unknown).
# TYPE xlformula_function_calls_total counter
xlformula_function_calls_total{function="NOPE",status="unknown"} 1
xlformula_function_calls_total{function="SUM",status="ok"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"xlformula_function_calls_total"))
}

func TestEvalNilInputs(t *testing.T) {
	ev := evaluator.New(nil)
	assert.Equal(t, types.ErrValue, ev.Eval(nil, nil).Err())
	assert.Equal(t, types.ErrValue, ev.EvalNode(nil, nil).Err())
	assert.Equal(t, types.ErrName, ev.Eval(parser.MustParse("SUM(1)"), nil).Err())
	assert.NotNil(t, ev.Registry())
}

func TestEvalNodeHandBuilt(t *testing.T) {
	node := types.NewNode(types.NodeBinary, 0)
	node.Op = types.OpMul
	node.LHS = types.NewNode(types.NodeVariable, 0)
	node.LHS.Name = "N"
	node.RHS = types.NewNode(types.NodeLiteral, 0)
	node.RHS.Value = types.NewNumber(3)

	ctx := types.NewContext()
	ctx.Set("N", types.NewNumber(4))
	got := evaluator.New(nil).EvalNode(node, ctx)
	assert.Equal(t, 12.0, got.Num())

	node.RHS = nil
	assert.Equal(t, types.ErrValue, evaluator.New(nil).EvalNode(node, ctx).Err())
}

func TestPanicIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ev := evaluator.New(testRegistry(), evaluator.WithLogger(logger))

	got := ev.Eval(parser.MustParse("1 + BOOM()"), nil)
	assert.Equal(t, types.ErrValue, got.Err())
	assert.Contains(t, buf.String(), "function panicked")
	assert.Contains(t, buf.String(), "name=BOOM")
}

func TestDebugLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ev := evaluator.New(testRegistry(), evaluator.WithLogger(logger), evaluator.WithDebug(true))

	ev.Eval(parser.MustParse("SUMM(1)"), nil)
	out := buf.String()
	assert.Contains(t, out, "evaluating node")
	assert.Contains(t, out, "unknown function")
	assert.Contains(t, out, "SUM")
}

func TestEvalWithTrace(t *testing.T) {
	ctx := types.NewContext()
	ctx.Set("A1", types.NewNumber(2))
	ev := evaluator.New(testRegistry())

	v, tr := ev.EvalWithTrace(parser.MustParse(`1 + A1 * SUM(3, "4")`), ctx)
	require.NotNil(t, tr)
	assert.Equal(t, 15.0, v.Num())
	assert.Equal(t, types.NodeBinary, tr.Kind)
	assert.Equal(t, "+", tr.Label)
	require.Len(t, tr.Children, 2)
	assert.Equal(t, "1", tr.Children[0].Label)

	var ids []int
	tr.Walk(func(n *evaluator.Trace) { ids = append(ids, n.ID) })
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, ids)

	out := tr.String()
	assert.True(t, strings.HasPrefix(out, "#1 binary + => 15\n"), out)
	assert.Contains(t, out, "    #5 call SUM() => 7\n")
	assert.Contains(t, out, `      #7 literal "4" => 4`)

	v, tr = ev.EvalWithTrace(nil, nil)
	assert.Equal(t, types.ErrValue, v.Err())
	assert.Nil(t, tr)
}

func TestEvalMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	ev := evaluator.New(testRegistry(),
		evaluator.WithLogger(quietLogger()),
		evaluator.WithMetrics(metrics.New(reg)))

	ev.Eval(parser.MustParse("SUM(1, 2)"), nil)
	ev.Eval(parser.MustParse("SUMM(1)"), nil)

	expected := `
# HELP xlformula_function_calls_total Function invocations, by function and status (ok, error, unknown).
# TYPE xlformula_function_calls_total counter
xlformula_function_calls_total{function="SUM",status="ok"} 1
xlformula_function_calls_total{function="SUMM",status="unknown"} 1
# HELP xlformula_evaluations_total Formulas evaluated, by status (ok, error).
# TYPE xlformula_evaluations_total counter
xlformula_evaluations_total{status="error"} 1
xlformula_evaluations_total{status="ok"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"xlformula_function_calls_total", "xlformula_evaluations_total"))
}

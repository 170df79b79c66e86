// Package evaluator walks parsed formulas and produces Values.
//
// The evaluator receives an Expression from the parser and evaluates it
// against a caller-owned variable Context, dispatching function calls
// through a functions.Registry. Evaluation is total: every failure, from
// an unknown function to a panicking built-in, surfaces as an Error
// Value rather than a Go error or a panic.
//
// # Example
//
//	expr, _ := parser.Parse("SUM(A1, A2) * 2")
//	ctx := types.NewContext()
//	ctx.Set("A1", types.NewNumber(1))
//	ctx.Set("A2", types.NewNumber(2))
//
//	ev := evaluator.New(builtin.NewRegistry())
//	v := ev.Eval(expr, ctx) // Number 6
//
// # Semantics
//
// Operands and arguments are always evaluated eagerly, left to right,
// and the first Error encountered is returned unchanged. Unknown
// variables read as Empty, which counts as 0 in arithmetic and as "" in
// concatenation.
package evaluator

import (
	"log/slog"
	"time"

	"github.com/sandrolain/xlformula/pkg/functions"
	"github.com/sandrolain/xlformula/pkg/metrics"
	"github.com/sandrolain/xlformula/pkg/types"
)

// DefaultMaxDepth bounds the nesting the evaluator will walk.
const DefaultMaxDepth = 1024

// Evaluator evaluates formulas. It holds no per-evaluation state and is
// safe for concurrent use as long as its registry is not mutated.
type Evaluator struct {
	opts     EvalOptions
	logger   *slog.Logger
	registry *functions.Registry
	metrics  *metrics.Metrics
}

// EvalOptions configures evaluator behavior.
type EvalOptions struct {
	// MaxDepth limits the node nesting depth. Deeper trees evaluate to #VALUE!.
	// The left operand of a binary node shares its parent's level.
	MaxDepth int
	// Debug enables per-node debug logging.
	Debug bool
	// Logger for structured logging.
	Logger *slog.Logger
	// Metrics receives evaluation and call counters. Nil disables them.
	Metrics *metrics.Metrics
}

// EvalOption configures evaluation behavior.
type EvalOption func(*EvalOptions)

// New creates an Evaluator that resolves functions through registry.
// A nil registry behaves as an empty one.
func New(registry *functions.Registry, opts ...EvalOption) *Evaluator {
	options := EvalOptions{
		MaxDepth: DefaultMaxDepth,
	}

	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if registry == nil {
		registry = functions.NewRegistry()
	}

	return &Evaluator{
		opts:     options,
		logger:   options.Logger,
		registry: registry,
		metrics:  options.Metrics,
	}
}

// Registry returns the registry used for function lookup.
func (e *Evaluator) Registry() *functions.Registry {
	return e.registry
}

// Eval evaluates expr against ctx. A nil ctx behaves as an empty context;
// a nil or empty expression evaluates to #VALUE!.
func (e *Evaluator) Eval(expr *types.Expression, ctx *types.Context) types.Value {
	if expr == nil || expr.AST() == nil {
		return types.NewError(types.ErrValue)
	}
	start := time.Now()
	s := &state{ev: e, ctx: ctx}
	result := s.eval(expr.AST())
	e.metrics.ObserveEvaluation(result, time.Since(start))

	if e.opts.Debug {
		e.logger.Debug("evaluated formula",
			"source", expr.Source(),
			"result", result.String(),
			"elapsed", time.Since(start))
	}
	return result
}

// EvalNode evaluates a single subtree. It is the building block for
// callers that construct trees by hand.
func (e *Evaluator) EvalNode(node *types.Node, ctx *types.Context) types.Value {
	if node == nil {
		return types.NewError(types.ErrValue)
	}
	s := &state{ev: e, ctx: ctx}
	return s.eval(node)
}

// WithDebug enables or disables debug logging.
func WithDebug(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Debug = enabled
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EvalOption {
	return func(opts *EvalOptions) {
		opts.Logger = logger
	}
}

// WithMaxDepth sets the maximum nesting depth. Values <= 0 disable the limit.
func WithMaxDepth(depth int) EvalOption {
	return func(opts *EvalOptions) {
		opts.MaxDepth = depth
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Metrics) EvalOption {
	return func(opts *EvalOptions) {
		opts.Metrics = m
	}
}

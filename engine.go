package xlformula

import (
	"log/slog"
	"time"

	"github.com/sandrolain/xlformula/pkg/builtin"
	"github.com/sandrolain/xlformula/pkg/cache"
	"github.com/sandrolain/xlformula/pkg/evaluator"
	"github.com/sandrolain/xlformula/pkg/functions"
	"github.com/sandrolain/xlformula/pkg/metrics"
	"github.com/sandrolain/xlformula/pkg/parser"
	"github.com/sandrolain/xlformula/pkg/types"
)

// Engine bundles a variable context, a function registry and evaluation
// options.
//
// Evaluation never mutates the engine, but SetVariable, RegisterFunction
// and the other mutators are not synchronised: an Engine shared across
// goroutines must not be mutated while it evaluates.
type Engine struct {
	ctx       *types.Context
	registry  *functions.Registry
	eval      *evaluator.Evaluator
	cache     *cache.Cache
	metrics   *metrics.Metrics
	logger    *slog.Logger
	parseOpts []parser.CompileOption
	cacheKey  cache.Key
}

type config struct {
	ctx       *types.Context
	registry  *functions.Registry
	builtins  []builtin.Option
	cacheSize int
	metrics   *metrics.Metrics
	logger    *slog.Logger
	debug     bool
	maxDepth  int
	parseOpts []parser.CompileOption
}

// Option configures an Engine.
type Option func(*config)

// WithContext evaluates against ctx instead of a fresh context. The
// engine's variable methods then modify ctx.
func WithContext(ctx *types.Context) Option {
	return func(c *config) {
		c.ctx = ctx
	}
}

// WithRegistry replaces the built-in function library with r.
func WithRegistry(r *functions.Registry) Option {
	return func(c *config) {
		c.registry = r
	}
}

// WithBuiltins configures the built-in library, e.g. its clock or date
// system. It has no effect together with WithRegistry.
func WithBuiltins(opts ...builtin.Option) Option {
	return func(c *config) {
		c.builtins = append(c.builtins, opts...)
	}
}

// WithCaching keeps up to size parsed formulas in an LRU cache. A size of
// 0 or less uses cache.DefaultCapacity.
func WithCaching(size int) Option {
	return func(c *config) {
		c.cacheSize = size
		if size <= 0 {
			c.cacheSize = cache.DefaultCapacity
		}
	}
}

// WithMetrics records parses, evaluations, calls and cache lookups.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithDebug enables per-node debug logging.
func WithDebug(enabled bool) Option {
	return func(c *config) {
		c.debug = enabled
	}
}

// WithMaxDepth bounds evaluation nesting; see evaluator.WithMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(c *config) {
		c.maxDepth = depth
	}
}

// WithParseOptions applies opts to every parse.
func WithParseOptions(opts ...parser.CompileOption) Option {
	return func(c *config) {
		c.parseOpts = append(c.parseOpts, opts...)
	}
}

// New creates an Engine. Without options it has an empty context and the
// built-in function library.
func New(opts ...Option) *Engine {
	c := config{maxDepth: evaluator.DefaultMaxDepth}
	for _, opt := range opts {
		opt(&c)
	}
	if c.ctx == nil {
		c.ctx = types.NewContext()
	}
	if c.registry == nil {
		c.registry = builtin.NewRegistry(c.builtins...)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	e := &Engine{
		ctx:       c.ctx,
		registry:  c.registry,
		metrics:   c.metrics,
		logger:    c.logger,
		parseOpts: c.parseOpts,
	}
	e.eval = evaluator.New(c.registry,
		evaluator.WithLogger(c.logger),
		evaluator.WithDebug(c.debug),
		evaluator.WithMaxDepth(c.maxDepth),
		evaluator.WithMetrics(c.metrics),
	)
	if c.cacheSize > 0 {
		e.cache = cache.New(c.cacheSize, cache.WithMetrics(c.metrics))
		var po parser.CompileOptions
		for _, opt := range c.parseOpts {
			opt(&po)
		}
		e.cacheKey = cache.Key{MaxDepth: po.MaxDepth}
	}
	return e
}

// Parse parses formula with the engine's parse options, consulting the
// cache when enabled.
func (e *Engine) Parse(formula string) ParseResult {
	parse := func() (*types.Expression, error) {
		expr, err := parser.Parse(formula, e.parseOpts...)
		e.metrics.ObserveParse(err == nil)
		if err != nil {
			e.logger.Debug("parse failed", "formula", formula, "error", err)
		}
		return expr, err
	}
	if e.cache == nil {
		return newParseResult(parse())
	}
	key := e.cacheKey
	key.Source = formula
	return newParseResult(e.cache.GetOrParse(key, parse))
}

// Evaluate parses and evaluates formula against the engine's context.
func (e *Engine) Evaluate(formula string) EvaluationResult {
	res := e.Parse(formula)
	if !res.OK() {
		failed := parseFailure(res)
		e.metrics.ObserveEvaluation(failed.Value, 0)
		return failed
	}
	return EvaluationResult{Value: e.eval.Eval(res.AST, e.ctx)}
}

// EvaluateWith evaluates formula with overrides bound on top of the
// engine's context. The previous bindings are restored afterwards.
func (e *Engine) EvaluateWith(formula string, overrides map[string]types.Value) EvaluationResult {
	type saved struct {
		value types.Value
		bound bool
	}
	prev := make(map[string]saved, len(overrides))
	for name, v := range overrides {
		prev[name] = saved{e.ctx.Get(name), e.ctx.Has(name)}
		e.ctx.Set(name, v)
	}
	defer func() {
		for name, s := range prev {
			if s.bound {
				e.ctx.Set(name, s.value)
			} else {
				e.ctx.Remove(name)
			}
		}
	}()
	return e.Evaluate(formula)
}

// EvaluateWithTrace evaluates formula and also returns the evaluation
// trace. The trace is nil when the formula does not parse.
func (e *Engine) EvaluateWithTrace(formula string) (EvaluationResult, *evaluator.Trace) {
	res := e.Parse(formula)
	if !res.OK() {
		return parseFailure(res), nil
	}
	start := time.Now()
	v, trace := e.eval.EvalWithTrace(res.AST, e.ctx)
	e.metrics.ObserveEvaluation(v, time.Since(start))
	return EvaluationResult{Value: v}, trace
}

// SetVariable binds name to v.
func (e *Engine) SetVariable(name string, v types.Value) { e.ctx.Set(name, v) }

// GetVariable returns the value bound to name, or Empty.
func (e *Engine) GetVariable(name string) types.Value { return e.ctx.Get(name) }

// HasVariable reports whether name is bound.
func (e *Engine) HasVariable(name string) bool { return e.ctx.Has(name) }

// RemoveVariable unbinds name.
func (e *Engine) RemoveVariable(name string) { e.ctx.Remove(name) }

// VariableNames lists bound names in insertion order.
func (e *Engine) VariableNames() []string { return e.ctx.Names() }

// ClearVariables removes every binding.
func (e *Engine) ClearVariables() { e.ctx.Clear() }

// RegisterFunction adds or replaces a function with no arity bounds.
func (e *Engine) RegisterFunction(name string, fn functions.Func) {
	e.registry.Register(name, fn)
}

// RegisterDef adds or replaces a function definition.
func (e *Engine) RegisterDef(def functions.Def) { e.registry.RegisterDef(def) }

// Context returns the engine's variable context.
func (e *Engine) Context() *types.Context { return e.ctx }

// Registry returns the engine's function registry.
func (e *Engine) Registry() *functions.Registry { return e.registry }

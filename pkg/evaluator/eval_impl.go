package evaluator

import (
	"fmt"

	"github.com/sandrolain/xlformula/pkg/functions"
	"github.com/sandrolain/xlformula/pkg/types"
)

// state carries what one evaluation needs: the variable context, the
// current depth and, when tracing, the stack of open trace nodes.
type state struct {
	ev    *Evaluator
	ctx   *types.Context
	depth int

	tracing bool
	nextID  int
	root    *Trace
	open    []*Trace
}

// eval evaluates an AST node.
func (s *state) eval(node *types.Node) types.Value {
	if node == nil {
		return types.NewError(types.ErrValue)
	}
	s.depth++
	defer func() { s.depth-- }()

	if limit := s.ev.opts.MaxDepth; limit > 0 && s.depth > limit {
		s.ev.logger.Warn("maximum evaluation depth exceeded",
			"depth", s.depth,
			"position", node.Position)
		return types.NewError(types.ErrValue)
	}

	if s.ev.opts.Debug {
		s.ev.logger.Debug("evaluating node",
			"kind", node.Kind,
			"position", node.Position,
			"depth", s.depth)
	}

	if !s.tracing {
		return s.dispatch(node)
	}

	t := s.push(node)
	v := s.dispatch(node)
	t.Value = v
	s.open = s.open[:len(s.open)-1]
	return v
}

func (s *state) dispatch(node *types.Node) types.Value {
	switch node.Kind {
	case types.NodeLiteral:
		return node.Value
	case types.NodeVariable:
		return s.ctx.Get(node.Name)
	case types.NodeUnary:
		return s.evalUnary(node)
	case types.NodeBinary:
		return s.evalBinary(node)
	case types.NodeCall:
		return s.evalCall(node)
	default:
		return types.NewError(types.ErrValue)
	}
}

func (s *state) evalUnary(node *types.Node) types.Value {
	return unary(node.Op, s.eval(node.LHS))
}

// evalBinary evaluates both operands before applying the operator, so an
// Error on the right still surfaces when the left is fine.
//
// The left operand stays at the node's own depth: the parser builds
// left-associative chains in a loop, so a long flat chain is not nesting.
func (s *state) evalBinary(node *types.Node) types.Value {
	s.depth--
	lhs := s.eval(node.LHS)
	s.depth++
	rhs := s.eval(node.RHS)
	return binary(node.Op, lhs, rhs)
}

// evalCall evaluates every argument left to right, then resolves the
// function. An unknown name is #NAME? even when an argument failed.
func (s *state) evalCall(node *types.Node) types.Value {
	args := make([]types.Value, len(node.Arguments))
	for i, arg := range node.Arguments {
		args[i] = s.eval(arg)
	}

	fn, ok := s.ev.registry.Lookup(node.Name)
	if !ok {
		s.ev.metrics.ObserveUnknownFunction(node.Name)
		if s.ev.opts.Debug {
			s.ev.logger.Debug("unknown function",
				"name", node.Name,
				"position", node.Position,
				"suggestions", s.ev.registry.Suggest(node.Name, 3))
		}
		return types.NewError(types.ErrName)
	}

	result := s.invoke(node.Name, fn, args)
	s.ev.metrics.ObserveCall(node.Name, result)
	return result
}

// invoke calls fn, turning a panic into #VALUE!.
func (s *state) invoke(name string, fn functions.Func, args []types.Value) (result types.Value) {
	defer func() {
		if r := recover(); r != nil {
			s.ev.logger.Warn("function panicked",
				"name", name,
				"panic", fmt.Sprint(r))
			result = types.NewError(types.ErrValue)
		}
	}()

	if s.ev.opts.Debug {
		s.ev.logger.Debug("calling function",
			"name", name,
			"args", len(args))
	}
	return fn(args, s.ctx)
}

package evaluator

import (
	"fmt"
	"strings"

	"github.com/sandrolain/xlformula/pkg/types"
)

// Trace records the evaluation of one node and its children, in the
// order they were evaluated.
type Trace struct {
	ID       int
	Kind     types.NodeKind
	Label    string
	Position int
	Value    types.Value
	Children []*Trace
}

// EvalWithTrace evaluates expr like Eval and also returns the trace of
// every node visited. The trace is nil when expr is nil.
func (e *Evaluator) EvalWithTrace(expr *types.Expression, ctx *types.Context) (types.Value, *Trace) {
	if expr == nil || expr.AST() == nil {
		return types.NewError(types.ErrValue), nil
	}
	s := &state{ev: e, ctx: ctx, tracing: true}
	v := s.eval(expr.AST())
	return v, s.root
}

// push opens a trace node for n under the innermost open node.
func (s *state) push(n *types.Node) *Trace {
	s.nextID++
	t := &Trace{
		ID:       s.nextID,
		Kind:     n.Kind,
		Label:    label(n),
		Position: n.Position,
	}
	if len(s.open) == 0 {
		s.root = t
	} else {
		parent := s.open[len(s.open)-1]
		parent.Children = append(parent.Children, t)
	}
	s.open = append(s.open, t)
	return t
}

func label(n *types.Node) string {
	switch n.Kind {
	case types.NodeLiteral:
		if n.Value.IsText() {
			return fmt.Sprintf("%q", n.Value.Str())
		}
		return n.Value.String()
	case types.NodeVariable:
		return n.Name
	case types.NodeUnary, types.NodeBinary:
		return n.Op.String()
	case types.NodeCall:
		return n.Name + "()"
	}
	return "?"
}

// String renders the trace as an indented tree, one node per line:
//
//	#1 binary + => 3
//	  #2 literal 1 => 1
//	  #3 variable A1 => 2
func (t *Trace) String() string {
	var b strings.Builder
	t.write(&b, 0)
	return b.String()
}

func (t *Trace) write(b *strings.Builder, level int) {
	if t == nil {
		return
	}
	fmt.Fprintf(b, "%s#%d %s %s => %s\n",
		strings.Repeat("  ", level), t.ID, t.Kind, t.Label, t.Value.String())
	for _, c := range t.Children {
		c.write(b, level+1)
	}
}

// Walk visits t and its descendants in evaluation order.
func (t *Trace) Walk(fn func(*Trace)) {
	if t == nil {
		return
	}
	fn(t)
	for _, c := range t.Children {
		c.Walk(fn)
	}
}

package types

import "strings"

// NodeKind identifies the type of an AST node.
type NodeKind uint8

const (
	NodeLiteral  NodeKind = iota // number, string or boolean constant
	NodeVariable                 // identifier not followed by "("
	NodeUnary                    // prefix + or -
	NodeBinary                   // infix operator
	NodeCall                     // NAME(args...)
)

func (k NodeKind) String() string {
	switch k {
	case NodeLiteral:
		return "literal"
	case NodeVariable:
		return "variable"
	case NodeUnary:
		return "unary"
	case NodeBinary:
		return "binary"
	case NodeCall:
		return "call"
	default:
		return "unknown"
	}
}

// Operator is the operator carried by unary and binary nodes.
type Operator uint8

const (
	OpNone Operator = iota

	// Binary
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpPow
	OpConcat
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	// Unary
	OpNeg
	OpPos
)

var operatorSymbols = [...]string{
	OpNone:   "",
	OpAdd:    "+",
	OpSub:    "-",
	OpMul:    "*",
	OpDiv:    "/",
	OpPow:    "^",
	OpConcat: "&",
	OpEq:     "=",
	OpNe:     "<>",
	OpLt:     "<",
	OpLe:     "<=",
	OpGt:     ">",
	OpGe:     ">=",
	OpNeg:    "-",
	OpPos:    "+",
}

// String returns the operator's source symbol.
func (op Operator) String() string {
	if int(op) < len(operatorSymbols) {
		return operatorSymbols[op]
	}
	return "?"
}

// IsComparison reports whether op yields a Boolean.
func (op Operator) IsComparison() bool {
	return op >= OpEq && op <= OpGe
}

// Node is a node of the expression tree. Nodes are immutable once the
// parser returns them.
type Node struct {
	Kind     NodeKind
	Position int // byte offset of the node's first token

	Value Value    // NodeLiteral
	Name  string   // NodeVariable, NodeCall
	Op    Operator // NodeUnary, NodeBinary

	LHS       *Node   // operand of unary nodes, left side of binary nodes
	RHS       *Node   // right side of binary nodes
	Arguments []*Node // call arguments
}

// NewNode allocates a standalone node. The parser uses NodeArena instead.
func NewNode(kind NodeKind, position int) *Node {
	return &Node{Kind: kind, Position: position}
}

// String renders the subtree in a fully parenthesised canonical form,
// e.g. "(1 + (2 * 3))".
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	if n == nil {
		b.WriteString("<nil>")
		return
	}
	switch n.Kind {
	case NodeLiteral:
		if n.Value.IsText() {
			b.WriteByte('"')
			b.WriteString(n.Value.Str())
			b.WriteByte('"')
			return
		}
		b.WriteString(n.Value.String())
	case NodeVariable:
		b.WriteString(n.Name)
	case NodeUnary:
		b.WriteString(n.Op.String())
		n.LHS.write(b)
	case NodeBinary:
		b.WriteByte('(')
		n.LHS.write(b)
		b.WriteByte(' ')
		b.WriteString(n.Op.String())
		b.WriteByte(' ')
		n.RHS.write(b)
		b.WriteByte(')')
	case NodeCall:
		b.WriteString(n.Name)
		b.WriteByte('(')
		for i, a := range n.Arguments {
			if i > 0 {
				b.WriteString(", ")
			}
			a.write(b)
		}
		b.WriteByte(')')
	}
}

// Walk visits n and its descendants depth-first, parents before children.
// Returning false from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	n.LHS.Walk(fn)
	n.RHS.Walk(fn)
	for _, a := range n.Arguments {
		a.Walk(fn)
	}
}

// arenaChunkSize is the number of Node values pre-allocated per arena chunk.
const arenaChunkSize = 64

// NodeArena is a bump-pointer allocator for Node values.
//
// A typical formula fits in one chunk, so parsing costs a single
// allocation for the whole tree. The arena is attached to the
// Expression and lives exactly as long as the tree does.
//
// NodeArena is not safe for concurrent use; each parser owns one.
type NodeArena struct {
	chunks [][]Node
	pos    int
}

// NewNodeArena allocates an arena with one initial chunk.
func NewNodeArena() *NodeArena {
	return &NodeArena{chunks: [][]Node{make([]Node, arenaChunkSize)}}
}

// Alloc returns a zeroed Node with Kind and Position set.
func (a *NodeArena) Alloc(kind NodeKind, position int) *Node {
	if a.pos >= arenaChunkSize {
		a.chunks = append(a.chunks, make([]Node, arenaChunkSize))
		a.pos = 0
	}
	n := &a.chunks[len(a.chunks)-1][a.pos]
	a.pos++
	n.Kind = kind
	n.Position = position
	return n
}

// Len returns the number of nodes handed out so far.
func (a *NodeArena) Len() int {
	return (len(a.chunks)-1)*arenaChunkSize + a.pos
}

// Package types defines the core data model of the formula language.
//
// This package contains type definitions for:
//   - Value: the tagged-union runtime datum and its coercion rules
//   - ErrorType: the closed set of spreadsheet error codes
//   - Context: the caller-owned variable environment
//   - Node: Abstract Syntax Tree nodes and their arena
//   - Expression: a parsed formula
//   - ParseError: structured parse failures with positions
package types

// Expression is a successfully parsed formula.
//
// An Expression can be evaluated any number of times against different
// contexts. It is immutable and safe for concurrent use.
type Expression struct {
	root   *Node
	source string
	arena  *NodeArena
}

// NewExpression wraps a parsed tree. arena may be nil for hand-built trees.
func NewExpression(root *Node, source string, arena *NodeArena) *Expression {
	return &Expression{
		root:   root,
		source: source,
		arena:  arena,
	}
}

// AST returns the root node.
func (e *Expression) AST() *Node {
	return e.root
}

// Source returns the formula text the expression was parsed from.
func (e *Expression) Source() string {
	return e.source
}

// NodeCount returns the number of nodes in the tree.
func (e *Expression) NodeCount() int {
	if e.arena != nil {
		return e.arena.Len()
	}
	count := 0
	e.root.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}

// String returns the canonical rendering of the tree.
func (e *Expression) String() string {
	return e.root.String()
}
